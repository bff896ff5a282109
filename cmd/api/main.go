package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"stockroom-backend/internal/modules/inventory"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load()

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	var (
		storeRepo   inventory.StoreRepository
		productRepo inventory.ProductRepository
		invRepo     inventory.InventoryRepository
	)
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatal(err)
		}
		fmt.Println("Successfully connected to the database!")

		storeRepo = inventory.NewStorePostgresRepository(db)
		productRepo = inventory.NewProductPostgresRepository(db)
		invRepo = inventory.NewInventoryPostgresRepository(db)
	} else {
		log.Println("DATABASE_URL not set; using in-memory storage")
		mem := inventory.NewMemoryDB()
		storeRepo = inventory.NewStoreMemoryRepository(mem)
		productRepo = inventory.NewProductMemoryRepository(mem)
		invRepo = inventory.NewInventoryMemoryRepository(mem)
	}

	service := inventory.NewService(storeRepo, productRepo, invRepo)
	inventory.NewHandler(service).RegisterRoutes(router)

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("Stockroom API server starting on :%s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
