package inventory

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the inventory HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stores", h.listStores)
		r.Post("/stores", h.createStore)
		r.Get("/stores/{id}", h.getStore)
		r.Patch("/stores/{id}", h.updateStore)
		r.Delete("/stores/{id}", h.deleteStore)
		r.Get("/stores/{id}/items", h.listStoreItems)
		r.Get("/stores/{id}/summary", h.storeSummary)

		r.Post("/products", h.createProduct)
		r.Get("/products/{id}", h.getProduct)
		r.Patch("/products/{id}", h.updateProduct)

		r.Get("/inventory", h.listInventory)
		r.Put("/inventory", h.upsertInventory)
		r.Delete("/inventory", h.deleteInventory)
	})
}

func (h *Handler) listStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.ListStores(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, stores)
}

func (h *Handler) createStore(w http.ResponseWriter, r *http.Request) {
	var req CreateStoreInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	store, err := h.service.CreateStore(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, store)
}

func (h *Handler) getStore(w http.ResponseWriter, r *http.Request) {
	store, err := h.service.GetStore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, store)
}

func (h *Handler) updateStore(w http.ResponseWriter, r *http.Request) {
	var req UpdateStoreInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	store, err := h.service.UpdateStore(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, store)
}

func (h *Handler) deleteStore(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteStore(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) listStoreItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListStoreItems(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, items)
}

func (h *Handler) storeSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetStoreInventorySummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, summary)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	product, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, product)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, product)
}

func (h *Handler) listInventory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	args := ListItemsArgs{
		Filter: ItemFilter{
			StoreID:  q.Get("store_id"),
			Category: q.Get("category"),
			Search:   q.Get("search"),
			MinPrice: q.Get("min_price"),
			MaxPrice: q.Get("max_price"),
		},
	}
	var err error
	if args.Page, err = intParam(q.Get("page")); err != nil {
		http.Error(w, "page must be an integer", http.StatusBadRequest)
		return
	}
	if args.PageSize, err = intParam(q.Get("page_size")); err != nil {
		http.Error(w, "page_size must be an integer", http.StatusBadRequest)
		return
	}
	if args.Filter.MinQuantity, err = optIntParam(q.Get("min_quantity")); err != nil {
		http.Error(w, "min_quantity must be an integer", http.StatusBadRequest)
		return
	}
	if args.Filter.MaxQuantity, err = optIntParam(q.Get("max_quantity")); err != nil {
		http.Error(w, "max_quantity must be an integer", http.StatusBadRequest)
		return
	}
	if field := q.Get("sort"); field != "" {
		args.Sort = &ItemSort{Field: field, Direction: q.Get("direction")}
	}

	page, err := h.service.ListInventoryItems(r.Context(), args)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, page)
}

func (h *Handler) upsertInventory(w http.ResponseWriter, r *http.Request) {
	var req UpsertItemInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	item, err := h.service.UpsertInventoryItem(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, item)
}

func (h *Handler) deleteInventory(w http.ResponseWriter, r *http.Request) {
	key := ItemKey{
		StoreID:   r.URL.Query().Get("store_id"),
		ProductID: r.URL.Query().Get("product_id"),
	}
	if err := h.service.DeleteInventoryItem(r.Context(), key); err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]bool{"deleted": true})
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func optIntParam(v string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps the service error taxonomy onto HTTP statuses.
// Unclassified failures stay opaque.
func writeError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	switch {
	case IsNotFound(err):
		respond(w, http.StatusNotFound, map[string]any{"error": err.Error()})
	case errors.As(err, &ve):
		respond(w, http.StatusBadRequest, map[string]any{"error": ve.Message, "details": ve.Details})
	case IsValidation(err):
		respond(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
