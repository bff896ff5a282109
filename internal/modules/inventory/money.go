package inventory

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// AsMoneyString renders value with exactly two fraction digits,
// rounding half away from zero. Unparseable input yields a
// NotANumberError; input that parses as an IEEE-754 infinity falls
// back to "0.00".
func AsMoneyString(value string) (string, error) {
	s := strings.TrimSpace(value)
	if d, err := decimal.NewFromString(s); err == nil {
		return d.StringFixed(2), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return "", &NotANumberError{Input: value}
	}
	if math.IsInf(f, 0) {
		return "0.00", nil
	}
	return decimal.NewFromFloat(f).StringFixed(2), nil
}
