package requests

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/gridmarket/orderbook-svc/internal/orderbook"
)

func NewGetDeal(r *http.Request) (string, error) {
	id := chi.URLParam(r, "deal_id")
	if !hashPattern.MatchString(id) {
		return "", orderbook.Validationf("deal_id must be a 32-byte hex string")
	}
	return strings.ToLower(id), nil
}

func NewGetCategory(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "category_id"), 10, 64)
	if err != nil || id < 0 {
		return 0, orderbook.Validationf("category_id must be a non-negative integer")
	}
	return id, nil
}
