package requests

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"github.com/gridmarket/orderbook-svc/internal/orderbook"
)

var hashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

func NewGetOrder(r *http.Request) (data.OrderKind, string, error) {
	kind := data.OrderKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		return "", "", orderbook.Validationf("unknown order kind %q", kind)
	}

	hash := chi.URLParam(r, "order_hash")
	if !hashPattern.MatchString(hash) {
		return "", "", orderbook.Validationf("order_hash must be a 32-byte hex string")
	}
	return kind, strings.ToLower(hash), nil
}
