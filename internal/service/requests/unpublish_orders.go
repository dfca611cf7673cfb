package requests

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi"
	"github.com/gridmarket/orderbook-svc/internal/data"
	"github.com/gridmarket/orderbook-svc/internal/orderbook"
)

type UnpublishOrders struct {
	Kind   data.OrderKind
	Target orderbook.UnpublishTarget
	// Ref is the order hash for the hash target, the resource address for
	// last/all targets of resource kinds, empty for request orders.
	Ref string
}

type unpublishOrdersBody struct {
	Target    string `json:"target"`
	OrderHash string `json:"order_hash"`
	Resource  string `json:"resource"`
}

func NewUnpublishOrders(r *http.Request) (UnpublishOrders, error) {
	kind := data.OrderKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		return UnpublishOrders{}, orderbook.Validationf("unknown order kind %q", kind)
	}

	var body unpublishOrdersBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return UnpublishOrders{}, orderbook.Validationf("invalid request body: %v", err)
	}

	req := UnpublishOrders{Kind: kind, Target: orderbook.UnpublishTarget(body.Target)}
	switch req.Target {
	case orderbook.TargetHash:
		if !hashPattern.MatchString(body.OrderHash) {
			return UnpublishOrders{}, orderbook.Validationf("order_hash must be a 32-byte hex string")
		}
		req.Ref = strings.ToLower(body.OrderHash)

	case orderbook.TargetLast, orderbook.TargetAll:
		if kind.IsResource() {
			if !common.IsHexAddress(body.Resource) {
				return UnpublishOrders{}, orderbook.Validationf("resource must be a hex address")
			}
			req.Ref = data.Addr(common.HexToAddress(body.Resource))
		}

	default:
		return UnpublishOrders{}, orderbook.Validationf("unknown unpublish target %q", body.Target)
	}
	return req, nil
}
