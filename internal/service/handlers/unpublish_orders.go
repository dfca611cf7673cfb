package handlers

import (
	"net/http"

	"github.com/gridmarket/orderbook-svc/internal/service/requests"
	"github.com/gridmarket/orderbook-svc/resources"
)

func UnpublishOrders(w http.ResponseWriter, r *http.Request) {
	req, err := requests.NewUnpublishOrders(r)
	if err != nil {
		renderErr(w, r, err)
		return
	}

	id, err := identity(r)
	if err != nil {
		renderErr(w, r, err)
		return
	}

	hashes, err := Book(r).Unpublish(r.Context(), ChainID(r), req.Kind, req.Target, req.Ref, id)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, resources.NewHashesResponse(hashes))
}
