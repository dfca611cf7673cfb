package handlers

import (
	"net/http"

	"github.com/gridmarket/orderbook-svc/internal/service/requests"
	"github.com/gridmarket/orderbook-svc/resources"
)

func PublishOrder(w http.ResponseWriter, r *http.Request) {
	order, err := requests.NewPublishOrder(r)
	if err != nil {
		renderErr(w, r, err)
		return
	}

	id, err := identity(r)
	if err != nil {
		renderErr(w, r, err)
		return
	}

	stored, err := Book(r).Publish(r.Context(), ChainID(r), order, id)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, resources.NewOrderResponse(*stored))
}
