package handlers

import (
	"net/http"

	"github.com/gridmarket/orderbook-svc/internal/service/requests"
	"github.com/gridmarket/orderbook-svc/resources"
)

func GetOrder(w http.ResponseWriter, r *http.Request) {
	kind, hash, err := requests.NewGetOrder(r)
	if err != nil {
		renderErr(w, r, err)
		return
	}

	order, err := Book(r).GetOrder(kind, hash)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, resources.NewOrderResponse(*order))
}
