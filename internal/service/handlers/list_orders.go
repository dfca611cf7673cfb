package handlers

import (
	"net/http"

	"github.com/gridmarket/orderbook-svc/internal/service/requests"
	"github.com/gridmarket/orderbook-svc/resources"
)

func ListOrders(w http.ResponseWriter, r *http.Request) {
	selector, err := requests.NewListOrders(r)
	if err != nil {
		renderErr(w, r, err)
		return
	}

	page, err := Book(r).ListOrders(selector)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, resources.NewOrdersResponse(page.Orders, page.Count))
}
