package handlers

import (
	"net/http"

	"github.com/gridmarket/orderbook-svc/internal/service/requests"
	"github.com/gridmarket/orderbook-svc/resources"
)

func GetDeal(w http.ResponseWriter, r *http.Request) {
	dealID, err := requests.NewGetDeal(r)
	if err != nil {
		renderErr(w, r, err)
		return
	}

	deal, err := Book(r).GetDeal(dealID)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, resources.NewDealResponse(*deal))
}

func GetCategory(w http.ResponseWriter, r *http.Request) {
	catID, err := requests.NewGetCategory(r)
	if err != nil {
		renderErr(w, r, err)
		return
	}

	category, err := Book(r).GetCategory(catID)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, resources.NewCategoryResponse(*category))
}
