// Package resources holds the JSON shapes served by the order book API.
package resources

import "github.com/gridmarket/orderbook-svc/internal/data"

// Error is the uniform failure envelope.
type Error struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error"`
}

func NewError(msg string) Error {
	return Error{Ok: false, Error: msg}
}

// OrderResponse wraps a single published order.
type OrderResponse struct {
	Ok    bool       `json:"ok"`
	Order data.Order `json:"order"`
}

func NewOrderResponse(order data.Order) OrderResponse {
	return OrderResponse{Ok: true, Order: order}
}

// OrdersResponse wraps a listing page with the unpaged total.
type OrdersResponse struct {
	Ok     bool         `json:"ok"`
	Orders []data.Order `json:"orders"`
	Count  int64        `json:"count"`
}

func NewOrdersResponse(orders []data.Order, count int64) OrdersResponse {
	if orders == nil {
		orders = []data.Order{}
	}
	return OrdersResponse{Ok: true, Orders: orders, Count: count}
}

// HashesResponse reports the order hashes an operation touched.
type HashesResponse struct {
	Ok     bool     `json:"ok"`
	Hashes []string `json:"hashes"`
}

func NewHashesResponse(hashes []string) HashesResponse {
	if hashes == nil {
		hashes = []string{}
	}
	return HashesResponse{Ok: true, Hashes: hashes}
}

type DealResponse struct {
	Ok   bool      `json:"ok"`
	Deal data.Deal `json:"deal"`
}

func NewDealResponse(deal data.Deal) DealResponse {
	return DealResponse{Ok: true, Deal: deal}
}

type CategoryResponse struct {
	Ok       bool          `json:"ok"`
	Category data.Category `json:"category"`
}

func NewCategoryResponse(category data.Category) CategoryResponse {
	return CategoryResponse{Ok: true, Category: category}
}
