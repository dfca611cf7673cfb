package service

import (
	"github.com/go-chi/chi"
	"github.com/gridmarket/orderbook-svc/internal/service/handlers"
	"gitlab.com/distributed_lab/ape"
)

func (s *service) router() chi.Router {
	r := chi.NewRouter()

	r.Use(
		ape.RecoverMiddleware(s.log),
		ape.LoganMiddleware(s.log),
		ape.CtxMiddleware(
			handlers.CtxLog(s.log),
			handlers.CtxBook(s.book),
			handlers.CtxChainID(s.chainID),
		),
	)

	r.Route("/orderbook/{kind}", func(r chi.Router) {
		r.Get("/", handlers.ListOrders)
		r.Post("/", handlers.PublishOrder)
		r.Delete("/", handlers.UnpublishOrders)
		r.Get("/{order_hash}", handlers.GetOrder)
	})
	r.Get("/deals/{deal_id}", handlers.GetDeal)
	r.Get("/categories/{category_id}", handlers.GetCategory)

	return r
}
