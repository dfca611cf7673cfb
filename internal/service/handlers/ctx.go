package handlers

import (
	"context"
	"net/http"

	"github.com/gridmarket/orderbook-svc/internal/orderbook"
	"gitlab.com/distributed_lab/logan/v3"
)

type ctxKey int

const (
	logCtxKey ctxKey = iota
	bookCtxKey
	chainIDCtxKey
)

func CtxLog(entry *logan.Entry) func(context.Context) context.Context {
	return func(ctx context.Context) context.Context {
		return context.WithValue(ctx, logCtxKey, entry)
	}
}

func Log(r *http.Request) *logan.Entry {
	return r.Context().Value(logCtxKey).(*logan.Entry)
}

func CtxBook(book *orderbook.Book) func(context.Context) context.Context {
	return func(ctx context.Context) context.Context {
		return context.WithValue(ctx, bookCtxKey, book)
	}
}

func Book(r *http.Request) *orderbook.Book {
	return r.Context().Value(bookCtxKey).(*orderbook.Book)
}

func CtxChainID(chainID int64) func(context.Context) context.Context {
	return func(ctx context.Context) context.Context {
		return context.WithValue(ctx, chainIDCtxKey, chainID)
	}
}

func ChainID(r *http.Request) int64 {
	return r.Context().Value(chainIDCtxKey).(int64)
}
