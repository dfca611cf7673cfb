package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gridmarket/orderbook-svc/internal/orderbook"
	"github.com/gridmarket/orderbook-svc/resources"
)

func renderJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// renderErr maps the book's error taxonomy onto HTTP statuses. Unexpected
// errors are logged and reported as an opaque 500: internal details never
// leak into the envelope.
func renderErr(w http.ResponseWriter, r *http.Request, err error) {
	switch err.(type) {
	case orderbook.ValidationError:
		renderJSON(w, http.StatusBadRequest, resources.NewError(err.Error()))
	case orderbook.AuthError:
		renderJSON(w, http.StatusForbidden, resources.NewError(err.Error()))
	case orderbook.NotFoundError:
		renderJSON(w, http.StatusNotFound, resources.NewError(err.Error()))
	case orderbook.BusinessError:
		renderJSON(w, http.StatusUnprocessableEntity, resources.NewError(err.Error()))
	default:
		Log(r).WithError(err).Error("request failed")
		renderJSON(w, http.StatusInternalServerError, resources.NewError("internal error"))
	}
}
