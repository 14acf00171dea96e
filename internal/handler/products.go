package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/foodhub/internal/domain/product"
)

// listProducts filters the base catalog by query parameters. Without
// parameters the whole catalog is returned.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseProductQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	products, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, r, errors.Wrap(err, "list products"))
		return
	}

	c, observer := q.criteria()
	visible := product.Filter(products, c, observer)
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		encodeProducts(e, visible, observer)
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		encodeProduct(e, *p, nil)
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "oid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}
