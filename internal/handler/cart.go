package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/foodhub/internal/domain/order"
	"github.com/xenking/foodhub/internal/domain/session"
)

func renderCart(e *jx.Encoder, st session.State) {
	encodeCart(e, st.Cart())
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Get(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		renderCart(e, st)
	})
}

// addToCart adds one unit of a session product or recommendation.
func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeProductRequest(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.update(w, r, func(st session.State) (session.State, error) {
		return st.AddToCart(req.ProductID)
	}, renderCart)
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.update(w, r, func(st session.State) (session.State, error) {
		return st.RemoveFromCart(id), nil
	}, renderCart)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, pure(session.State.ClearCart), renderCart)
}

// checkout places an order for the cart and empties it. Both happen under
// the session update so a concurrent add is either ordered or kept.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var placed *order.Order
	_, err := h.sessions.Update(r.Context(), sessionID(r), func(st session.State) (session.State, error) {
		o, err := h.orders.PlaceOrder(r.Context(), st.Cart())
		if err != nil {
			return st, err
		}
		placed = o
		return st.ClearCart(), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/orders/"+placed.ID)
	writeJSON(w, r, http.StatusCreated, func(e *jx.Encoder) {
		encodeOrder(e, placed)
	})
}
