package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/foodhub/internal/domain/product"
	"github.com/xenking/foodhub/internal/domain/session"
)

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sid")
}

// update applies fn to the session named in the URL and writes the new
// snapshot with render.
func (h *Handler) update(
	w http.ResponseWriter,
	r *http.Request,
	fn func(session.State) (session.State, error),
	render func(e *jx.Encoder, st session.State),
) {
	st, err := h.sessions.Update(r.Context(), sessionID(r), fn)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		render(e, st)
	})
}

// pure lifts an infallible reducer.
func pure(fn func(session.State) session.State) func(session.State) (session.State, error) {
	return func(st session.State) (session.State, error) {
		return fn(st), nil
	}
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, r, errors.Wrap(err, "list products"))
		return
	}
	st, err := h.sessions.Create(r.Context(), catalog)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+st.ID())
	writeJSON(w, r, http.StatusCreated, func(e *jx.Encoder) {
		encodeSession(e, st)
	})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Get(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		encodeSession(e, st)
	})
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(r.Context(), sessionID(r))
	w.WriteHeader(http.StatusNoContent)
}

// sessionProducts returns the session catalog narrowed by the session's
// filters and location.
func (h *Handler) sessionProducts(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Get(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	visible := st.VisibleProducts()
	observer := observerOf(st)
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		encodeProducts(e, visible, observer)
	})
}

// addListing publishes a seller listing into the session catalog.
func (h *Handler) addListing(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeListing(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	draft, err := req.draft()
	if err != nil {
		writeError(w, r, err)
		return
	}

	var listed product.Product
	_, err = h.sessions.Update(r.Context(), sessionID(r), func(st session.State) (session.State, error) {
		next, p, err := st.AddProduct(draft)
		listed = p
		return next, err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, func(e *jx.Encoder) {
		encodeProduct(e, listed, nil)
	})
}

func (h *Handler) updateFilters(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeFilters(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.update(w, r, func(st session.State) (session.State, error) {
		return st.UpdateFilters(patch), nil
	}, encodeSession)
}

func (h *Handler) resetFilters(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, pure(session.State.ResetFilters), encodeSession)
}

// setLocation records the buyer's position, enabling the distance filter.
func (h *Handler) setLocation(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeLocationRequest(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.update(w, r, func(st session.State) (session.State, error) {
		return st.SetObserver(req.coordinate())
	}, encodeSession)
}

// clearLocation is used when the client cannot determine its position.
func (h *Handler) clearLocation(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, pure(session.State.ClearObserver), encodeSession)
}

func (h *Handler) toggleView(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, pure(session.State.ToggleView), encodeSession)
}
