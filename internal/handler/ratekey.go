package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/foodhub/pkg/httpmiddleware"
)

// SessionHeader names the buyer session on assistant routes that have no
// session in the path.
const SessionHeader = "X-Session-ID"

type sessionIDKey struct{}

// scopeSession stores the id of an existing session in the request context.
// The id comes from the {sid} route parameter or SessionHeader.
func (h *Handler) scopeSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sid")
		if id == "" {
			id = r.Header.Get(SessionHeader)
		}
		if id != "" {
			if _, err := h.sessions.Get(r.Context(), id); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), sessionIDKey{}, id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// AssistantRateKey keys assistant rate limits by buyer session. Requests
// without a known session share the client IP bucket.
func AssistantRateKey(r *http.Request) string {
	if id, ok := r.Context().Value(sessionIDKey{}).(string); ok {
		return "session:" + id
	}
	return "ip:" + httpmiddleware.ClientIP(r)
}
