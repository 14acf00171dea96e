package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xenking/foodhub/internal/domain/assistant"
	"github.com/xenking/foodhub/internal/domain/dietary"
	"github.com/xenking/foodhub/internal/domain/geo"
	"github.com/xenking/foodhub/internal/domain/order"
	"github.com/xenking/foodhub/internal/domain/product"
	"github.com/xenking/foodhub/internal/domain/session"
	"github.com/xenking/foodhub/internal/storage/memory"
	"github.com/xenking/foodhub/pkg/httpmiddleware"
)

const (
	msgAssistantUnavailable = "the assistant is unavailable right now, please try again later"
	msgInternal             = "internal server error"
)

// badRequestError marks malformed input that has no domain sentinel.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }

func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &badRequestError{err: err}
}

func badRequestf(format string, args ...any) error {
	return badRequest(errors.Errorf(format, args...))
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	var (
		bre  *badRequestError
		verr validator.ValidationErrors
		iqe  *order.InvalidQuantityError
		mbe  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &bre), errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, dietary.ErrUnknownTag),
		errors.Is(err, geo.ErrInvalidCoordinate),
		errors.Is(err, session.ErrInvalidDraft),
		errors.Is(err, assistant.ErrInvalidImage),
		errors.Is(err, product.ErrInvalid),
		errors.Is(err, order.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.As(err, &iqe):
		return http.StatusUnprocessableEntity
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, memory.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, memory.ErrSessionLimit):
		return http.StatusServiceUnavailable
	case errors.Is(err, assistant.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes the matching JSON error response. Details
// of 5xx errors are never exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	lg := zctx.From(r.Context())

	msg := err.Error()
	switch {
	case status == http.StatusBadGateway:
		lg.Warn("Assistant call failed", zap.Error(err))
		msg = msgAssistantUnavailable
	case status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable:
		lg.Error("Request failed", zap.Error(err))
		msg = msgInternal
	default:
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			msg = validationMessage(verr)
		}
	}
	httpmiddleware.WriteError(w, status, msg)
}

// validationMessage renders errors as "name: required; price: gte=0".
func validationMessage(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		rule := fe.Tag()
		if p := fe.Param(); p != "" {
			rule += "=" + p
		}
		parts = append(parts, field+": "+rule)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}
