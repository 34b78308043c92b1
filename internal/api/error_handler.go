package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lenslegacy/class-booking/internal/core/domain"
)

// Error kinds returned to clients alongside the message.
const (
	KindUnauthorized           = "unauthorized"
	KindForbidden              = "forbidden"
	KindConflict               = "conflict"
	KindNotFound               = "not_found"
	KindInvalidInput           = "invalid_input"
	KindUpstreamFailure        = "upstream_failure"
	KindReconciliationRequired = "reconciliation_required"
	KindInternal               = "internal"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain errors
// to a status and kind, logs failures the client cannot act on and renders
// {"error": "<message>", "kind": "<kind>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, kind, msg := resolveError(err)
		if code >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("kind", kind).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg, Kind: kind})
	}
}

func resolveError(err error) (int, string, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, kindForStatus(he.Code), fmt.Sprintf("%v", he.Message)
	}

	// A reconciliation error wraps the cause of the failed step, so it must be
	// matched before the cause's own kind.
	switch {
	case errors.Is(err, domain.ErrReconciliationRequired):
		return http.StatusInternalServerError, KindReconciliationRequired, reconciliationMessage(err)
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, KindUnauthorized, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, KindForbidden, err.Error()
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, KindInvalidInput, err.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, KindInvalidInput, err.Error()
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrClassNotFound):
		return http.StatusNotFound, KindNotFound, err.Error()
	case errors.Is(err, domain.ErrAlreadySelected),
		errors.Is(err, domain.ErrAlreadyEnrolled),
		errors.Is(err, domain.ErrClassNotApproved),
		errors.Is(err, domain.ErrNoSeats),
		errors.Is(err, domain.ErrDuplicatePayment),
		errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, KindConflict, err.Error()
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, KindUpstreamFailure, "upstream service unavailable"
	}

	// Unexpected error: the caller logs the real cause.
	return http.StatusInternalServerError, KindInternal, "internal server error"
}

// reconciliationMessage names the orphaned payment without the cause, which
// may carry driver detail. The cause is logged by the handler.
func reconciliationMessage(err error) string {
	var re *domain.ReconciliationError
	if errors.As(err, &re) {
		return fmt.Sprintf("%s (payment %s)", domain.ErrReconciliationRequired, re.PaymentID)
	}
	return domain.ErrReconciliationRequired.Error()
}

func kindForStatus(code int) string {
	switch {
	case code == http.StatusUnauthorized:
		return KindUnauthorized
	case code == http.StatusForbidden:
		return KindForbidden
	case code == http.StatusNotFound:
		return KindNotFound
	case code == http.StatusConflict:
		return KindConflict
	case code == http.StatusBadGateway || code == http.StatusServiceUnavailable:
		return KindUpstreamFailure
	case code >= http.StatusInternalServerError:
		return KindInternal
	default:
		return KindInvalidInput
	}
}
