package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediflow/clinic/pkg/errs"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// statusForKind maps the domain error taxonomy to HTTP status codes.
// Client-fixable input problems are 400, missing records 404, and every
// invariant violation over current state is 409.
func statusForKind(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation, errs.KindInvalidAmount:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindSchedulingConflict,
		errs.KindInvalidStateTransition,
		errs.KindInsufficientStock,
		errs.KindBedUnavailable,
		errs.KindReferentialIntegrity:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders typed domain errors as {kind, message} with the
// taxonomy status mapping, and falls back to echo's HTTPError semantics for
// everything else.
func ErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var de *errs.Error
		if errors.As(err, &de) {
			_ = c.JSON(statusForKind(de.Kind), errorBody{Kind: string(de.Kind), Message: de.Message})
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg, ok := he.Message.(string)
			if !ok {
				msg = http.StatusText(he.Code)
			}
			_ = c.JSON(he.Code, errorBody{Kind: http.StatusText(he.Code), Message: msg})
			return
		}

		_ = c.JSON(http.StatusInternalServerError, errorBody{
			Kind:    "InternalError",
			Message: "internal server error",
		})
	}
}
