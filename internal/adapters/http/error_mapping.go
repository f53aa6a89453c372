package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/infrastructure/resilience"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrExchangeInFlight):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrBackend):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrTemporary), resilience.IsCircuitOpen(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the text shown to API clients. Internal error chains are
// only logged.
func errorMessage(err error, action string) string {
	switch {
	case domain.IsKind(err, domain.ErrNotFound):
		return "Not found."
	case errors.Is(err, domain.ErrExchangeInFlight):
		return "A message is already being answered in this session."
	default:
		return domain.UserMessage(err, action)
	}
}
