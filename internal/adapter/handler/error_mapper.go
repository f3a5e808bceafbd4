package handler

import (
	"errors"
	"net/http"

	"session-hub/internal/domain"

	"github.com/labstack/echo/v4"
)

// mapDomainError converts a domain error into an echo.HTTPError, surfacing
// the remote-provided message when the auth API supplied one.
func mapDomainError(err error) *echo.HTTPError {
	message := func(fallback string) string {
		if m, ok := domain.RemoteMessage(err); ok {
			return m
		}
		return fallback
	}

	switch {
	case errors.Is(err, domain.ErrPasswordMismatch):
		return echo.NewHTTPError(http.StatusBadRequest, "password confirmation does not match")

	case errors.Is(err, domain.ErrAuthenticationFailed):
		return echo.NewHTTPError(http.StatusUnauthorized, message("login failed"))

	case errors.Is(err, domain.ErrNotAuthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")

	case errors.Is(err, domain.ErrRegistrationRejected):
		return echo.NewHTTPError(http.StatusConflict, message("registration failed"))

	case errors.Is(err, domain.ErrLoginSuperseded):
		return echo.NewHTTPError(http.StatusConflict, "login superseded by a newer attempt")

	case errors.Is(err, domain.ErrResetRequestFailed):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, message("could not request password reset"))

	case errors.Is(err, domain.ErrResetConfirmFailed):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, message("could not reset password"))

	case errors.Is(err, domain.ErrAuthServiceUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "auth service unavailable")

	case errors.Is(err, domain.ErrStoreUnavailable):
		return echo.NewHTTPError(http.StatusInternalServerError, "credential store unavailable")

	case errors.Is(err, domain.ErrTokenGeneration):
		return echo.NewHTTPError(http.StatusInternalServerError, "token generation error")

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
