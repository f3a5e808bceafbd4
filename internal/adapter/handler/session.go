package handler

import (
	"net/http"

	"session-hub/internal/domain"
	"session-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SessionHandler exposes the current session and handles logout.
type SessionHandler struct {
	session *usecase.Session
	issuer  domain.TokenIssuer
}

// NewSessionHandler creates a new session handler. issuer may be nil.
func NewSessionHandler(session *usecase.Session, issuer domain.TokenIssuer) *SessionHandler {
	return &SessionHandler{session: session, issuer: issuer}
}

type sessionResponse struct {
	OK      bool           `json:"ok"`
	User    userPayload    `json:"user"`
	Session sessionPayload `json:"session"`
}

// HandleCurrent processes GET /auth/session.
func (h *SessionHandler) HandleCurrent(c echo.Context) error {
	state, ok := h.session.Current()
	if !ok {
		return mapDomainError(domain.ErrNotAuthenticated)
	}

	if h.issuer != nil {
		backendToken, err := h.issuer.IssueBackendToken(&state.Identity, state.SessionID)
		if err != nil {
			return mapDomainError(err)
		}
		c.Response().Header().Set(backendTokenHeader, backendToken)
	}

	return c.JSON(http.StatusOK, sessionResponse{
		OK: true,
		User: userPayload{
			ID:        state.Identity.ID,
			Username:  state.Identity.Username,
			Email:     state.Identity.Email,
			LastLogin: state.Identity.LastLogin,
		},
		Session: sessionPayload{
			ID:     state.SessionID,
			Active: true,
		},
	})
}

// HandleLogout processes POST /auth/logout. Logout is local: no remote
// call is made and it succeeds regardless of prior state.
func (h *SessionHandler) HandleLogout(c echo.Context) error {
	if err := h.session.Logout(c.Request().Context()); err != nil {
		return mapDomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
