package handler

import (
	"net/http"
	"time"

	"session-hub/internal/domain"
	"session-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// backendTokenHeader carries the hub-minted JWT for downstream services.
const backendTokenHeader = "X-Backend-Token"

// LoginHandler handles POST /auth/login and the remembered-username lookup
// the login screen uses to pre-fill its form.
type LoginHandler struct {
	session *usecase.Session
	issuer  domain.TokenIssuer
}

// NewLoginHandler creates a new login handler. issuer may be nil when no
// backend token secret is configured.
func NewLoginHandler(session *usecase.Session, issuer domain.TokenIssuer) *LoginHandler {
	return &LoginHandler{session: session, issuer: issuer}
}

type loginRequest struct {
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

// userPayload is the user object shape shared by login and session
// responses.
type userPayload struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

type sessionPayload struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

type loginResponse struct {
	OK      bool           `json:"ok"`
	Token   string         `json:"token"`
	User    userPayload    `json:"user"`
	Session sessionPayload `json:"session"`
}

// Handle processes POST /auth/login.
func (h *LoginHandler) Handle(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	state, err := h.session.Login(c.Request().Context(), req.Username, req.Password, req.RememberMe)
	if err != nil {
		return mapDomainError(err)
	}

	if h.issuer != nil {
		backendToken, err := h.issuer.IssueBackendToken(&state.Identity, state.SessionID)
		if err != nil {
			return mapDomainError(err)
		}
		c.Response().Header().Set(backendTokenHeader, backendToken)
	}

	return c.JSON(http.StatusOK, loginResponse{
		OK:    true,
		Token: state.Token,
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

type rememberedUsernameResponse struct {
	Username string `json:"username"`
}

// HandleRememberedUsername processes GET /auth/remembered-username.
func (h *LoginHandler) HandleRememberedUsername(c echo.Context) error {
	username, err := h.session.RememberedUsername(c.Request().Context())
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, rememberedUsernameResponse{Username: username})
}
