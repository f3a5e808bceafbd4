package handler

import (
	"net/http"

	"session-hub/internal/domain"
	"session-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// RegisterHandler handles POST /auth/register.
type RegisterHandler struct {
	session *usecase.Session
}

// NewRegisterHandler creates a new registration handler.
func NewRegisterHandler(session *usecase.Session) *RegisterHandler {
	return &RegisterHandler{session: session}
}

type registerRequest struct {
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
}

type statusResponse struct {
	OK bool `json:"ok"`
}

// Handle processes POST /auth/register. A mismatched password
// confirmation is rejected here, before any remote call.
func (h *RegisterHandler) Handle(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Password != req.ConfirmPassword {
		return mapDomainError(domain.ErrPasswordMismatch)
	}

	if err := h.session.Register(c.Request().Context(), req.Username, req.Password, req.Email); err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusCreated, statusResponse{OK: true})
}
