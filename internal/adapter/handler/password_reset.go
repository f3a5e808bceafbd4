package handler

import (
	"net/http"

	"session-hub/internal/domain"
	"session-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// PasswordResetHandler handles the two modes of the forgot-password
// screen: requesting a verification code and submitting the new password.
type PasswordResetHandler struct {
	session *usecase.Session
}

// NewPasswordResetHandler creates a new password reset handler.
func NewPasswordResetHandler(session *usecase.Session) *PasswordResetHandler {
	return &PasswordResetHandler{session: session}
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	VerifyCode      string `json:"verifyCode" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// HandleRequest processes POST /auth/forgot-password. The auth API
// delivers a one-time code out-of-band on success.
func (h *PasswordResetHandler) HandleRequest(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.session.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusAccepted, statusResponse{OK: true})
}

// HandleConfirm processes POST /auth/reset-password. A mismatched
// password confirmation is rejected here, before any remote call.
func (h *PasswordResetHandler) HandleConfirm(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.NewPassword != req.ConfirmPassword {
		return mapDomainError(domain.ErrPasswordMismatch)
	}

	if err := h.session.ConfirmPasswordReset(c.Request().Context(), req.Email, req.VerifyCode, req.NewPassword); err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, statusResponse{OK: true})
}
