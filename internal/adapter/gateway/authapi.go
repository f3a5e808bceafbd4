package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"session-hub/internal/domain"
)

// AuthAPIGateway implements domain.AuthGateway against the remote auth API.
// All four operations are one-shot JSON POSTs with no retry and no caching.
type AuthAPIGateway struct {
	baseURL    string
	httpClient *http.Client
}

// NewAuthAPIGateway creates a new auth API gateway with tuned HTTP transport.
func NewAuthAPIGateway(baseURL string, timeout time.Duration) *AuthAPIGateway {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	return &AuthAPIGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginUser struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  loginUser `json:"user"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	VerifyCode  string `json:"verifyCode"`
	NewPassword string `json:"newPassword"`
}

// remoteErrorBody is the error shape the auth API returns on failure.
// Some deployments use "message", older ones "error".
type remoteErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Login submits credentials and returns the issued token and identity.
func (g *AuthAPIGateway) Login(ctx context.Context, username, password string) (*domain.LoginResult, error) {
	var out loginResponse
	err := g.post(ctx, "/auth/login", loginRequest{Username: username, Password: password},
		&out, "login", domain.ErrAuthenticationFailed)
	if err != nil {
		return nil, err
	}

	if out.Token == "" {
		return nil, &domain.RemoteError{
			Op:      "login",
			Message: "missing token in response",
			Err:     domain.ErrAuthenticationFailed,
		}
	}

	return &domain.LoginResult{
		Token: out.Token,
		Identity: domain.Identity{
			ID:        out.User.ID,
			Username:  out.User.Username,
			Email:     out.User.Email,
			LastLogin: out.User.LastLogin,
		},
	}, nil
}

// Register creates a new account. No payload is expected on success.
func (g *AuthAPIGateway) Register(ctx context.Context, username, password, email string) error {
	return g.post(ctx, "/auth/register",
		registerRequest{Username: username, Password: password, Email: email},
		nil, "register", domain.ErrRegistrationRejected)
}

// RequestPasswordReset asks the auth API to deliver a one-time
// verification code out-of-band to the given address.
func (g *AuthAPIGateway) RequestPasswordReset(ctx context.Context, email string) error {
	return g.post(ctx, "/auth/forgot-password",
		forgotPasswordRequest{Email: email},
		nil, "request password reset", domain.ErrResetRequestFailed)
}

// ConfirmPasswordReset finalizes a reset with the delivered code.
func (g *AuthAPIGateway) ConfirmPasswordReset(ctx context.Context, email, verifyCode, newPassword string) error {
	return g.post(ctx, "/auth/reset-password",
		resetPasswordRequest{Email: email, VerifyCode: verifyCode, NewPassword: newPassword},
		nil, "confirm password reset", domain.ErrResetConfirmFailed)
}

// post sends one JSON request. Non-2xx responses come back as a
// RemoteError wrapping sentinel; transport failures wrap
// domain.ErrAuthServiceUnavailable.
func (g *AuthAPIGateway) post(ctx context.Context, path string, body, out any, op string, sentinel error) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAuthServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &domain.RemoteError{
			Op:      op,
			Status:  resp.StatusCode,
			Message: decodeRemoteMessage(resp),
			Err:     sentinel,
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode %s response: %w", domain.ErrAuthServiceUnavailable, op, err)
		}
	}
	return nil
}

func decodeRemoteMessage(resp *http.Response) string {
	var body remoteErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
