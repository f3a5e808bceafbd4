package token

import (
	"time"

	"session-hub/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig holds JWT generation configuration.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// backendClaims are the claims carried by tokens the hub mints for
// downstream services after a successful login.
type backendClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Sid      string `json:"sid"`
	jwt.RegisteredClaims
}

// JWTIssuer generates signed HS256 tokens. Implements domain.TokenIssuer.
type JWTIssuer struct {
	cfg JWTConfig
}

// NewJWTIssuer creates a new JWT issuer.
func NewJWTIssuer(cfg JWTConfig) *JWTIssuer {
	return &JWTIssuer{cfg: cfg}
}

// IssueBackendToken signs a token for the given identity and local
// session ID.
func (j *JWTIssuer) IssueBackendToken(identity *domain.Identity, sessionID string) (string, error) {
	now := time.Now()
	claims := backendClaims{
		Username: identity.Username,
		Email:    identity.Email,
		Sid:      sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.cfg.Issuer,
			Audience:  jwt.ClaimStrings{j.cfg.Audience},
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.cfg.TTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.cfg.Secret))
	if err != nil {
		return "", domain.ErrTokenGeneration
	}
	return signed, nil
}
