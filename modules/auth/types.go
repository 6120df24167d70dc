package auth

import (
	"github.com/example/task-manager/domain/apperror"
	domain "github.com/example/task-manager/domain/user"
)

// Service handlers report domain failures in the Fault field and return a
// nil error, so callers get the failure kind back intact.

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse carries a token pair, and for registration the new profile.
type TokenResponse struct {
	Tokens  *domain.TokenPair `json:"tokens,omitempty"`
	Profile *domain.Profile   `json:"profile,omitempty"`
	Fault   *apperror.Error   `json:"fault,omitempty"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid  bool            `json:"valid"`
	UserID string          `json:"user_id,omitempty"`
	Email  string          `json:"email,omitempty"`
	Fault  *apperror.Error `json:"fault,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse represents a get user response.
type GetUserResponse struct {
	Profile *domain.Profile `json:"profile,omitempty"`
	Fault   *apperror.Error `json:"fault,omitempty"`
}
