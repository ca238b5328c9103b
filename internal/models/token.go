package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthResult is returned by login and refresh: a signed access token, the
// opaque refresh token that replaces the previous one, and the user payload
// callers need without a second round-trip.
type AuthResult struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	User         *UserInfo `json:"user"`
}

type UserInfo struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
}
