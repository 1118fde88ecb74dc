package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccessToken is an opaque bearer token redeemable for the user's profile.
// Only the SHA-256 hash of the token is ever stored.
type AccessToken struct {
	ID            uuid.UUID  `json:"id"`
	TokenHash     string     `json:"-"`
	UserID        uuid.UUID  `json:"user_id"`
	ApplicationID uuid.UUID  `json:"application_id"`
	CodeCreatedAt time.Time  `json:"code_created_at"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty"`
}

// IsActiveAt reports whether the token may still be redeemed at now.
func (t *AccessToken) IsActiveAt(now time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	if t.ExpiresAt != nil && now.After(*t.ExpiresAt) {
		return false
	}
	return true
}
