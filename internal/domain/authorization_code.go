package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuthorizationCode binds a single-use code to a user and an application.
//
// Two deadlines coexist on purpose. ExpiresAt is the nominal lifetime and acts
// as the retention horizon for cleanup; a code is only redeemable up to
// RedemptionDeadline, one quarter of that window after creation.
type AuthorizationCode struct {
	ID            uuid.UUID `json:"id"`
	CodeHash      string    `json:"-"`
	UserID        uuid.UUID `json:"user_id"`
	ApplicationID uuid.UUID `json:"application_id"`
	RedirectTo    string    `json:"redirect_to"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// RedemptionDeadline returns CreatedAt + (ExpiresAt - CreatedAt) / 4.
func (c *AuthorizationCode) RedemptionDeadline() time.Time {
	return c.CreatedAt.Add(c.ExpiresAt.Sub(c.CreatedAt) / 4)
}

// IsRedeemableAt is inclusive of the deadline itself.
func (c *AuthorizationCode) IsRedeemableAt(now time.Time) bool {
	return !now.After(c.RedemptionDeadline())
}
