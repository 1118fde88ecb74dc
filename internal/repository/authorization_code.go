package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

type AuthorizationCodeRepository struct {
	pool PgxPool
}

func NewAuthorizationCodeRepository(pool PgxPool) *AuthorizationCodeRepository {
	return &AuthorizationCodeRepository{pool: pool}
}

// Create stores a new code. Several live codes per (user, application) are allowed.
func (r *AuthorizationCodeRepository) Create(ctx context.Context, code *domain.AuthorizationCode) error {
	query := `
		INSERT INTO authorization_codes (id, code_hash, user_id, application_id, redirect_to, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, query,
		code.ID,
		code.CodeHash,
		code.UserID,
		code.ApplicationID,
		code.RedirectTo,
		code.CreatedAt,
		code.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create authorization code: %w", err)
	}

	return nil
}

// DeleteExpired removes codes whose expiration is before the given time
func (r *AuthorizationCodeRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM authorization_codes WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired authorization codes: %w", err)
	}
	return tag.RowsAffected(), nil
}
