package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

type AccessTokenRepository struct {
	pool PgxPool
}

func NewAccessTokenRepository(pool PgxPool) *AccessTokenRepository {
	return &AccessTokenRepository{pool: pool}
}

// ExchangeCode consumes the code identified by codeHash and stores token in
// the same transaction.
//
// The DELETE ... RETURNING is the serialization point: of two concurrent
// exchanges only one gets the row back, the other sees ErrAuthorizationCodeNotFound.
// An expired code is still consumed and ErrAuthorizationCodeExpired is returned.
// On success token is filled with the user, application and code creation
// time taken from the code row.
func (r *AccessTokenRepository) ExchangeCode(ctx context.Context, codeHash string, token *domain.AccessToken, now time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin exchange: %w", err)
	}
	defer rollback(ctx, tx)

	var code domain.AuthorizationCode
	err = tx.QueryRow(ctx, `
		DELETE FROM authorization_codes
		WHERE code_hash = $1
		RETURNING id, user_id, application_id, redirect_to, created_at, expires_at
	`, codeHash).Scan(
		&code.ID,
		&code.UserID,
		&code.ApplicationID,
		&code.RedirectTo,
		&code.CreatedAt,
		&code.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrAuthorizationCodeNotFound
	}
	if err != nil {
		return fmt.Errorf("consume authorization code: %w", err)
	}

	if !code.IsRedeemableAt(now) {
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit expired code removal: %w", err)
		}
		return domain.ErrAuthorizationCodeExpired
	}

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	token.UserID = code.UserID
	token.ApplicationID = code.ApplicationID
	token.CodeCreatedAt = code.CreatedAt
	token.CreatedAt = now

	_, err = tx.Exec(ctx, `
		INSERT INTO access_tokens (id, token_hash, user_id, application_id, code_created_at, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		token.ID,
		token.TokenHash,
		token.UserID,
		token.ApplicationID,
		token.CodeCreatedAt,
		token.CreatedAt,
		token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert access token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit exchange: %w", err)
	}

	return nil
}

func (r *AccessTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.AccessToken, error) {
	query := `
		SELECT id, token_hash, user_id, application_id, code_created_at, created_at, expires_at, revoked_at
		FROM access_tokens
		WHERE token_hash = $1
	`

	var token domain.AccessToken
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.TokenHash,
		&token.UserID,
		&token.ApplicationID,
		&token.CodeCreatedAt,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.RevokedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccessTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get access token: %w", err)
	}

	return &token, nil
}

// Revoke marks the token revoked. Revoking twice keeps the first timestamp.
func (r *AccessTokenRepository) Revoke(ctx context.Context, tokenHash string, at time.Time) (*domain.AccessToken, error) {
	query := `
		UPDATE access_tokens
		SET revoked_at = COALESCE(revoked_at, $2)
		WHERE token_hash = $1
		RETURNING id, user_id, application_id, code_created_at, created_at, expires_at, revoked_at
	`

	token := domain.AccessToken{TokenHash: tokenHash}
	err := r.pool.QueryRow(ctx, query, tokenHash, at).Scan(
		&token.ID,
		&token.UserID,
		&token.ApplicationID,
		&token.CodeCreatedAt,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.RevokedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccessTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("revoke access token: %w", err)
	}

	return &token, nil
}

// DeleteExpired removes tokens that expired before the given time. Tokens
// without expiration are kept.
func (r *AccessTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM access_tokens WHERE expires_at IS NOT NULL AND expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired access tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
