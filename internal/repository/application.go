package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

type ApplicationRepository struct {
	pool PgxPool
}

func NewApplicationRepository(pool PgxPool) *ApplicationRepository {
	return &ApplicationRepository{pool: pool}
}

// GetByID returns the application only when its owner still exists
func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	query := `
		SELECT a.id, a.name, a.domain, a.redirect_url, a.owner_id, a.client_secret_hash, a.created_at
		FROM applications a
		INNER JOIN users u ON u.id = a.owner_id
		WHERE a.id = $1
	`

	var app domain.Application
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&app.ID,
		&app.Name,
		&app.Domain,
		&app.RedirectURL,
		&app.OwnerID,
		&app.SecretHash,
		&app.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get application by id: %w", err)
	}

	return &app, nil
}

func (r *ApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	query := `
		INSERT INTO applications (id, name, domain, redirect_url, owner_id, client_secret_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`

	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		app.ID,
		app.Name,
		app.Domain,
		app.RedirectURL,
		app.OwnerID,
		app.SecretHash,
	).Scan(&app.CreatedAt)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}

	return nil
}
