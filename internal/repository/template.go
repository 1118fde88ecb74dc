package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

// TemplateRepository stores enrollment descriptors, one row per smile
type TemplateRepository struct {
	pool PgxPool
}

func NewTemplateRepository(pool PgxPool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

// ListAll loads every enrolled template grouped by user, ordered by user and
// sample index
func (r *TemplateRepository) ListAll(ctx context.Context) ([]domain.EnrolledTemplate, error) {
	query := `
		SELECT user_id, descriptor, created_at
		FROM face_templates
		ORDER BY user_id, sample_index
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []domain.EnrolledTemplate
	index := make(map[uuid.UUID]int)

	for rows.Next() {
		var (
			tpl    domain.EnrolledTemplate
			vector pgvector.Vector
		)
		if err := rows.Scan(&tpl.UserID, &vector, &tpl.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}

		i, ok := index[tpl.UserID]
		if !ok {
			i = len(templates)
			index[tpl.UserID] = i
			templates = append(templates, domain.EnrolledTemplate{UserID: tpl.UserID, CreatedAt: tpl.CreatedAt})
		}
		templates[i].Descriptors = append(templates[i].Descriptors, fromVector(vector))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}

	return templates, nil
}

func (r *TemplateRepository) ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM face_templates WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check templates: %w", err)
	}
	return exists, nil
}

// Create stores all samples of one enrollment atomically
func (r *TemplateRepository) Create(ctx context.Context, tpl *domain.EnrolledTemplate) error {
	if len(tpl.Descriptors) == 0 {
		return fmt.Errorf("%w: template has no descriptors", domain.ErrValidationFailed)
	}
	for _, d := range tpl.Descriptors {
		if err := validateDescriptor(d); err != nil {
			return err
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin template insert: %w", err)
	}
	defer rollback(ctx, tx)

	query := `
		INSERT INTO face_templates (id, user_id, sample_index, descriptor, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	tpl.CreatedAt = time.Now().UTC()

	for i, d := range tpl.Descriptors {
		if _, err := tx.Exec(ctx, query, uuid.New(), tpl.UserID, i, toVector(d), tpl.CreatedAt); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrTemplateExists
			}
			return fmt.Errorf("insert template sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTemplateExists
		}
		return fmt.Errorf("commit templates: %w", err)
	}

	return nil
}
