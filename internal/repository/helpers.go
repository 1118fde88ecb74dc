package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

const uniqueViolationCode = "23505"

// isUniqueViolation checks if the error is a unique constraint violation
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, uniqueViolationCode) ||
		strings.Contains(errMsg, "duplicate key")
}

// rollback is deferred after Begin; it is a no-op once the tx is committed
func rollback(ctx context.Context, tx pgx.Tx) {
	_ = tx.Rollback(ctx)
}

func toVector(d domain.Descriptor) pgvector.Vector {
	floats := make([]float32, len(d))
	for i, v := range d {
		floats[i] = float32(v)
	}
	return pgvector.NewVector(floats)
}

func fromVector(v pgvector.Vector) domain.Descriptor {
	floats := v.Slice()
	d := make(domain.Descriptor, len(floats))
	for i, f := range floats {
		d[i] = float64(f)
	}
	return d
}

func validateDescriptor(d domain.Descriptor) error {
	if len(d) != domain.DescriptorSize {
		return fmt.Errorf("%w: descriptor must have %d dimensions, got %d",
			domain.ErrValidationFailed, domain.DescriptorSize, len(d))
	}
	return nil
}
