package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

// SQLSTATE codes the repositories translate into domain errors.
var pgCodeErrors = map[string]error{
	"23505": domain.ErrAlreadyExists, // unique_violation
	"23503": domain.ErrNotFound,      // foreign_key_violation
	"23514": domain.ErrValidation,    // check_violation
	"23502": domain.ErrValidation,    // not_null_violation
	"40001": domain.ErrConflict,      // serialization_failure
	"40P01": domain.ErrConflict,      // deadlock_detected
}

// MapError converts pgx/pgconn errors to domain errors, prefixed with the
// entity and id. Context errors are wrapped but keep their identity.
func MapError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if mapped, ok := pgCodeErrors[pgErr.Code]; ok {
			if pgErr.ConstraintName != "" {
				return fmt.Errorf("%s %s (%s): %w", entity, id, pgErr.ConstraintName, mapped)
			}
			return fmt.Errorf("%s %s: %w", entity, id, mapped)
		}
		// statement_timeout from the pool config surfaces as query_canceled
		if pgErr.Code == "57014" {
			return fmt.Errorf("%s %s: statement timeout: %w", entity, id, err)
		}
	}

	return fmt.Errorf("%s %s: %w", entity, id, err)
}
