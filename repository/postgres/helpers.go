package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Pilar-d/pendientes/domain"
	"github.com/Pilar-d/pendientes/internal/infrastructure/database"
)

const uniqueViolation = "23505"

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// storeError classifies driver failures that are not already domain errors.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return err
	}
	if database.IsMissingSchema(err) {
		return domain.WrapError(domain.ErrCodeSchemaMismatch, domain.ErrSchemaMismatch.Message, err)
	}
	return domain.WrapError(domain.ErrCodeUnavailable, domain.ErrStoreUnavailable.Message, err)
}
