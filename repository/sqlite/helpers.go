package sqlite

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Pilar-d/pendientes/domain"
	"github.com/Pilar-d/pendientes/internal/infrastructure/database"
)

// timeLayout is fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(timeLayout, raw)
}

func formatDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(domain.DateLayout)
}

func parseDate(raw sql.NullString) (*time.Time, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(domain.DateLayout, raw.String, time.UTC)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
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
