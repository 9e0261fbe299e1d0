package repository

import (
	"context"
	"time"

	"github.com/Pilar-d/pendientes/domain"
)

type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes sessions that expired before the reference time
	// and reports how many were purged.
	DeleteExpired(ctx context.Context, reference time.Time) (int, error)
}
