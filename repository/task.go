package repository

import (
	"context"

	"github.com/Pilar-d/pendientes/domain"
)

// TaskFilter scopes a listing to one account. Query is matched
// case-insensitively against title and description.
type TaskFilter struct {
	AccountID int64
	Query     string
	Sort      domain.SortOrder
}

type TaskRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id int64) error
}
