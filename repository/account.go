package repository

import (
	"context"

	"github.com/Pilar-d/pendientes/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	ExistsUsername(ctx context.Context, username string) (bool, error)
}
