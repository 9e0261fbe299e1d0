package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Pilar-d/pendientes/domain"
	"github.com/Pilar-d/pendientes/repository"
)

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository instantiates a Postgres-backed account repository.
func NewAccountRepository(pool *pgxpool.Pool) repository.AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if account == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO accounts (username, password_hash, created_at)
	VALUES ($1, $2, COALESCE($3, NOW()))
	RETURNING id, created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		account.Username,
		account.PasswordHash,
		nullTime(account.CreatedAt),
	).Scan(&account.ID, &account.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateUsername
		}
		return nil, storeError(err)
	}
	return account, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	const query = `
		SELECT id, username, password_hash, created_at
		FROM accounts
		WHERE id = $1
	`
	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	const query = `
		SELECT id, username, password_hash, created_at
		FROM accounts
		WHERE username = $1
	`
	return scanAccount(r.pool.QueryRow(ctx, query, username))
}

func (r *accountRepository) ExistsUsername(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM accounts WHERE username = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, storeError(err)
	}
	return exists, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(&account.ID, &account.Username, &account.PasswordHash, &account.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, storeError(err)
	}
	return &account, nil
}
