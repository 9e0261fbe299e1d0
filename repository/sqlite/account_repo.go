package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Pilar-d/pendientes/domain"
	"github.com/Pilar-d/pendientes/repository"
)

type accountRepository struct {
	db *sql.DB
}

// NewAccountRepository returns a SQLite-backed implementation of AccountRepository.
func NewAccountRepository(db *sql.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if account == nil {
		return nil, domain.ErrInvalidPayload
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	const query = `
	INSERT INTO accounts (username, password_hash, created_at)
	VALUES (?, ?, ?)
	RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query,
		account.Username,
		account.PasswordHash,
		formatTime(account.CreatedAt),
	).Scan(&account.ID); err != nil {
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
	WHERE id = ?
	`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	const query = `
	SELECT id, username, password_hash, created_at
	FROM accounts
	WHERE username = ?
	`
	return scanAccount(r.db.QueryRowContext(ctx, query, username))
}

func (r *accountRepository) ExistsUsername(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM accounts WHERE username = ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, storeError(err)
	}
	return exists, nil
}

func scanAccount(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Account, error) {
	var (
		account   domain.Account
		createdAt string
	)
	if err := row.Scan(&account.ID, &account.Username, &account.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, storeError(err)
	}

	parsed, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	account.CreatedAt = parsed
	return &account, nil
}
