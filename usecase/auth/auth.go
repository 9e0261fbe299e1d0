package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Pilar-d/pendientes/domain"
	"github.com/Pilar-d/pendientes/repository"
)

// dummyHash is compared against when the username is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("pendientes-dummy-password"), bcrypt.DefaultCost)

type UseCase struct {
	accounts repository.AccountRepository
	sessions repository.SessionRepository
	ttl      time.Duration
	cost     int
	now      func() time.Time
	logger   *zap.Logger
}

type Option func(*UseCase)

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(uc *UseCase) { uc.cost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) { uc.now = now }
}

func New(accounts repository.AccountRepository, sessions repository.SessionRepository, ttl time.Duration, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	uc := &UseCase{
		accounts: accounts,
		sessions: sessions,
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Register creates an account with a hashed password and returns its id.
func (uc *UseCase) Register(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, domain.NewError(domain.ErrCodeInvalid, "username and password are required")
	}
	if err := domain.CheckLength("username", username, domain.MaxUsernameLength); err != nil {
		return 0, err
	}

	exists, err := uc.accounts.ExistsUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, domain.ErrDuplicateUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.cost)
	if err != nil {
		return 0, domain.WrapError(domain.ErrCodeInternal, "hash password", err)
	}

	account, err := uc.accounts.Create(ctx, &domain.Account{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    uc.now().UTC(),
	})
	if err != nil {
		return 0, err
	}

	uc.logger.Info("account registered", zap.Int64("account_id", account.ID))
	return account.ID, nil
}

// Authenticate returns the account when the credentials match.
func (uc *UseCase) Authenticate(ctx context.Context, username, password string) (*domain.Account, error) {
	account, err := uc.accounts.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return account, nil
}

func (uc *UseCase) CreateSession(ctx context.Context, account *domain.Account) (*domain.Session, error) {
	if account == nil {
		return nil, domain.ErrInvalidPayload
	}
	now := uc.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Username:  account.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.ttl),
	}

	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Login authenticates and opens a session in one step.
func (uc *UseCase) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	account, err := uc.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return uc.CreateSession(ctx, account)
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(uc.now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}

	// The account may have been removed since login.
	account, err := uc.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			_ = uc.sessions.Delete(ctx, sessionID)
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	session.Username = account.Username
	return session, nil
}

func (uc *UseCase) RevokeSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return uc.sessions.Delete(ctx, sessionID)
}

// PurgeExpired removes sessions that are past their expiry.
func (uc *UseCase) PurgeExpired(ctx context.Context) (int, error) {
	return uc.sessions.DeleteExpired(ctx, uc.now())
}
