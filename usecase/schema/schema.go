package schema

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Pilar-d/pendientes/domain"
)

type Migrator interface {
	Up(ctx context.Context) (uint, error)
	Version(ctx context.Context) (uint, bool, error)
	To(ctx context.Context, version uint) error
}

type Verifier interface {
	Verify(ctx context.Context) error
}

// UseCase keeps the live schema in step with the application. It only ever
// applies additive migrations; a schema it cannot bring up to date is reported
// as SCHEMA_MISMATCH and never repaired by dropping data.
type UseCase struct {
	migrator Migrator
	verifier Verifier
	logger   *zap.Logger
}

func New(migrator Migrator, verifier Verifier, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{migrator: migrator, verifier: verifier, logger: logger}
}

// Prepare runs at startup: it applies pending migrations when migrate is set
// and then checks every expected column is present.
func (uc *UseCase) Prepare(ctx context.Context, migrate bool) (uint, error) {
	if migrate {
		return uc.Upgrade(ctx)
	}
	version, dirty, err := uc.migrator.Version(ctx)
	if err != nil {
		return 0, domain.WrapError(domain.ErrCodeUnavailable, "read schema version", err)
	}
	if dirty {
		return version, domain.WrapError(domain.ErrCodeSchemaMismatch, domain.ErrSchemaMismatch.Message, errDirty(version))
	}
	if err := uc.verifier.Verify(ctx); err != nil {
		return version, err
	}
	return version, nil
}

// Upgrade applies pending migrations and re-verifies the schema.
func (uc *UseCase) Upgrade(ctx context.Context) (uint, error) {
	version, err := uc.migrator.Up(ctx)
	if err != nil {
		uc.logger.Error("schema migration failed", zap.Error(err))
		return version, domain.WrapError(domain.ErrCodeSchemaMismatch, domain.ErrSchemaMismatch.Message, err)
	}
	if err := uc.verifier.Verify(ctx); err != nil {
		uc.logger.Error("schema verification failed", zap.Uint("version", version), zap.Error(err))
		return version, err
	}
	uc.logger.Info("schema up to date", zap.Uint("version", version))
	return version, nil
}

// UpgradeTo migrates forward to target without verifying, since an
// intermediate version may lack columns the application needs. Targets below
// the current version are refused: down migrations drop columns.
func (uc *UseCase) UpgradeTo(ctx context.Context, target uint) (uint, error) {
	current, dirty, err := uc.migrator.Version(ctx)
	if err != nil {
		return 0, domain.WrapError(domain.ErrCodeUnavailable, "read schema version", err)
	}
	if dirty {
		return current, domain.WrapError(domain.ErrCodeSchemaMismatch, domain.ErrSchemaMismatch.Message, errDirty(current))
	}
	if target < current {
		return current, domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("refusing to migrate down from version %d to %d", current, target))
	}
	if err := uc.migrator.To(ctx, target); err != nil {
		uc.logger.Error("schema migration failed", zap.Uint("target", target), zap.Error(err))
		return current, domain.WrapError(domain.ErrCodeSchemaMismatch, domain.ErrSchemaMismatch.Message, err)
	}
	uc.logger.Info("schema migrated", zap.Uint("from", current), zap.Uint("version", target))
	return target, nil
}

type errDirty uint

func (e errDirty) Error() string {
	return fmt.Sprintf("schema version %d is dirty, a previous migration failed part way", uint(e))
}
