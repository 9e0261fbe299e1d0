package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/Pilar-d/pendientes/internal/config"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrator applies the embedded, versioned schema migrations for one driver.
// Migrations only ever add tables, columns and indexes; existing rows survive.
type Migrator struct {
	cfg    config.DatabaseConfig
	logger *zap.Logger
}

func NewMigrator(cfg config.DatabaseConfig, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{cfg: cfg, logger: logger}
}

// Up applies every pending migration and returns the resulting version.
func (m *Migrator) Up(ctx context.Context) (uint, error) {
	var version uint
	err := m.run(ctx, func(mg *migrate.Migrate) error {
		before, _, err := readVersion(mg)
		if err != nil {
			return err
		}
		if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		version, _, err = readVersion(mg)
		if err != nil {
			return err
		}
		if version != before {
			m.logger.Info("database migrations applied",
				zap.String("driver", m.cfg.Driver),
				zap.Uint("from", before),
				zap.Uint("to", version),
			)
		}
		return nil
	})
	return version, err
}

// Version reports the current schema version; zero means nothing applied yet.
func (m *Migrator) Version(ctx context.Context) (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := m.run(ctx, func(mg *migrate.Migrate) error {
		var err error
		version, dirty, err = readVersion(mg)
		return err
	})
	return version, dirty, err
}

// To migrates up or down to exactly version.
func (m *Migrator) To(ctx context.Context, version uint) error {
	return m.run(ctx, func(mg *migrate.Migrate) error {
		if err := mg.Migrate(version); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	})
}

func (m *Migrator) run(ctx context.Context, fn func(*migrate.Migrate) error) error {
	db, err := m.openDB()
	if err != nil {
		return err
	}
	// migrate.Close also closes db; a second Close is a no-op.
	defer db.Close()

	driver, name, err := m.driver(db)
	if err != nil {
		return err
	}

	src, err := iofs.New(migrationsFS, "migrations/"+m.cfg.Driver)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	mg, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer mg.Close()
	mg.Log = &migrateLogger{logger: m.logger}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			mg.GracefulStop <- true
		case <-done:
		}
	}()

	if err := fn(mg); err != nil {
		return fmt.Errorf("migrate %s: %w", m.cfg.Driver, err)
	}
	return ctx.Err()
}

func (m *Migrator) openDB() (*sql.DB, error) {
	switch m.cfg.Driver {
	case config.DriverSQLite:
		return OpenSQLite(m.cfg.Path)
	case config.DriverPostgres:
		db, err := sql.Open("postgres", m.cfg.PostgresURL())
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", m.cfg.Driver)
	}
}

func (m *Migrator) driver(db *sql.DB) (migratedb.Driver, string, error) {
	switch m.cfg.Driver {
	case config.DriverSQLite:
		drv, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
		return drv, "sqlite", err
	default:
		drv, err := migratepg.WithInstance(db, &migratepg.Config{})
		return drv, m.cfg.Name, err
	}
}

func readVersion(mg *migrate.Migrate) (uint, bool, error) {
	version, dirty, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

type migrateLogger struct {
	logger *zap.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *migrateLogger) Verbose() bool {
	return false
}
