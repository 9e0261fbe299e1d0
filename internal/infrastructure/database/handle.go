package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Pilar-d/pendientes/domain"
	"github.com/Pilar-d/pendientes/internal/config"
)

// Handle owns the primary store connection for the configured driver. Exactly
// one of SQL (sqlite) or Pool (postgres) is set.
type Handle struct {
	Driver string
	SQL    *sql.DB
	Pool   *pgxpool.Pool
	logger *zap.Logger
}

// Open connects to the configured relational store.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Handle, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handle{Driver: cfg.Driver, logger: logger}

	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		h.SQL = db
		logger.Info("opened sqlite database", zap.String("path", cfg.Path))
	case config.DriverPostgres:
		pool, err := NewPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		h.Pool = pool
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	return h, nil
}

func (h *Handle) Ping(ctx context.Context) error {
	switch {
	case h == nil:
		return domain.ErrStoreUnavailable
	case h.Pool != nil:
		return h.Pool.Ping(ctx)
	case h.SQL != nil:
		return h.SQL.PingContext(ctx)
	default:
		return domain.ErrStoreUnavailable
	}
}

// Probe runs query and drains its rows, classifying failures.
func (h *Handle) Probe(ctx context.Context, query string) error {
	if h != nil && h.Pool != nil {
		rows, err := h.Pool.Query(ctx, query)
		if err != nil {
			return classifyProbeError(err)
		}
		for rows.Next() {
		}
		rows.Close()
		return classifyProbeError(rows.Err())
	}
	if h != nil && h.SQL != nil {
		return NewSQLProber(h.SQL).Probe(ctx, query)
	}
	return domain.ErrStoreUnavailable
}

func (h *Handle) Close() {
	if h == nil {
		return
	}
	if h.Pool != nil {
		h.Pool.Close()
	}
	if h.SQL != nil {
		_ = h.SQL.Close()
	}
	h.logger.Info("database closed", zap.String("driver", h.Driver))
}

// SQLProber probes through database/sql.
type SQLProber struct {
	db *sql.DB
}

func NewSQLProber(db *sql.DB) *SQLProber {
	return &SQLProber{db: db}
}

func (p *SQLProber) Probe(ctx context.Context, query string) error {
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return classifyProbeError(err)
	}
	defer rows.Close()
	for rows.Next() {
	}
	return classifyProbeError(rows.Err())
}

func classifyProbeError(err error) error {
	if err == nil {
		return nil
	}
	if IsMissingSchema(err) {
		return domain.WrapError(domain.ErrCodeSchemaMismatch, domain.ErrSchemaMismatch.Message, err)
	}
	return domain.WrapError(domain.ErrCodeUnavailable, domain.ErrStoreUnavailable.Message, err)
}

// IsMissingSchema reports whether err comes from a missing table or column.
func IsMissingSchema(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42703" || pgErr.Code == "42P01"
	}
	msg := err.Error()
	return strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "has no column named")
}
