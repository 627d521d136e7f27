package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/claude/liftlog/internal/models"
)

// SQLSTATE codes mapped onto the storage taxonomy.
const (
	pgUniqueViolation = "23505"
	// pgUndefinedTable means migrations have not run yet.
	pgUndefinedTable = "42P01"
)

// DB wraps a pgxpool.Pool and implements Store on PostgreSQL.
type DB struct {
	Pool *pgxpool.Pool
}

// Compile-time check: *DB satisfies Store.
var _ Store = (*DB)(nil)

// New creates a new DB with a connection pool and checks that it connects.
func New(ctx context.Context, dsn string) (*DB, error) {
	db, err := Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx); err != nil {
		db.Pool.Close()
		return nil, err
	}
	return db, nil
}

// Connect creates the pool without contacting the server. Connections are
// made on first use, so calls fail with ErrUnavailable until it is reachable.
func Connect(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w: %w", models.ErrUnavailable, err)
	}
	return nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// MigrateWhenReady retries RunMigrations every interval until it succeeds or
// ctx is done.
func MigrateWhenReady(ctx context.Context, dsn, migrationsPath string, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := RunMigrations(dsn, migrationsPath); err != nil {
			log.Warn("migrations pending", "error", err)
			continue
		}
		log.Info("migrations applied")
		return
	}
}

// pgError maps a pgx error onto the storage error taxonomy: unique
// violations become ErrDuplicateDate; connection failures and a missing
// schema become ErrUnavailable.
func pgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", op, models.ErrDuplicateDate)
		case pgUndefinedTable:
			return fmt.Errorf("%s: %w: %w", op, models.ErrUnavailable, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) || pgconn.Timeout(err) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%s: %w: %w", op, models.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
