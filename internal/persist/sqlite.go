package persist

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/moirai-app/moirai/migrations"
	"github.com/moirai-app/moirai/internal/store"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// SQLite persists snapshots in a single-row table inside a SQLite file.
// The aggregate is still written and restored as one unit; SQLite buys
// atomic replacement and a future home for per-collection tables without
// changing the gateway contract.
type SQLite struct {
	db  *sqlx.DB
	log *slog.Logger
}

// NewSQLite opens (or creates) the database at path and applies migrations.
func NewSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log := logger.With("component", "persist", "backend", "sqlite")

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite doesn't support concurrent writes, so max open conns = 1
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := applyMigrations(db.DB); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Error closing database after migration failure", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Info("Database connected and migrations applied", "path", path)
	return &SQLite{db: db, log: log}, nil
}

// Save upserts the snapshot row.
func (s *SQLite) Save(state store.State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO app_snapshot (id, payload, updated_at)
        VALUES (1, ?, ?)
        ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at;
    `
	if _, err := s.db.Exec(query, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save snapshot row: %w", err)
	}
	s.log.Debug("Snapshot written", "bytes", len(data))
	return nil
}

// Load restores the snapshot row; false when none exists yet.
func (s *SQLite) Load() (store.State, bool, error) {
	var payload string
	err := s.db.Get(&payload, `SELECT payload FROM app_snapshot WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		s.log.Info("No snapshot row found, starting fresh")
		return store.State{}, false, nil
	}
	if err != nil {
		return store.State{}, false, fmt.Errorf("failed to read snapshot row: %w", err)
	}

	st, err := Decode([]byte(payload))
	if err != nil {
		return store.State{}, false, err
	}
	s.log.Info("Snapshot restored", "messages", len(st.Messages))
	return st, true, nil
}

// Close closes the underlying connection pool.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func applyMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create embed source driver: %w", err)
	}

	dbDriver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite3 database driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
