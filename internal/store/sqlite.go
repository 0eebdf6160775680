// ABOUTME: SQLite implementation of the Store interfaces using modernc.org/sqlite
// ABOUTME: Provides parameter and connection persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS parameters (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			secret INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS connections (
			connection_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			connected_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_connections_expires
			ON connections(expires_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetParameter retrieves a parameter value by name.
// Secret parameters are only returned when decrypt is true; requesting a
// secret without decryption behaves as if the parameter does not exist.
func (s *SQLiteStore) GetParameter(ctx context.Context, name string, decrypt bool) (string, error) {
	var value string
	var secret bool
	err := s.db.QueryRowContext(ctx,
		"SELECT value, secret FROM parameters WHERE name = ?", name,
	).Scan(&value, &secret)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying parameter %q: %w", name, err)
	}

	if secret && !decrypt {
		return "", ErrNotFound
	}
	return value, nil
}

// PutParameter creates or replaces a parameter.
func (s *SQLiteStore) PutParameter(ctx context.Context, p *Parameter) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parameters (name, value, secret, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			secret = excluded.secret,
			updated_at = excluded.updated_at
	`, p.Name, p.Value, p.Secret, p.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upserting parameter %q: %w", p.Name, err)
	}

	s.logger.Debug("stored parameter", "name", p.Name, "secret", p.Secret)
	return nil
}

// PutConnection persists a connection record, replacing any existing record
// with the same connection id.
func (s *SQLiteStore) PutConnection(ctx context.Context, conn *Connection) error {
	if conn.ID == "" {
		return fmt.Errorf("connection id is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO connections (connection_id, session_id, connected_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, conn.ID, conn.SessionID,
		conn.ConnectedAt.UTC().Format(time.RFC3339),
		conn.ExpiresAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting connection %q: %w", conn.ID, err)
	}

	s.logger.Debug("stored connection", "connection_id", conn.ID, "session_id", conn.SessionID)
	return nil
}

// GetConnection retrieves a connection by id.
// Expired connections are deleted on read and reported as ErrNotFound.
func (s *SQLiteStore) GetConnection(ctx context.Context, id string) (*Connection, error) {
	var conn Connection
	var connectedAt, expiresAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT connection_id, session_id, connected_at, expires_at
		FROM connections WHERE connection_id = ?
	`, id).Scan(&conn.ID, &conn.SessionID, &connectedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying connection %q: %w", id, err)
	}

	conn.ConnectedAt, err = time.Parse(time.RFC3339, connectedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing connected_at for %q: %w", id, err)
	}
	conn.ExpiresAt, err = time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("parsing expires_at for %q: %w", id, err)
	}

	if time.Now().After(conn.ExpiresAt) {
		if err := s.DeleteConnection(ctx, id); err != nil {
			s.logger.Warn("failed to delete expired connection", "connection_id", id, "error", err)
		}
		return nil, ErrNotFound
	}

	return &conn, nil
}

// DeleteConnection removes a connection record. Deleting an unknown
// connection is not an error.
func (s *SQLiteStore) DeleteConnection(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM connections WHERE connection_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting connection %q: %w", id, err)
	}
	return nil
}

// PurgeExpiredConnections deletes all records whose TTL has passed and
// returns the number removed.
func (s *SQLiteStore) PurgeExpiredConnections(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM connections WHERE expires_at < ?",
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("purging expired connections: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("purged expired connections", "count", n)
	}
	return int(n), nil
}
