package slot

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteSlot stores named documents in a SQLite database, one row per slot.
type SQLiteSlot struct {
	conn *sql.DB
	name string
}

// OpenSQLite opens (creating if needed) the database at dbPath, runs the
// schema migrations and returns the slot called name.
func OpenSQLite(dbPath, name string) (*SQLiteSlot, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)", dbPath)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	goose.SetLogger(goose.NopLogger())
	if err := goose.Up(conn, "migrations"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteSlot{conn: conn, name: name}, nil
}

func (s *SQLiteSlot) Read() ([]byte, error) {
	var data []byte
	err := s.conn.QueryRow(`SELECT value FROM slots WHERE name = ?`, s.name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("failed to read slot: %w", err)
	}
	return data, nil
}

// Write upserts the row; a single statement is atomic in SQLite.
func (s *SQLiteSlot) Write(data []byte) error {
	_, err := s.conn.Exec(
		`INSERT INTO slots (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.name, data, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to write slot: %w", err)
	}
	return nil
}

func (s *SQLiteSlot) Clear() error {
	if _, err := s.conn.Exec(`DELETE FROM slots WHERE name = ?`, s.name); err != nil {
		return fmt.Errorf("failed to clear slot: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteSlot) Close() error {
	return s.conn.Close()
}
