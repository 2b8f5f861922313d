package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// schemaVersion is the latest migration applied by openSQLite.
const schemaVersion = 1

// SQLiteStore keeps captures in a SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Debug().Str("path", path).Msg("store: sqlite ready")
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("store: read user_version: %w", err)
	}
	if version < 1 {
		const ddl = `
		CREATE TABLE IF NOT EXISTS captures (
		  id         BLOB PRIMARY KEY,
		  name       TEXT NOT NULL,
		  data       BLOB NOT NULL,
		  created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_captures_name ON captures(name, id);
		`
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("store: migration 1: %w", err)
		}
	}
	if version < schemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", schemaVersion)); err != nil {
			return fmt.Errorf("store: set user_version: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Captures(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, length(data), created_at
		FROM captures
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list captures: %w", err)
	}
	defer rows.Close()

	var list []Info
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list captures: %w", err)
	}
	return list, nil
}

func (s *SQLiteStore) Capture(ctx context.Context, id binary.ID) (*Capture, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, length(data), created_at, data
		FROM captures
		WHERE id = ?
	`, id[:])
	var (
		c       Capture
		raw     []byte
		created int64
	)
	if err := row.Scan(&raw, &c.Name, &c.Size, &created, &c.Data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCaptureNotFound, id)
		}
		return nil, fmt.Errorf("store: read capture %s: %w", id, err)
	}
	copy(c.ID[:], raw)
	c.CreatedAt = time.Unix(0, created).UTC()
	return &c, nil
}

func (s *SQLiteStore) Import(ctx context.Context, name string, data []byte) (Info, error) {
	name, err := validateImport(name, data)
	if err != nil {
		return Info{}, err
	}
	id := CaptureID(data)
	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO captures (id, name, data, created_at)
		VALUES (?, ?, ?, ?)
	`, id[:], name, data, now.UnixNano())
	if err != nil {
		return Info{}, fmt.Errorf("store: import %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		existing, err := s.Capture(ctx, id)
		if err != nil {
			return Info{}, err
		}
		return existing.Info, nil
	}
	return Info{ID: id, Name: name, Size: len(data), CreatedAt: now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(row scanner) (Info, error) {
	var (
		info    Info
		raw     []byte
		created int64
	)
	if err := row.Scan(&raw, &info.Name, &info.Size, &created); err != nil {
		return Info{}, fmt.Errorf("store: scan capture: %w", err)
	}
	if len(raw) != len(info.ID) {
		return Info{}, fmt.Errorf("store: capture id has %d bytes", len(raw))
	}
	copy(info.ID[:], raw)
	info.CreatedAt = time.Unix(0, created).UTC()
	return info, nil
}
