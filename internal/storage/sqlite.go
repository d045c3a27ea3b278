package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the snapshot in a SQLite database. Save replaces every
// row inside one transaction, which gives the same all-or-nothing visibility
// as the file store and lets several processes share one database.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	db, err := s.getDB()
	if err != nil {
		return Snapshot{}, err
	}

	var (
		snapshot Snapshot
		savedAt  int64
	)
	err = db.QueryRowContext(ctx, `
		SELECT schema_version, codec_version, writer_id, saved_at
		FROM checkpoint_meta WHERE id = 1
	`).Scan(&snapshot.SchemaVersion, &snapshot.CodecVersion, &snapshot.WriterID, &savedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrNoCheckpoint
		}
		return Snapshot{}, err
	}
	if err := checkVersion(snapshot.VersionedRecord); err != nil {
		return Snapshot{}, err
	}
	snapshot.SavedAt = time.UnixMilli(savedAt).UTC()

	rows, err := db.QueryContext(ctx, `SELECT key, payload FROM checkpoint_entries ORDER BY position`)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key     string
			payload []byte
		)
		if err := rows.Scan(&key, &payload); err != nil {
			return Snapshot{}, err
		}
		entry, err := DecodeEntry(payload)
		if err != nil {
			return Snapshot{}, fmt.Errorf("decode entry %s: %w", key, err)
		}
		if entry.Evaluation.Key() != key {
			return Snapshot{}, fmt.Errorf("%w: entry key %s does not match its evaluation", ErrCheckpointCorrupt, key)
		}
		snapshot.Entries = append(snapshot.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snapshot Snapshot) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM checkpoint_entries`); err != nil {
		return err
	}
	for i, entry := range snapshot.Entries {
		payload, err := EncodeEntry(entry)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO checkpoint_entries (key, position, payload)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				position = excluded.position,
				payload = excluded.payload
		`, entry.Evaluation.Key(), i, payload); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO checkpoint_meta (id, schema_version, codec_version, writer_id, saved_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			writer_id = excluded.writer_id,
			saved_at = excluded.saved_at
	`, snapshot.SchemaVersion, snapshot.CodecVersion, snapshot.WriterID, snapshot.SavedAt.UnixMilli()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS checkpoint_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			writer_id TEXT NOT NULL,
			saved_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS checkpoint_entries (
			key TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
