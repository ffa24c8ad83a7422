package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteBlob stores objects in a SQLite table keyed by bucket and key.
type SQLiteBlob struct {
	db     *sql.DB
	bucket string
}

// NewSQLiteBlob creates a SQLite-backed blob store for bucket at dsn.
func NewSQLiteBlob(dsn, bucket string) (*SQLiteBlob, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteBlob{db: db, bucket: bucket}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the blobs table if it doesn't exist.
func (s *SQLiteBlob) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blobs (
		bucket TEXT NOT NULL,
		key TEXT NOT NULL,
		data BLOB NOT NULL,
		content_type TEXT NOT NULL,
		cache_control TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (bucket, key)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteBlob) Close() error {
	return s.db.Close()
}

// Put replaces the object under key in a single statement.
func (s *SQLiteBlob) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	query := `
		INSERT OR REPLACE INTO blobs (bucket, key, data, content_type, cache_control, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		s.bucket, key, data,
		opts.ContentType, opts.CacheControl,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to store object: %w", err)
	}
	return nil
}

// Get reads the object under key.
func (s *SQLiteBlob) Get(ctx context.Context, key string) (*Object, error) {
	query := `
		SELECT data, content_type, cache_control, updated_at
		FROM blobs
		WHERE bucket = ? AND key = ?
	`

	var obj Object
	var updatedAt string
	err := s.db.QueryRowContext(ctx, query, s.bucket, key).Scan(
		&obj.Data, &obj.Options.ContentType, &obj.Options.CacheControl, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query object: %w", err)
	}

	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		obj.UpdatedAt = t
	}

	return &obj, nil
}
