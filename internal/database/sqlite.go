package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mdx-go/internal/database/migrations"
	"mdx-go/internal/mdx"
	"mdx-go/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// recordColumns is the column list scanned into a model.MediaRecord.
const recordColumns = "id, volume, fullpath, media_type, content_hash, size, modified_at, indexed_at"

// SQLiteStore implements the mdx.Store interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite-backed store.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, path: ""}
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. Exported for tools and tests that need a properly configured
// connection. path can be a file path or ":memory:".
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The metadata cascade relies on foreign keys, which SQLite leaves OFF
	// by default for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Record lookups. All return (nil, nil) when nothing matches; when several
// rows match, SQLite decides which one comes back first.

func (s *SQLiteStore) FindByPath(fullpath string) (*model.MediaRecord, error) {
	return s.findRecord("fullpath = ?", fullpath)
}

func (s *SQLiteStore) FindByPathVolume(fullpath, volume string) (*model.MediaRecord, error) {
	return s.findRecord("fullpath = ? AND volume = ?", fullpath, volume)
}

func (s *SQLiteStore) FindByHash(hash string) (*model.MediaRecord, error) {
	return s.findRecord("content_hash = ?", hash)
}

func (s *SQLiteStore) FindBySize(size int64) (*model.MediaRecord, error) {
	return s.findRecord("size = ?", size)
}

func (s *SQLiteStore) FindByModifiedAt(t time.Time) (*model.MediaRecord, error) {
	return s.findRecord("modified_at = ?", t)
}

func (s *SQLiteStore) findRecord(where string, args ...any) (*model.MediaRecord, error) {
	query := "SELECT " + recordColumns + " FROM media_files WHERE " + where + " LIMIT 1"
	row := s.db.QueryRow(query, args...)

	var rec model.MediaRecord
	err := row.Scan(&rec.ID, &rec.Volume, &rec.Fullpath, &rec.MediaType,
		&rec.ContentHash, &rec.Size, &rec.ModifiedAt, &rec.IndexedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding record: %w", err)
	}
	return &rec, nil
}

// InsertRecord creates the record and its metadata row (if any) in one
// transaction so a crash cannot leave a record without its metadata.
func (s *SQLiteStore) InsertRecord(rec *model.MediaRecord, meta *model.Metadata) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO media_files (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Volume, rec.Fullpath, rec.MediaType,
		rec.ContentHash, rec.Size, rec.ModifiedAt, rec.IndexedAt)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}

	if meta != nil {
		if err := insertMetadata(tx, rec.ID, meta); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// UpdateRecord updates the mutable fields of an existing record in place
// (same id) and replaces the metadata wholesale, with no field-level merge.
func (s *SQLiteStore) UpdateRecord(rec *model.MediaRecord, meta *model.Metadata) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE media_files
		SET volume = ?, fullpath = ?, media_type = ?, content_hash = ?,
		    size = ?, modified_at = ?, indexed_at = ?
		WHERE id = ?`,
		rec.Volume, rec.Fullpath, rec.MediaType, rec.ContentHash,
		rec.Size, rec.ModifiedAt, rec.IndexedAt, rec.ID)
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no record with id %s", rec.ID)
	}

	if _, err := tx.Exec("DELETE FROM media_metadata WHERE file_id = ?", rec.ID); err != nil {
		return fmt.Errorf("clearing metadata: %w", err)
	}
	if meta != nil {
		if err := insertMetadata(tx, rec.ID, meta); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertMetadata(tx *sql.Tx, fileID string, meta *model.Metadata) error {
	_, err := tx.Exec(`INSERT INTO media_metadata
		(file_id, width, height, captured_at, camera_make, camera_model,
		 latitude, longitude, place_name, keywords, caption)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fileID, meta.Width, meta.Height, meta.CapturedAt, meta.CameraMake,
		meta.CameraModel, meta.Latitude, meta.Longitude, meta.PlaceName,
		meta.Keywords, meta.Caption)
	if err != nil {
		return fmt.Errorf("inserting metadata: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetMetadata(fileID string) (*model.Metadata, error) {
	row := s.db.QueryRow(`SELECT width, height, captured_at, camera_make,
		camera_model, latitude, longitude, place_name, keywords, caption
		FROM media_metadata WHERE file_id = ?`, fileID)

	var meta model.Metadata
	err := row.Scan(&meta.Width, &meta.Height, &meta.CapturedAt,
		&meta.CameraMake, &meta.CameraModel, &meta.Latitude, &meta.Longitude,
		&meta.PlaceName, &meta.Keywords, &meta.Caption)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding metadata: %w", err)
	}
	return &meta, nil
}

// Skip bookkeeping

func (s *SQLiteStore) RecordSkip(fullpath, reason string, at time.Time) error {
	_, err := s.db.Exec(`INSERT INTO skipped_files (fullpath, reason, skipped_at)
		VALUES (?, ?, ?)`, fullpath, reason, at)
	if err != nil {
		return fmt.Errorf("recording skip: %w", err)
	}
	return nil
}

// ListSkips returns the most recent skip rows, newest first. This exists
// for debugging; the indexing core never reads it.
func (s *SQLiteStore) ListSkips(limit int) ([]*model.SkippedFile, error) {
	rows, err := s.db.Query(`SELECT id, fullpath, reason, skipped_at
		FROM skipped_files ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing skips: %w", err)
	}
	defer rows.Close()

	var skips []*model.SkippedFile
	for rows.Next() {
		var skip model.SkippedFile
		if err := rows.Scan(&skip.ID, &skip.Fullpath, &skip.Reason, &skip.SkippedAt); err != nil {
			return nil, fmt.Errorf("scanning skip: %w", err)
		}
		skips = append(skips, &skip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing skips: %w", err)
	}
	return skips, nil
}

// Index operation tracking

func (s *SQLiteStore) CreateIndexOperation(operation, parameters string) (*model.IndexOperation, error) {
	startedAt := time.Now()
	res, err := s.db.Exec(`INSERT INTO index_operations (operation, parameters, started_at, status)
		VALUES (?, ?, ?, 'success')`, operation, parameters, startedAt)
	if err != nil {
		return nil, fmt.Errorf("creating index operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading operation id: %w", err)
	}
	return &model.IndexOperation{
		ID:         id,
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  startedAt,
		Status:     "success",
	}, nil
}

func (s *SQLiteStore) FinishIndexOperation(id int64, status string) error {
	_, err := s.db.Exec(`UPDATE index_operations SET finished_at = ?, status = ? WHERE id = ?`,
		sql.NullTime{Time: time.Now(), Valid: true}, status, id)
	if err != nil {
		return fmt.Errorf("finishing index operation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListIndexOperations(limit int) ([]*model.IndexOperation, error) {
	rows, err := s.db.Query(`SELECT id, operation, parameters, started_at, finished_at, status
		FROM index_operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing index operations: %w", err)
	}
	defer rows.Close()

	var ops []*model.IndexOperation
	for rows.Next() {
		var op model.IndexOperation
		err := rows.Scan(&op.ID, &op.Operation, &op.Parameters,
			&op.StartedAt, &op.FinishedAt, &op.Status)
		if err != nil {
			return nil, fmt.Errorf("scanning index operation: %w", err)
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing index operations: %w", err)
	}
	return ops, nil
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// MigrateUp applies all pending schema migrations.
func (s *SQLiteStore) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteStore implements mdx.Store
var _ mdx.Store = (*SQLiteStore)(nil)
