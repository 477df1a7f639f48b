package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/logger"
	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db  *sql.DB
	log logger.Logger
}

// NewSQLiteStore creates a new SQLite store. dbPath may be ":memory:".
func NewSQLiteStore(dbPath string, log logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every pooled connection to ":memory:" would be a separate database
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, log: log}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database tables if they don't exist
func (s *SQLiteStore) initSchema() error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT,
		image_path TEXT,
		sidecar_path TEXT,
		data TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS document_runs (
		id TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		output_dir TEXT,
		sheet_path TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS document_images (
		run_id TEXT NOT NULL,
		page INTEGER NOT NULL,
		image_number INTEGER NOT NULL,
		filename TEXT,
		width INTEGER,
		height INTEGER,
		extension TEXT,
		color_space TEXT,
		bits_per_component INTEGER,
		file_path TEXT,
		PRIMARY KEY (run_id, page, image_number),
		FOREIGN KEY (run_id) REFERENCES document_runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_records_image_path ON records(image_path);
	CREATE INDEX IF NOT EXISTS idx_document_runs_document ON document_runs(document);
	`

	_, err := s.db.Exec(schema)
	return err
}

// StoreRecord stores an extraction record as JSON alongside its kind and
// source paths
func (s *SQLiteStore) StoreRecord(ctx context.Context, id string, record models.ExtractionRecord, sourceInfo models.SourceInfo) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO records (id, kind, name, image_path, sidecar_path, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, record.Kind(), recordName(record), sourceInfo.ImagePath, sourceInfo.SidecarPath,
		string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	s.log.Debug("Stored record %s (%s)", id, record.Kind())
	return nil
}

// GetRecord retrieves a record by ID
func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*models.ExtractionRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM records WHERE id = ?`, id).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("record %w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}

	var record models.ExtractionRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &record, nil
}

// GetRecordInfo retrieves the listing entry of a record
func (s *SQLiteStore) GetRecordInfo(ctx context.Context, id string) (*models.RecordInfo, error) {
	info := &models.RecordInfo{RecordID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT kind, name, image_path, sidecar_path, created_at FROM records WHERE id = ?
	`, id).Scan(&info.Kind, &info.Name, &info.SourceInfo.ImagePath, &info.SourceInfo.SidecarPath, &info.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("record %w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query record info: %w", err)
	}
	return info, nil
}

// RecordExists reports whether a record with id is stored
func (s *SQLiteStore) RecordExists(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check record existence: %w", err)
	}
	return count > 0, nil
}

// ListRecords returns all stored records, newest first
func (s *SQLiteStore) ListRecords(ctx context.Context) ([]models.RecordInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, name, image_path, sidecar_path, created_at
		FROM records
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.RecordInfo
	for rows.Next() {
		var info models.RecordInfo
		if err := rows.Scan(&info.RecordID, &info.Kind, &info.Name,
			&info.SourceInfo.ImagePath, &info.SourceInfo.SidecarPath, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// DeleteRecord removes a record
func (s *SQLiteStore) DeleteRecord(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("record %w: %s", ErrNotFound, id)
	}

	return nil
}

// StoreDocumentRun stores one document pass and its image rows
func (s *SQLiteStore) StoreDocumentRun(ctx context.Context, runID string, run *models.DocumentExtraction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_images WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to clear previous images: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO document_runs (id, document, output_dir, sheet_path, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, runID, run.Document, run.OutputDir, run.SheetPath, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert document run: %w", err)
	}

	for _, img := range run.Images {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO document_images (run_id, page, image_number, filename, width, height,
				extension, color_space, bits_per_component, file_path)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, runID, img.Page, img.ImageNumber, img.Filename, img.Width, img.Height,
			img.Extension, img.ColorSpace, img.BitsPerComponent, img.FilePath)
		if err != nil {
			return fmt.Errorf("failed to insert image page %d number %d: %w", img.Page, img.ImageNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.Debug("Stored document run %s with %d images", runID, len(run.Images))
	return nil
}

// GetDocumentRun retrieves a document pass with its image rows in page order
func (s *SQLiteStore) GetDocumentRun(ctx context.Context, runID string) (*models.DocumentExtraction, error) {
	run := &models.DocumentExtraction{Images: []models.ImageStreamRecord{}}
	err := s.db.QueryRowContext(ctx, `
		SELECT document, output_dir, sheet_path FROM document_runs WHERE id = ?
	`, runID).Scan(&run.Document, &run.OutputDir, &run.SheetPath)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document run %w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT page, image_number, filename, width, height, extension, color_space,
			bits_per_component, file_path
		FROM document_images
		WHERE run_id = ?
		ORDER BY page, image_number
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img models.ImageStreamRecord
		if err := rows.Scan(&img.Page, &img.ImageNumber, &img.Filename, &img.Width, &img.Height,
			&img.Extension, &img.ColorSpace, &img.BitsPerComponent, &img.FilePath); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		run.Images = append(run.Images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}

	return run, nil
}

// ListDocumentRuns returns all stored document passes, newest first
func (s *SQLiteStore) ListDocumentRuns(ctx context.Context) ([]models.DocumentRunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.document, r.output_dir, r.sheet_path, r.created_at, COUNT(i.run_id)
		FROM document_runs r
		LEFT JOIN document_images i ON i.run_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query document runs: %w", err)
	}
	defer rows.Close()

	var runs []models.DocumentRunInfo
	for rows.Next() {
		var info models.DocumentRunInfo
		if err := rows.Scan(&info.RunID, &info.Document, &info.OutputDir, &info.SheetPath,
			&info.CreatedAt, &info.ImageCount); err != nil {
			return nil, fmt.Errorf("failed to scan document run: %w", err)
		}
		runs = append(runs, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document runs: %w", err)
	}

	return runs, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// recordName is the human-facing name of a record: the image file name, or
// the composite identifier when a sidecar was used
func recordName(record models.ExtractionRecord) string {
	switch {
	case record.Sidecar != nil:
		return strings.TrimSuffix(record.Sidecar.ImageFile, ".tif")
	case record.Image != nil:
		return record.Image.Image
	}
	return ""
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
