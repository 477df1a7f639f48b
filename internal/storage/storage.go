package storage

import (
	"context"
	"errors"

	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

// ErrNotFound is wrapped by lookups for an unknown ID
var ErrNotFound = errors.New("not found")

// Store defines the interface for storing and retrieving extraction results
type Store interface {
	// StoreRecord stores an extraction record under id, replacing any
	// previous record with the same id
	StoreRecord(ctx context.Context, id string, record models.ExtractionRecord, sourceInfo models.SourceInfo) error

	// GetRecord retrieves a record by ID
	GetRecord(ctx context.Context, id string) (*models.ExtractionRecord, error)

	// GetRecordInfo retrieves the listing entry of a record, including the
	// paths it was extracted from
	GetRecordInfo(ctx context.Context, id string) (*models.RecordInfo, error)

	// RecordExists reports whether a record with id is stored
	RecordExists(ctx context.Context, id string) (bool, error)

	// ListRecords returns all stored records, newest first
	ListRecords(ctx context.Context) ([]models.RecordInfo, error)

	// DeleteRecord removes a record
	DeleteRecord(ctx context.Context, id string) error

	// StoreDocumentRun stores one document pass and its image rows
	StoreDocumentRun(ctx context.Context, runID string, run *models.DocumentExtraction) error

	// GetDocumentRun retrieves a document pass with its image rows in page order
	GetDocumentRun(ctx context.Context, runID string) (*models.DocumentExtraction, error)

	// ListDocumentRuns returns all stored document passes, newest first
	ListDocumentRuns(ctx context.Context) ([]models.DocumentRunInfo, error)

	// Close closes the database connection
	Close() error
}
