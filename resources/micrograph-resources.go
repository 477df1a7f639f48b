package resources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/storage"
)

// RecordResourceHandler serves stored extraction records and document runs
type RecordResourceHandler struct {
	store storage.Store
}

// NewRecordResourceHandler creates a new record resource handler
func NewRecordResourceHandler(store storage.Store) *RecordResourceHandler {
	return &RecordResourceHandler{store: store}
}

// ListResources returns one resource per stored record, record metadata and
// document run
func (h *RecordResourceHandler) ListResources(ctx context.Context) ([]*mcp.Resource, error) {
	records, err := h.store.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	var resources []*mcp.Resource
	for _, rec := range records {
		paths := storage.CalculateResourcePaths(rec.RecordID)
		resources = append(resources,
			&mcp.Resource{
				URI:         paths[0],
				Name:        fmt.Sprintf("%s (Record)", rec.Name),
				Description: fmt.Sprintf("Metadata record (%s) for %s", rec.Kind, rec.SourceInfo.ImagePath),
				MIMEType:    "application/json",
			},
			&mcp.Resource{
				URI:         paths[1],
				Name:        fmt.Sprintf("%s (Metadata)", rec.Name),
				Description: "Normalized tag dictionary or sidecar fields of the record",
				MIMEType:    "application/json",
			},
		)
	}

	runs, err := h.store.ListDocumentRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list document runs: %w", err)
	}
	for _, run := range runs {
		resources = append(resources, &mcp.Resource{
			URI:         storage.CalculateRunResourcePaths(run.RunID)[0],
			Name:        fmt.Sprintf("%s (Images)", run.Document),
			Description: fmt.Sprintf("%d images extracted into %s", run.ImageCount, run.OutputDir),
			MIMEType:    "application/json",
		})
	}

	return resources, nil
}

// ReadResource reads a specific resource by URI
func (h *RecordResourceHandler) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	var content string
	var err error

	switch {
	case strings.HasPrefix(uri, storage.RecordScheme+"://"):
		// micrograph://record_id[/metadata]
		path := strings.TrimPrefix(uri, storage.RecordScheme+"://")
		recordID, resourceType, _ := strings.Cut(path, "/")
		if recordID == "" {
			return nil, fmt.Errorf("invalid URI, missing record ID")
		}
		switch resourceType {
		case "":
			content, err = h.getRecord(ctx, recordID)
		case "metadata":
			content, err = h.getMetadata(ctx, recordID)
		default:
			return nil, fmt.Errorf("unknown resource type: %s", resourceType)
		}
	case strings.HasPrefix(uri, storage.DocumentImageScheme+"://"):
		runID := strings.TrimPrefix(uri, storage.DocumentImageScheme+"://")
		if runID == "" || strings.Contains(runID, "/") {
			return nil, fmt.Errorf("invalid URI, expected %s://run_id", storage.DocumentImageScheme)
		}
		content, err = h.getDocumentRun(ctx, runID)
	default:
		return nil, fmt.Errorf("invalid URI scheme, expected %s:// or %s://", storage.RecordScheme, storage.DocumentImageScheme)
	}

	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     content,
			},
		},
	}, nil
}

func (h *RecordResourceHandler) getRecord(ctx context.Context, recordID string) (string, error) {
	record, err := h.store.GetRecord(ctx, recordID)
	if err != nil {
		return "", err
	}

	data, err := marshalIndent(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	return string(data), nil
}

func (h *RecordResourceHandler) getMetadata(ctx context.Context, recordID string) (string, error) {
	record, err := h.store.GetRecord(ctx, recordID)
	if err != nil {
		return "", err
	}

	data, err := marshalIndent(record.Metadata())
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return string(data), nil
}

func (h *RecordResourceHandler) getDocumentRun(ctx context.Context, runID string) (string, error) {
	run, err := h.store.GetDocumentRun(ctx, runID)
	if err != nil {
		return "", err
	}

	result := map[string]interface{}{
		"run_id":      runID,
		"document":    run.Document,
		"output_dir":  run.OutputDir,
		"sheet_path":  run.SheetPath,
		"image_count": len(run.Images),
		"images":      run.Images,
	}

	data, err := marshalIndent(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document run: %w", err)
	}

	return string(data), nil
}

// marshalIndent keeps XML-derived text such as "<" readable.
func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
