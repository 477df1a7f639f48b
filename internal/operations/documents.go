package operations

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/documents"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/logger"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/naming"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/pdf"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/storage"
	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

// DocumentRequest selects the document whose images are extracted and the
// folder the timestamped extraction folder is created in.
type DocumentRequest struct {
	DocumentPath string
	OutputDir    string
	// SheetFormat is "csv" (default) or "parquet"
	SheetFormat string
}

// DocumentResult is the outcome of one document pass.
type DocumentResult struct {
	RunID      string
	Extraction *models.DocumentExtraction
}

func (r DocumentRequest) Validate() error {
	if r.DocumentPath == "" {
		return fmt.Errorf("%w: no document selected", ErrPrecondition)
	}
	if r.OutputDir == "" {
		return fmt.Errorf("%w: no output folder selected", ErrPrecondition)
	}
	if _, err := documents.NewSheetWriter(r.SheetFormat); err != nil {
		return fmt.Errorf("%w: %v", ErrPrecondition, err)
	}
	return nil
}

// ExtractDocument saves every raster stream of a PDF into a new
// Extracted_Images_<timestamp> folder under req.OutputDir together with the
// image metadata sheet. The pass is all-or-nothing. When store is non-nil
// the run is saved so it can be listed and read back later.
func ExtractDocument(ctx context.Context, req DocumentRequest, store storage.Store, log logger.Logger) (*DocumentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(req.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", req.DocumentPath, err)
	}
	if !documents.IsPDF(data) {
		return nil, fmt.Errorf("failed to extract images from %s: unsupported document type %q",
			req.DocumentPath, documents.DetectDocumentType(data))
	}

	doc, err := pdf.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images from %s: %w", req.DocumentPath, err)
	}

	return extractDocument(ctx, req, doc, store, log)
}

func extractDocument(ctx context.Context, req DocumentRequest, src documents.PageImageSource, store storage.Store, log logger.Logger) (*DocumentResult, error) {
	sheet, err := documents.NewSheetWriter(req.SheetFormat)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	extraction, err := documents.NewImageExtractor(sheet, log).Extract(ctx, src, req.DocumentPath, req.OutputDir)
	if err != nil {
		return nil, err
	}

	result := &DocumentResult{
		RunID:      naming.RunID(req.DocumentPath, started),
		Extraction: extraction,
	}

	if store != nil {
		if err := store.StoreDocumentRun(ctx, result.RunID, extraction); err != nil {
			return nil, fmt.Errorf("failed to store document run for %s: %w", req.DocumentPath, err)
		}
	}

	return result, nil
}
