package operations

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/logger"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/naming"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/normalize"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/records"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/sidecar"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/storage"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/tagreader"
	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

// ErrPrecondition marks a malformed request that was rejected before any
// extraction work started.
var ErrPrecondition = errors.New("invalid request")

// ImageRequest selects the inputs of one image extraction. SidecarPath is
// optional; when set, the record is built from the sidecar instead of the
// embedded tags.
type ImageRequest struct {
	ImagePath   string
	SidecarPath string
}

// ImageResult is the outcome of one image extraction.
type ImageResult struct {
	RecordID   string
	Record     models.ExtractionRecord
	SourceInfo models.SourceInfo
	// FailedTags lists the tags that were degraded to null
	FailedTags []string
}

// Validate checks the request before any file is touched.
func (r ImageRequest) Validate() error {
	if r.ImagePath == "" {
		if r.SidecarPath != "" {
			return fmt.Errorf("%w: a sidecar file was given without an image", ErrPrecondition)
		}
		return fmt.Errorf("%w: no image selected", ErrPrecondition)
	}
	if !tagreader.IsSupported(r.ImagePath) {
		return fmt.Errorf("%w: %s is not a supported image (%v)", ErrPrecondition, r.ImagePath, tagreader.SupportedExtensions)
	}
	return nil
}

// ExtractImage builds the metadata record for one micrograph and, when
// store is non-nil, saves it under a stable record ID.
//
// Parameters:
//   - ctx: Context for cancellation
//   - req: The image and optional sidecar to extract from
//   - reader: Container tag reader, only used when no sidecar is given
//   - store: Optional storage backend; nil skips persistence
//   - log: Logger for progress and degraded tags
//
// Returns:
//   - result: The assembled record with its ID and source paths
//   - error: ErrPrecondition for a malformed request, otherwise an error
//     naming the offending input
func ExtractImage(ctx context.Context, req ImageRequest, reader tagreader.Reader, store storage.Store, log logger.Logger) (*ImageResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result := &ImageResult{
		SourceInfo: models.SourceInfo{ImagePath: req.ImagePath, SidecarPath: req.SidecarPath},
	}

	if req.SidecarPath != "" {
		result.Record = records.FromSidecar(req.ImagePath, req.SidecarPath)
		result.RecordID = naming.RecordID(naming.SidecarRecordPrefix, req.ImagePath, req.SidecarPath)
		if sidecar.Failed(result.Record.Sidecar.Metadata) {
			log.Warn("Sidecar %s could not be read: %s", req.SidecarPath, result.Record.Sidecar.Metadata[sidecar.ErrorKey])
		}
	} else {
		if _, err := os.Stat(req.ImagePath); err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", req.ImagePath, err)
		}
		raw, err := reader.ReadTags(ctx, req.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read tags from %s: %w", req.ImagePath, err)
		}

		normalized := normalize.NormalizeTags(raw, log)
		if normalized.Err != nil {
			log.Warn("%d of %d tags in %s degraded to null", len(normalized.Failed), len(normalized.Tags), req.ImagePath)
		}
		result.Record = records.FromImage(req.ImagePath, normalized.Tags)
		result.RecordID = naming.RecordID(naming.ImageRecordPrefix, req.ImagePath)
		result.FailedTags = normalized.Failed
	}

	if store != nil {
		if exists, err := store.RecordExists(ctx, result.RecordID); err == nil && exists {
			log.Debug("Replacing stored record %s", result.RecordID)
		}
		if err := store.StoreRecord(ctx, result.RecordID, result.Record, result.SourceInfo); err != nil {
			return nil, fmt.Errorf("failed to store record for %s: %w", req.ImagePath, err)
		}
	}

	log.Info("Extracted %s record %s from %s", result.Record.Kind(), result.RecordID, req.ImagePath)
	return result, nil
}
