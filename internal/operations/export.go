package operations

import (
	"context"
	"fmt"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/export"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/storage"
)

// ExportRecord writes a stored record to target, which may be a file, an
// existing folder, or empty for <image-stem>_metadata.<ext> next to the
// source image. It returns the path written.
func ExportRecord(ctx context.Context, store storage.Store, recordID, target, format string) (string, error) {
	if recordID == "" {
		return "", fmt.Errorf("%w: no record selected", ErrPrecondition)
	}

	info, err := store.GetRecordInfo(ctx, recordID)
	if err != nil {
		return "", err
	}
	record, err := store.GetRecord(ctx, recordID)
	if err != nil {
		return "", err
	}

	path := export.ResolvePath(target, info.SourceInfo.ImagePath, format)
	if err := export.WriteRecord(path, *record, format); err != nil {
		return "", err
	}
	return path, nil
}
