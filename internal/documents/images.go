package documents

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/logger"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/naming"
	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

// PageImageSource is an opened document that can list the raster streams
// drawn on each page. Pages are numbered from 1.
type PageImageSource interface {
	PageCount() int
	PageImages(ctx context.Context, pageNr int) ([]models.StreamImage, error)
}

// ImageExtractor writes every raster stream of a document into a fresh
// timestamped folder and records one sheet row per stream.
type ImageExtractor struct {
	sheet SheetWriter
	log   logger.Logger
	now   func() time.Time
}

func NewImageExtractor(sheet SheetWriter, log logger.Logger) *ImageExtractor {
	return &ImageExtractor{sheet: sheet, log: log, now: time.Now}
}

// Extract runs one pass over src. The pass is all-or-nothing: on any failure
// the extraction folder is removed again if this call created it, and a
// single error naming the document is returned.
func (e *ImageExtractor) Extract(ctx context.Context, src PageImageSource, documentPath, outputDir string) (*models.DocumentExtraction, error) {
	dir := filepath.Join(outputDir, naming.ExtractionDirName(e.now()))

	created := false
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		created = true
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to extract images from %s: failed to create output folder: %w", documentPath, err)
	}

	result, err := e.extract(ctx, src, documentPath, dir)
	if err != nil {
		if created {
			err = multierr.Append(err, os.RemoveAll(dir))
		}
		return nil, fmt.Errorf("failed to extract images from %s: %w", documentPath, err)
	}
	return result, nil
}

func (e *ImageExtractor) extract(ctx context.Context, src PageImageSource, documentPath, dir string) (*models.DocumentExtraction, error) {
	rows := []models.ImageStreamRecord{}

	for pageNr := 1; pageNr <= src.PageCount(); pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		images, err := src.PageImages(ctx, pageNr)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNr, err)
		}

		for i, img := range images {
			row, err := writeStream(dir, pageNr, i+1, img)
			if err != nil {
				return nil, fmt.Errorf("page %d image %d: %w", pageNr, i+1, err)
			}
			rows = append(rows, row)
		}
		e.log.Debug("Page %d: %d images", pageNr, len(images))
	}

	sheetPath := filepath.Join(dir, e.sheet.Filename())
	if err := writeSheet(sheetPath, e.sheet, rows); err != nil {
		return nil, fmt.Errorf("failed to write image sheet: %w", err)
	}

	e.log.Info("Extracted %d images from %s into %s", len(rows), documentPath, dir)
	return &models.DocumentExtraction{
		Document:  documentPath,
		OutputDir: dir,
		SheetPath: sheetPath,
		Images:    rows,
	}, nil
}

func writeStream(dir string, pageNr, imageNr int, img models.StreamImage) (models.ImageStreamRecord, error) {
	ext := img.Extension
	if ext == "" {
		ext = "bin"
	}
	filename := naming.StreamFilename(pageNr, imageNr, ext)
	path := filepath.Join(dir, filename)

	if err := os.WriteFile(path, img.Data, 0644); err != nil {
		return models.ImageStreamRecord{}, err
	}

	return models.ImageStreamRecord{
		Page:             pageNr,
		ImageNumber:      imageNr,
		Filename:         filename,
		Width:            img.Width,
		Height:           img.Height,
		Extension:        ext,
		ColorSpace:       img.ColorSpace,
		BitsPerComponent: img.BitsPerComponent,
		FilePath:         path,
	}, nil
}

func writeSheet(path string, sheet SheetWriter, rows []models.ImageStreamRecord) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return sheet.Write(f, rows)
}
