// Package pdf opens PDF documents with pdfcpu and exposes the raster
// streams drawn on each page.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

// Document is a parsed and optimized PDF. Optimization is what builds the
// per-page image index pdfcpu extracts from.
type Document struct {
	ctx *model.Context
}

// Open reads the document at path fully into memory and parses it. The file
// handle is released before Open returns.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return Parse(data)
}

// Parse parses an in-memory PDF.
func Parse(data []byte) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	pdfContext, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}
	return &Document{ctx: pdfContext}, nil
}

func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// PageImages returns the raster streams used by page pageNr, ordered by
// object number. Page thumbnails are skipped.
func (d *Document) PageImages(ctx context.Context, pageNr int) ([]models.StreamImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found, err := pdfcpu.ExtractPageImages(d.ctx, pageNr, false)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}
	// only stubs carry the image dictionary attributes
	stubs, err := pdfcpu.ExtractPageImages(d.ctx, pageNr, true)
	if err != nil {
		return nil, fmt.Errorf("failed to read image attributes: %w", err)
	}

	objNrs := make([]int, 0, len(found))
	for objNr, img := range found {
		if img.Thumb {
			continue
		}
		objNrs = append(objNrs, objNr)
	}
	sort.Ints(objNrs)

	images := make([]models.StreamImage, 0, len(objNrs))
	for _, objNr := range objNrs {
		img := found[objNr]
		var data []byte
		if img.Reader != nil {
			data, err = io.ReadAll(img.Reader)
			if err != nil {
				return nil, fmt.Errorf("failed to read image object %d: %w", objNr, err)
			}
		}
		attrs := stubs[objNr]
		images = append(images, models.StreamImage{
			ObjectNumber:     objNr,
			Data:             data,
			Width:            attrs.Width,
			Height:           attrs.Height,
			ColorSpace:       attrs.Cs,
			BitsPerComponent: attrs.Bpc,
			Extension:        img.FileType,
		})
	}
	return images, nil
}
