package operations

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/logger"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/pdf/pdftest"
	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

type fakeDocument struct {
	pages [][]models.StreamImage
}

func (f *fakeDocument) PageCount() int { return len(f.pages) }

func (f *fakeDocument) PageImages(_ context.Context, pageNr int) ([]models.StreamImage, error) {
	return f.pages[pageNr-1], nil
}

func jpegStream(objNr, w, h int) models.StreamImage {
	return models.StreamImage{
		ObjectNumber:     objNr,
		Data:             []byte{0xFF, 0xD8, 0xFF, byte(objNr)},
		Width:            w,
		Height:           h,
		ColorSpace:       "DeviceRGB",
		BitsPerComponent: 8,
		Extension:        "jpg",
	}
}

func TestDocumentRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     DocumentRequest
		wantErr bool
	}{
		{"valid", DocumentRequest{DocumentPath: "a.pdf", OutputDir: "out"}, false},
		{"parquet", DocumentRequest{DocumentPath: "a.pdf", OutputDir: "out", SheetFormat: "parquet"}, false},
		{"no document", DocumentRequest{OutputDir: "out"}, true},
		{"no output folder", DocumentRequest{DocumentPath: "a.pdf"}, true},
		{"bad sheet format", DocumentRequest{DocumentPath: "a.pdf", OutputDir: "out", SheetFormat: "xlsx"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrPrecondition) {
				t.Errorf("expected ErrPrecondition, got %v", err)
			}
		})
	}
}

func TestExtractDocument_Stored(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()
	store := newTestStore(t)

	src := &fakeDocument{pages: [][]models.StreamImage{
		{jpegStream(5, 4, 3)},
		{jpegStream(9, 6, 5), jpegStream(12, 8, 2)},
	}}
	req := DocumentRequest{DocumentPath: "/docs/paper.pdf", OutputDir: out}

	result, err := extractDocument(ctx, req, src, store, logger.NewNoOpLogger())
	if err != nil {
		t.Fatalf("extractDocument failed: %v", err)
	}

	images := result.Extraction.Images
	want := [][2]int{{1, 1}, {2, 1}, {2, 2}}
	if len(images) != len(want) {
		t.Fatalf("expected %d images, got %d", len(want), len(images))
	}
	for i, img := range images {
		if img.Page != want[i][0] || img.ImageNumber != want[i][1] {
			t.Errorf("image %d = (%d,%d), want %v", i, img.Page, img.ImageNumber, want[i])
		}
	}

	entries, err := os.ReadDir(result.Extraction.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Errorf("expected 3 images and 1 sheet, got %d entries", len(entries))
	}
	if !strings.HasPrefix(filepath.Base(result.Extraction.OutputDir), "Extracted_Images_") {
		t.Errorf("OutputDir = %q", result.Extraction.OutputDir)
	}

	stored, err := store.GetDocumentRun(ctx, result.RunID)
	if err != nil {
		t.Fatalf("run not stored: %v", err)
	}
	if len(stored.Images) != 3 || stored.SheetPath != result.Extraction.SheetPath {
		t.Errorf("stored run = %+v", stored)
	}
}

func TestExtractDocument_PDF(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	out := t.TempDir()
	path := filepath.Join(dir, "figures.pdf")
	if err := os.WriteFile(path, pdftest.Sample(t), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := ExtractDocument(ctx, DocumentRequest{DocumentPath: path, OutputDir: out}, nil, logger.NewNoOpLogger())
	if err != nil {
		t.Fatalf("ExtractDocument failed: %v", err)
	}

	f, err := os.Open(result.Extraction.SheetPath)
	if err != nil {
		t.Fatalf("sheet not written: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	want := []struct {
		page, number, width, height string
	}{
		{"1", "1", "4", "3"},
		{"2", "1", "6", "5"},
		{"2", "2", "8", "2"},
	}
	if len(rows) != len(want)+1 {
		t.Fatalf("expected header plus %d rows, got %d", len(want), len(rows))
	}
	for i, w := range want {
		row := rows[i+1]
		if row[0] != w.page || row[1] != w.number || row[3] != w.width || row[4] != w.height {
			t.Errorf("row %d = %v, want page %s image %s %sx%s", i+1, row, w.page, w.number, w.width, w.height)
		}
		if row[6] != "DeviceRGB" || row[7] != "8" {
			t.Errorf("row %d color space/bpc = %q/%q", i+1, row[6], row[7])
		}
	}
}

func TestExtractDocument_Failures(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	log := logger.NewNoOpLogger()

	t.Run("precondition", func(t *testing.T) {
		_, err := ExtractDocument(context.Background(), DocumentRequest{OutputDir: out}, nil, log)
		if !errors.Is(err, ErrPrecondition) {
			t.Errorf("expected ErrPrecondition, got %v", err)
		}
	})

	t.Run("missing document", func(t *testing.T) {
		missing := filepath.Join(dir, "missing.pdf")
		_, err := ExtractDocument(context.Background(), DocumentRequest{DocumentPath: missing, OutputDir: out}, nil, log)
		if err == nil || errors.Is(err, ErrPrecondition) || !strings.Contains(err.Error(), missing) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("not a pdf", func(t *testing.T) {
		path := writeFile(t, dir, "notes.pdf", "just some text, not a document")
		_, err := ExtractDocument(context.Background(), DocumentRequest{DocumentPath: path, OutputDir: out}, nil, log)
		if err == nil || !strings.Contains(err.Error(), "unsupported document type") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("corrupt pdf", func(t *testing.T) {
		path := writeFile(t, dir, "broken.pdf", "%PDF-1.7\nthis is not a valid body\n%%EOF\n")
		_, err := ExtractDocument(context.Background(), DocumentRequest{DocumentPath: path, OutputDir: out}, nil, log)
		if err == nil || !strings.Contains(err.Error(), path) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("failed requests left %d entries in the output folder", len(entries))
	}
}
