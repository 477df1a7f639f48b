package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/config"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/logger"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/operations"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/storage"
	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

type stubReader struct {
	tags models.RawTags
}

func (s stubReader) ReadTags(_ context.Context, _ string) (models.RawTags, error) {
	return s.tags, nil
}

func newStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:", logger.NewNoOpLogger())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name string
		got  string
	}{
		{"image-metadata-extract", ImageMetadataExtractTool().Name},
		{"document-images-extract", DocumentImagesExtractTool().Name},
		{"record-export", RecordExportTool().Name},
		{"records-list", RecordsListTool().Name},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.name {
				t.Errorf("tool name = %q, want %q", tt.got, tt.name)
			}
		})
	}
}

func TestImageMetadataExtractToolHandler(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	log := logger.NewNoOpLogger()
	store := newStore(t)
	dir := t.TempDir()

	image := filepath.Join(dir, "sample01.tif")
	if err := os.WriteFile(image, []byte("II*\x00"), 0644); err != nil {
		t.Fatal(err)
	}
	side := filepath.Join(dir, "sample01.txt")
	if err := os.WriteFile(side, []byte("$CM_INSTRUMENT JEOL-7800\r\n$CM_DATE 2024/01/02\r\n"), 0644); err != nil {
		t.Fatal(err)
	}
	reader := stubReader{tags: models.RawTags{
		270:   "Quanta",
		34682: `<ns:Root xmlns:ns="urn:x"><ns:Detector>SE</ns:Detector><ns:Detector>BSE</ns:Detector></ns:Root>`,
	}}

	t.Run("embedded tags", func(t *testing.T) {
		out := t.TempDir()
		query := ImageMetadataExtractQuery{ImagePath: image, OutputPath: out}
		_, response, err := ImageMetadataExtractToolHandler(ctx, nil, query, reader, store, log)
		if err != nil {
			t.Fatalf("ImageMetadataExtractToolHandler failed: %v", err)
		}

		if response.Kind != models.KindImage {
			t.Errorf("kind = %q", response.Kind)
		}
		metadata, _ := response.Record["metadata"].(map[string]any)
		root, _ := metadata["34682"].(map[string]any)
		fields, _ := root["Root"].(map[string]any)
		detectors, _ := fields["Detector"].([]any)
		if len(detectors) != 2 || detectors[0] != "SE" || detectors[1] != "BSE" {
			t.Errorf("tag 34682 = %#v", metadata["34682"])
		}
		if len(response.ResourcePaths) != 2 || !strings.HasPrefix(response.ResourcePaths[0], "micrograph://") {
			t.Errorf("resource paths = %v", response.ResourcePaths)
		}
		if response.SavedTo != filepath.Join(out, "sample01_metadata.json") {
			t.Errorf("saved to %q", response.SavedTo)
		}
		if _, err := os.Stat(response.SavedTo); err != nil {
			t.Errorf("record file not written: %v", err)
		}
	})

	t.Run("sidecar", func(t *testing.T) {
		query := ImageMetadataExtractQuery{ImagePath: image, SidecarPath: side}
		_, response, err := ImageMetadataExtractToolHandler(ctx, nil, query, reader, store, log)
		if err != nil {
			t.Fatalf("ImageMetadataExtractToolHandler failed: %v", err)
		}
		if response.Record["image_file"] != "sample01_JEOL-7800_2024-01-02.tif" {
			t.Errorf("image_file = %#v", response.Record["image_file"])
		}
		if response.Record["date_taken"] != "2024-01-02" {
			t.Errorf("date_taken = %#v", response.Record["date_taken"])
		}
	})

	t.Run("no image", func(t *testing.T) {
		_, _, err := ImageMetadataExtractToolHandler(ctx, nil, ImageMetadataExtractQuery{SidecarPath: side}, reader, store, log)
		if !errors.Is(err, operations.ErrPrecondition) {
			t.Errorf("expected ErrPrecondition, got %v", err)
		}
	})

	t.Run("bad format", func(t *testing.T) {
		_, _, err := ImageMetadataExtractToolHandler(ctx, nil, ImageMetadataExtractQuery{ImagePath: image, Format: "xml"}, reader, store, log)
		if err == nil {
			t.Error("expected error for unsupported format")
		}
	})

	t.Run("list and export", func(t *testing.T) {
		_, list, err := RecordsListToolHandler(ctx, nil, RecordsListQuery{}, store, log)
		if err != nil {
			t.Fatalf("RecordsListToolHandler failed: %v", err)
		}
		if len(list.Records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(list.Records))
		}
		if len(list.DocumentRuns) != 0 {
			t.Errorf("expected no document runs, got %d", len(list.DocumentRuns))
		}

		_, filtered, err := RecordsListToolHandler(ctx, nil, RecordsListQuery{Kind: models.KindSidecar}, store, log)
		if err != nil {
			t.Fatal(err)
		}
		if len(filtered.Records) != 1 || filtered.Records[0].SidecarPath != side {
			t.Fatalf("filtered records = %+v", filtered.Records)
		}

		out := t.TempDir()
		query := RecordExportQuery{RecordID: filtered.Records[0].RecordID, OutputPath: out, Format: "yaml"}
		_, exported, err := RecordExportToolHandler(ctx, nil, query, store, log)
		if err != nil {
			t.Fatalf("RecordExportToolHandler failed: %v", err)
		}
		data, err := os.ReadFile(exported.Path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "machine: JEOL-7800") {
			t.Errorf("unexpected YAML:\n%s", data)
		}
	})
}

func TestRecordExportToolHandler_NotFound(t *testing.T) {
	store := newStore(t)
	_, _, err := RecordExportToolHandler(context.Background(), nil, RecordExportQuery{RecordID: "img_0"}, store, logger.NewNoOpLogger())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentImagesExtractToolHandler_Preconditions(t *testing.T) {
	store := newStore(t)
	log := logger.NewNoOpLogger()
	output := config.OutputConfig{SheetFormat: "csv", RecordFormat: "json"}

	tests := []struct {
		name  string
		query DocumentImagesExtractQuery
	}{
		{"no document", DocumentImagesExtractQuery{OutputDir: t.TempDir()}},
		{"no output folder", DocumentImagesExtractQuery{DocumentPath: "/docs/a.pdf"}},
		{"bad sheet format", DocumentImagesExtractQuery{DocumentPath: "/docs/a.pdf", OutputDir: t.TempDir(), SheetFormat: "xlsx"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DocumentImagesExtractToolHandler(context.Background(), nil, tt.query, output, store, log)
			if !errors.Is(err, operations.ErrPrecondition) {
				t.Errorf("expected ErrPrecondition, got %v", err)
			}
		})
	}
}
