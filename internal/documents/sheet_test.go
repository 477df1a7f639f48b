package documents

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

var sampleRows = []models.ImageStreamRecord{
	{Page: 1, ImageNumber: 1, Filename: "page1_img1.jpg", Width: 640, Height: 480, Extension: "jpg", ColorSpace: "DeviceRGB", BitsPerComponent: 8, FilePath: "/out/page1_img1.jpg"},
	{Page: 2, ImageNumber: 1, Filename: "page2_img1.png", Width: 32, Height: 16, Extension: "png", ColorSpace: "DeviceGray", BitsPerComponent: 1, FilePath: "/out/page2_img1.png"},
}

func TestNewSheetWriter(t *testing.T) {
	tests := []struct {
		format   string
		filename string
		wantErr  bool
	}{
		{"", "image_metadata.csv", false},
		{"csv", "image_metadata.csv", false},
		{"CSV", "image_metadata.csv", false},
		{"parquet", "image_metadata.parquet", false},
		{"xlsx", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w, err := NewSheetWriter(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSheetWriter() error = %v", err)
			}
			if w.Filename() != tt.filename {
				t.Errorf("Filename() = %q, want %q", w.Filename(), tt.filename)
			}
		})
	}
}

func TestCSVSheet_Write(t *testing.T) {
	var buf bytes.Buffer
	if err := (CSVSheet{}).Write(&buf, sampleRows); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if !reflect.DeepEqual(records[0], SheetColumns) {
		t.Errorf("header = %v", records[0])
	}
	want := []string{"2", "1", "page2_img1.png", "32", "16", "png", "DeviceGray", "1", "/out/page2_img1.png"}
	if !reflect.DeepEqual(records[2], want) {
		t.Errorf("row 2 = %v, want %v", records[2], want)
	}
}

func TestCSVSheet_WriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (CSVSheet{}).Write(&buf, nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("expected only the header, got %d records", len(records))
	}
}

func TestParquetSheet_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), ParquetSheet{}.Filename())
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := (ParquetSheet{}).Write(f, sampleRows); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	rows, err := parquet.ReadFile[ParquetRow](path)
	if err != nil {
		t.Fatalf("failed to read parquet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Filename != "page1_img1.jpg" || rows[0].Width != 640 || rows[1].ColorSpace != "DeviceGray" {
		t.Errorf("unexpected rows: %+v", rows)
	}
}
