// Package naming derives the identifiers and file names used for records,
// extracted image streams and output folders.
package naming

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"
	"time"
)

// Unknown is used for a sidecar field that is missing.
const Unknown = "Unknown"

// ExtractionDirPrefix starts the name of every document extraction folder.
const ExtractionDirPrefix = "Extracted_Images_"

const extractionTimeLayout = "2006-01-02_15-04-05"

// Stem returns the base name of path without its final extension.
// "/data/sample01.tif" -> "sample01"
func Stem(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Machine trims the instrument name, falling back to Unknown when absent.
func Machine(instrument string, ok bool) string {
	if !ok {
		return Unknown
	}
	return strings.TrimSpace(instrument)
}

// DateTaken rewrites a sidecar date so it is safe in file names
// ("2024/01/02" -> "2024-01-02"), falling back to Unknown when absent.
func DateTaken(date string, ok bool) string {
	if !ok {
		return Unknown
	}
	return strings.ReplaceAll(date, "/", "-")
}

// CompositeName joins the image stem, machine and date with underscores.
// "sample01", "JEOL-7800", "2024-01-02" -> "sample01_JEOL-7800_2024-01-02"
func CompositeName(stem, machine, date string) string {
	return stem + "_" + machine + "_" + date
}

// DefaultRecordFilename is the file name a record is saved under when the
// caller does not choose one.
func DefaultRecordFilename(imagePath, ext string) string {
	if ext == "" {
		ext = "json"
	}
	return Stem(imagePath) + "_metadata." + strings.TrimPrefix(ext, ".")
}

// StreamFilename names one extracted image stream. page and index are
// 1-based.
func StreamFilename(page, index int, ext string) string {
	return fmt.Sprintf("page%d_img%d.%s", page, index, strings.TrimPrefix(ext, "."))
}

// ExtractionDirName returns the timestamped folder name for a document pass
// started at t.
func ExtractionDirName(t time.Time) string {
	return ExtractionDirPrefix + t.Format(extractionTimeLayout)
}

// Record ID prefixes
const (
	ImageRecordPrefix   = "img"
	SidecarRecordPrefix = "sem"
	DocumentRunPrefix   = "doc"
)

// RecordID creates a stable identifier from a prefix and the input paths a
// record was extracted from. Paths are made absolute where possible so the
// same file always maps to the same ID.
func RecordID(prefix string, paths ...string) string {
	h := fnv.New64a()
	for i, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return fmt.Sprintf("%s_%x", prefix, h.Sum64())
}

// RunID identifies one document pass by its document and start time.
func RunID(documentPath string, started time.Time) string {
	return RecordID(DocumentRunPrefix, documentPath, started.UTC().Format(time.RFC3339Nano))
}
