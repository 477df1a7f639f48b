// Package export writes extraction records to disk.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	yaml "gopkg.in/yaml.v3"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/naming"
	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

// Record formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidateFormat reports an error for anything but json and yaml.
func ValidateFormat(format string) error {
	switch strings.ToLower(format) {
	case "", FormatJSON, FormatYAML, "yml":
		return nil
	}
	return fmt.Errorf("unsupported record format: %s (expected 'json' or 'yaml')", format)
}

// Encode renders rec in the given format. JSON is indented by two spaces
// and leaves <, > and & unescaped so embedded XML-derived text stays
// readable.
func Encode(w io.Writer, rec models.ExtractionRecord, format string) error {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return encodeJSON(w, rec)
	case FormatYAML, "yml":
		return encodeYAML(w, rec)
	}
	return ValidateFormat(format)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// encodeYAML goes through JSON first so the YAML keys are exactly the JSON
// keys of the record.
func encodeYAML(w io.Writer, rec models.ExtractionRecord) error {
	var buf bytes.Buffer
	if err := encodeJSON(&buf, rec); err != nil {
		return err
	}
	var generic map[string]any
	if err := json.Unmarshal(buf.Bytes(), &generic); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

// ResolvePath decides where a record is written. An empty target or an
// existing directory gets the default file name derived from imagePath.
func ResolvePath(target, imagePath, format string) string {
	ext := FormatJSON
	if f := strings.ToLower(format); f == FormatYAML || f == "yml" {
		ext = FormatYAML
	}
	name := naming.DefaultRecordFilename(imagePath, ext)

	if target == "" {
		return filepath.Join(filepath.Dir(imagePath), name)
	}
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return filepath.Join(target, name)
	}
	return target
}

// WriteRecord writes rec to path, creating parent folders as needed.
func WriteRecord(path string, rec models.ExtractionRecord, format string) (err error) {
	if err := ValidateFormat(format); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if err := Encode(f, rec, format); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
