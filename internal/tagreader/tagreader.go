// Package tagreader reads the raw tag dictionary embedded in an image
// container. Values are handed back untouched so the normalizer can decide
// what they are.
package tagreader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/logger"
	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

// SupportedExtensions lists the image file extensions accepted as input.
var SupportedExtensions = []string{"tif", "tiff", "bmp", "jpg", "jpeg", "png"}

var ErrUnsupportedContainer = errors.New("unsupported image container")

// IsSupported reports whether path carries one of SupportedExtensions.
func IsSupported(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Reader reads the raw tags of one image file.
type Reader interface {
	ReadTags(ctx context.Context, path string) (models.RawTags, error)
}

// ContainerReader sniffs the file type and dispatches to the matching
// decoder. TIFF based files yield the tags of their first directory, JPEG
// files their EXIF tags. Formats that carry no tag directory yield an empty
// dictionary.
type ContainerReader struct {
	log logger.Logger
}

func New(log logger.Logger) *ContainerReader {
	return &ContainerReader{log: log}
}

func (r *ContainerReader) ReadTags(ctx context.Context, path string) (models.RawTags, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return nil, fmt.Errorf("failed to detect image type: %w", err)
	}

	switch kind.Extension {
	case "tif", "cr2":
		return r.readTIFF(data)
	case "jpg":
		return r.readEXIF(data), nil
	case "png", "bmp", "gif":
		r.log.Debug("%s container carries no tag directory", kind.Extension)
		return models.RawTags{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedContainer, kind.Extension)
}

func (r *ContainerReader) readTIFF(data []byte) (models.RawTags, error) {
	t, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode TIFF: %w", err)
	}
	if len(t.Dirs) == 0 {
		return models.RawTags{}, nil
	}

	// the first directory describes the primary image
	tags := make(models.RawTags, len(t.Dirs[0].Tags))
	for _, tag := range t.Dirs[0].Tags {
		tags[tag.Id] = TagValue(tag)
	}
	r.log.Debug("Read %d TIFF tags", len(tags))
	return tags, nil
}

func (r *ContainerReader) readEXIF(data []byte) models.RawTags {
	tags := models.RawTags{}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		r.log.Debug("No EXIF data: %v", err)
		return tags
	}

	walkErr := x.Walk(walkFunc(func(_ exif.FieldName, tag *tiff.Tag) error {
		tags[tag.Id] = TagValue(tag)
		return nil
	}))
	if walkErr != nil {
		r.log.Warn("EXIF walk stopped early: %v", walkErr)
	}
	return tags
}

type walkFunc func(exif.FieldName, *tiff.Tag) error

func (f walkFunc) Walk(name exif.FieldName, tag *tiff.Tag) error {
	return f(name, tag)
}

// TagValue converts a decoded tag into a raw value: a string for ASCII
// tags, a byte slice for BYTE and UNDEFINED tags, and numbers otherwise.
// Tags holding more than one number become a slice. An element that cannot
// be decoded is returned as an error value.
func TagValue(tag *tiff.Tag) any {
	switch tag.Format() {
	case tiff.StringVal:
		return strings.TrimRight(string(tag.Val), "\x00")
	case tiff.UndefVal, tiff.OtherVal:
		return append([]byte(nil), tag.Val...)
	}
	if tag.Type == tiff.DTByte {
		return append([]byte(nil), tag.Val...)
	}

	n := int(tag.Count)
	values := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := numberAt(tag, i)
		if err != nil {
			return fmt.Errorf("tag %d element %d: %w", tag.Id, i, err)
		}
		values = append(values, v)
	}

	switch len(values) {
	case 0:
		return nil
	case 1:
		return values[0]
	}
	return values
}

func numberAt(tag *tiff.Tag, i int) (any, error) {
	switch tag.Format() {
	case tiff.IntVal:
		return tag.Int64(i)
	case tiff.FloatVal:
		return tag.Float(i)
	case tiff.RatVal:
		num, den, err := tag.Rat2(i)
		if err != nil {
			return nil, err
		}
		if den == 0 {
			return math.NaN(), nil
		}
		return float64(num) / float64(den), nil
	}
	return nil, fmt.Errorf("unexpected format %v", tag.Format())
}
