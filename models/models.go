package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// RawTags is the tag dictionary handed back by a container reader, keyed by
// the numeric tag ID. Values are untyped: strings, byte slices, numbers,
// slices of those, or an error for a tag the reader could not decode.
type RawTags map[uint16]any

// TagDictionary maps a stringified tag key to its normalized value.
type TagDictionary map[string]any

// SidecarFields maps an uppercase instrument key to its trimmed value.
type SidecarFields map[string]string

// Record kinds
const (
	KindImage   = "image"
	KindSidecar = "image+sidecar"
)

type ImageRecord struct {
	Image    string        `json:"image" yaml:"image"`
	Metadata TagDictionary `json:"metadata" yaml:"metadata"`
}

type SidecarRecord struct {
	ID           string        `json:"id" yaml:"id"`
	ImageFile    string        `json:"image_file" yaml:"image_file"`
	MetadataFile string        `json:"metadata_file" yaml:"metadata_file"`
	Machine      string        `json:"machine" yaml:"machine"`
	DateTaken    string        `json:"date_taken" yaml:"date_taken"`
	Metadata     SidecarFields `json:"metadata" yaml:"metadata"`
}

// ExtractionRecord holds exactly one of the two record shapes and marshals
// to that shape.
type ExtractionRecord struct {
	Image   *ImageRecord
	Sidecar *SidecarRecord
}

// Kind reports which shape the record holds.
func (r ExtractionRecord) Kind() string {
	if r.Sidecar != nil {
		return KindSidecar
	}
	return KindImage
}

// Metadata returns the record's metadata mapping.
func (r ExtractionRecord) Metadata() any {
	switch {
	case r.Sidecar != nil:
		return r.Sidecar.Metadata
	case r.Image != nil:
		return r.Image.Metadata
	}
	return nil
}

func (r ExtractionRecord) MarshalJSON() ([]byte, error) {
	switch {
	case r.Sidecar != nil:
		return marshalUnescaped(r.Sidecar)
	case r.Image != nil:
		return marshalUnescaped(r.Image)
	}
	return nil, errors.New("empty extraction record")
}

// marshalUnescaped leaves <, > and & alone so the caller's encoder decides
// whether to escape them.
func marshalUnescaped(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (r *ExtractionRecord) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if _, ok := probe["image_file"]; ok {
		r.Image = nil
		r.Sidecar = &SidecarRecord{}
		return json.Unmarshal(data, r.Sidecar)
	}
	r.Sidecar = nil
	r.Image = &ImageRecord{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(r.Image)
}

// ImageStreamRecord describes one raster stream extracted from a document.
type ImageStreamRecord struct {
	Page             int    `json:"page"`
	ImageNumber      int    `json:"image_number"`
	Filename         string `json:"filename"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	Extension        string `json:"extension"`
	ColorSpace       string `json:"color_space"`
	BitsPerComponent int    `json:"bits_per_component"`
	FilePath         string `json:"file_path"`
}

// DocumentExtraction summarises one pass over a document.
type DocumentExtraction struct {
	Document  string              `json:"document"`
	OutputDir string              `json:"output_dir"`
	SheetPath string              `json:"sheet_path"`
	Images    []ImageStreamRecord `json:"images"`
}

// SourceInfo contains the input paths a record was extracted from
type SourceInfo struct {
	ImagePath   string `json:"image_path,omitempty"`
	SidecarPath string `json:"sidecar_path,omitempty"`
}

// RecordInfo contains basic information about a stored record
type RecordInfo struct {
	RecordID   string     `json:"record_id"`
	Kind       string     `json:"kind"`
	Name       string     `json:"name"`
	SourceInfo SourceInfo `json:"source_info"`
	CreatedAt  time.Time  `json:"created_at"`
}

// DocumentRunInfo contains basic information about a stored document pass
type DocumentRunInfo struct {
	RunID      string    `json:"run_id"`
	Document   string    `json:"document"`
	OutputDir  string    `json:"output_dir"`
	SheetPath  string    `json:"sheet_path"`
	ImageCount int       `json:"image_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// StreamImage is one raster stream as handed back by a document reader.
type StreamImage struct {
	// ObjectNumber identifies the stream inside the document
	ObjectNumber     int
	Data             []byte
	Width            int
	Height           int
	ColorSpace       string
	BitsPerComponent int
	// Extension is the file extension matching Data, without the dot
	Extension string
}
