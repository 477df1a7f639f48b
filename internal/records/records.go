// Package records assembles the metadata record emitted for one micrograph.
package records

import (
	"path/filepath"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/naming"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/sidecar"
	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

// Sidecar keys the record's identity is derived from
const (
	InstrumentKey = "CM_INSTRUMENT"
	DateKey       = "CM_DATE"
)

// FromImage wraps normalized tags with the image's base file name.
func FromImage(imagePath string, tags models.TagDictionary) models.ExtractionRecord {
	if tags == nil {
		tags = models.TagDictionary{}
	}
	return models.ExtractionRecord{
		Image: &models.ImageRecord{
			Image:    filepath.Base(imagePath),
			Metadata: tags,
		},
	}
}

// FromSidecar parses the sidecar and derives the record identity from it.
// It never fails: missing keys fall back to naming.Unknown and an unreadable
// sidecar leaves a single sidecar.ErrorKey entry in the metadata.
func FromSidecar(imagePath, sidecarPath string) models.ExtractionRecord {
	return FromSidecarFields(imagePath, sidecar.ParseFile(sidecarPath))
}

// FromSidecarFields builds the image+sidecar record from already parsed
// fields. image_file and metadata_file are derived names; nothing is checked
// on disk.
func FromSidecarFields(imagePath string, fields models.SidecarFields) models.ExtractionRecord {
	if fields == nil {
		fields = models.SidecarFields{}
	}

	instrument, ok := fields[InstrumentKey]
	machine := naming.Machine(instrument, ok)
	date, ok := fields[DateKey]
	dateTaken := naming.DateTaken(date, ok)

	stem := naming.Stem(imagePath)
	composite := naming.CompositeName(stem, machine, dateTaken)

	return models.ExtractionRecord{
		Sidecar: &models.SidecarRecord{
			ID:           stem,
			ImageFile:    composite + ".tif",
			MetadataFile: composite + ".txt",
			Machine:      machine,
			DateTaken:    dateTaken,
			Metadata:     fields,
		},
	}
}
