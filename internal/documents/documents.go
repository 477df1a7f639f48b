package documents

import (
	"github.com/h2non/filetype"
)

// DetectDocumentType determines the type of document from the raw data
// by checking magic bytes/headers. It returns the file extension of the
// detected type, or "unknown".
func DetectDocumentType(data []byte) string {
	if len(data) == 0 {
		return "unknown"
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "unknown"
	}
	return kind.Extension
}

// IsPDF reports whether data starts like a PDF document.
func IsPDF(data []byte) bool {
	return DetectDocumentType(data) == "pdf"
}
