// Package sidecar reads the "$KEY value" text files some instruments write
// next to each micrograph.
package sidecar

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

// ErrorKey is the only key present when a sidecar file could not be read.
const ErrorKey = "Error"

var linePattern = regexp.MustCompile(`^\$+([A-Z0-9_%]+)\s*(.*)$`)

// ParseFile reads the sidecar at path. It never returns an error: a file
// that cannot be opened or read yields a single ErrorKey entry describing
// the failure.
func ParseFile(path string) (fields models.SidecarFields) {
	f, err := os.Open(path)
	if err != nil {
		return failed(err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && fields[ErrorKey] == "" {
			fields = failed(cerr)
		}
	}()

	fields, err = Parse(f)
	if err != nil {
		return failed(err)
	}
	return fields
}

// Parse reads sidecar lines from r. Undecodable bytes are dropped and a
// leading byte order mark is ignored. Only trimmed lines that begin with '$'
// and match the key grammar are kept; everything else is skipped.
func Parse(r io.Reader) (models.SidecarFields, error) {
	// BOMOverride strips a UTF-8 byte order mark and passes the rest through
	// untouched, so only ill-formed sequences are dropped below.
	data, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
	if err != nil {
		return nil, err
	}

	text := strings.ToValidUTF8(string(data), "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	fields := make(models.SidecarFields)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$") {
			continue
		}
		m := linePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		fields[strings.TrimSpace(m[1])] = strings.TrimSpace(m[2])
	}
	return fields, nil
}

// Failed reports whether fields is the degraded result of an unreadable file.
func Failed(fields models.SidecarFields) bool {
	_, ok := fields[ErrorKey]
	return ok && len(fields) == 1
}

func failed(err error) models.SidecarFields {
	return models.SidecarFields{ErrorKey: fmt.Sprintf("Failed to parse metadata: %v", err)}
}
