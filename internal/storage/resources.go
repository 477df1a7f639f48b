package storage

import (
	"fmt"
)

// Resource URI schemes
const (
	RecordScheme        = "micrograph"
	DocumentImageScheme = "document-images"
)

// CalculateResourcePaths generates the resource URIs available for a stored
// extraction record.
func CalculateResourcePaths(recordID string) []string {
	return []string{
		fmt.Sprintf("%s://%s", RecordScheme, recordID),
		fmt.Sprintf("%s://%s/metadata", RecordScheme, recordID),
	}
}

// CalculateRunResourcePaths generates the resource URIs available for a
// stored document pass.
func CalculateRunResourcePaths(runID string) []string {
	return []string{
		fmt.Sprintf("%s://%s", DocumentImageScheme, runID),
	}
}
