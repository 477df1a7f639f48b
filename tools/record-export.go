package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/export"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/logger"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/operations"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/storage"
)

type RecordExportQuery struct {
	RecordID   string `json:"record_id"`
	OutputPath string `json:"output_path,omitempty"`
	Format     string `json:"format,omitempty"` // "json" (default) or "yaml"
}

type RecordExportResponse struct {
	RecordID string `json:"record_id"`
	Format   string `json:"format"`
	Path     string `json:"path"`
}

func RecordExportTool() *mcp.Tool {
	inputschema, err := jsonschema.For[RecordExportQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "record-export",
		Description: "Save a stored metadata record to disk as pretty-printed JSON (default) or YAML. output_path may be a file or an existing folder; when omitted the record is written next to its image as <image-stem>_metadata.json.",
		InputSchema: inputschema,
	}
}

func RecordExportToolHandler(ctx context.Context, req *mcp.CallToolRequest, query RecordExportQuery, store storage.Store, log logger.Logger) (*mcp.CallToolResult, *RecordExportResponse, error) {
	log.Info("record-export tool called")

	format := query.Format
	if format == "" {
		format = export.FormatJSON
	}

	path, err := operations.ExportRecord(ctx, store, query.RecordID, query.OutputPath, format)
	if err != nil {
		log.Error("record-export tool failed: %v", err)
		return nil, nil, err
	}

	log.Info("Exported record %s to %s", query.RecordID, path)
	return nil, &RecordExportResponse{
		RecordID: query.RecordID,
		Format:   format,
		Path:     path,
	}, nil
}
