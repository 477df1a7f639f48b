package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/export"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/logger"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/operations"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/storage"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/tagreader"
	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

type ImageMetadataExtractQuery struct {
	ImagePath   string `json:"image_path" jsonschema:"absolute path of the micrograph (tif, tiff, bmp, jpg, jpeg or png)"`
	SidecarPath string `json:"sidecar_path,omitempty" jsonschema:"optional instrument sidecar text file ($KEY value lines)"`
	OutputPath  string `json:"output_path,omitempty" jsonschema:"optional file or folder to also save the record to"`
	Format      string `json:"format,omitempty" jsonschema:"format of the saved record: json (default) or yaml"`
}

type ImageMetadataExtractResponse struct {
	RecordID      string         `json:"record_id"`
	ResourcePaths []string       `json:"resource_paths"`
	Kind          string         `json:"kind"`
	Record        map[string]any `json:"record"`
	FailedTags    []string       `json:"failed_tags,omitempty"`
	SavedTo       string         `json:"saved_to,omitempty"`
}

func ImageMetadataExtractTool() *mcp.Tool {
	inputschema, err := jsonschema.For[ImageMetadataExtractQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "image-metadata-extract",
		Description: "Extract the metadata of a scientific micrograph into a uniform JSON record. Without a sidecar the tags embedded in the image are read and normalized (XML values become nested objects, key=value blocks become a 'plain' object). With a sidecar the record is built from its $KEY value lines. The record is stored and can be read back through its resource paths.",
		InputSchema: inputschema,
	}
}

func ImageMetadataExtractToolHandler(ctx context.Context, req *mcp.CallToolRequest, query ImageMetadataExtractQuery, reader tagreader.Reader, store storage.Store, log logger.Logger) (*mcp.CallToolResult, *ImageMetadataExtractResponse, error) {
	log.Info("image-metadata-extract tool called")

	if err := export.ValidateFormat(query.Format); err != nil {
		return nil, nil, err
	}

	result, err := operations.ExtractImage(ctx, operations.ImageRequest{
		ImagePath:   query.ImagePath,
		SidecarPath: query.SidecarPath,
	}, reader, store, log)
	if err != nil {
		log.Error("image-metadata-extract tool failed: %v", err)
		return nil, nil, err
	}

	record, err := recordMap(result.Record)
	if err != nil {
		return nil, nil, err
	}

	responseData := &ImageMetadataExtractResponse{
		RecordID:      result.RecordID,
		ResourcePaths: storage.CalculateResourcePaths(result.RecordID),
		Kind:          result.Record.Kind(),
		Record:        record,
		FailedTags:    result.FailedTags,
	}

	if query.OutputPath != "" {
		path := export.ResolvePath(query.OutputPath, query.ImagePath, query.Format)
		if err := export.WriteRecord(path, result.Record, query.Format); err != nil {
			log.Error("Failed to save record %s: %v", result.RecordID, err)
			return nil, nil, err
		}
		responseData.SavedTo = path
	}

	return nil, responseData, nil
}

// recordMap converts a record to its generic JSON shape for structured tool
// output.
func recordMap(record models.ExtractionRecord) (map[string]any, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	var out map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return out, nil
}
