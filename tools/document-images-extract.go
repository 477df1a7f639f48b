package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/config"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/logger"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/operations"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/storage"
	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

type DocumentImagesExtractQuery struct {
	DocumentPath string `json:"document_path" jsonschema:"absolute path of the PDF document"`
	OutputDir    string `json:"output_dir,omitempty" jsonschema:"folder the timestamped extraction folder is created in; defaults to the configured output folder"`
	SheetFormat  string `json:"sheet_format,omitempty" jsonschema:"image metadata sheet format: csv or parquet; defaults to the configured format"`
}

type DocumentImagesExtractResponse struct {
	RunID         string                     `json:"run_id"`
	ResourcePaths []string                   `json:"resource_paths"`
	OutputDir     string                     `json:"output_dir"`
	SheetPath     string                     `json:"sheet_path"`
	ImageCount    int                        `json:"image_count"`
	Images        []models.ImageStreamRecord `json:"images"`
}

func DocumentImagesExtractTool() *mcp.Tool {
	inputschema, err := jsonschema.For[DocumentImagesExtractQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "document-images-extract",
		Description: "Save every raster image embedded in a PDF into a new Extracted_Images_<timestamp> folder, named page{P}_img{I}.{ext}, together with one metadata sheet row per image (page, image number, size, color space, bit depth, path). The pass is all-or-nothing.",
		InputSchema: inputschema,
	}
}

func DocumentImagesExtractToolHandler(ctx context.Context, req *mcp.CallToolRequest, query DocumentImagesExtractQuery, output config.OutputConfig, store storage.Store, log logger.Logger) (*mcp.CallToolResult, *DocumentImagesExtractResponse, error) {
	log.Info("document-images-extract tool called")

	request := operations.DocumentRequest{
		DocumentPath: query.DocumentPath,
		OutputDir:    query.OutputDir,
		SheetFormat:  query.SheetFormat,
	}
	if request.OutputDir == "" {
		request.OutputDir = output.Dir
	}
	if request.SheetFormat == "" {
		request.SheetFormat = output.SheetFormat
	}

	result, err := operations.ExtractDocument(ctx, request, store, log)
	if err != nil {
		log.Error("document-images-extract tool failed: %v", err)
		return nil, nil, err
	}

	extraction := result.Extraction
	toolResult := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Extracted %d images from %s into %s. Image metadata sheet: %s",
					len(extraction.Images), extraction.Document, extraction.OutputDir, extraction.SheetPath),
			},
		},
	}

	responseData := &DocumentImagesExtractResponse{
		RunID:         result.RunID,
		ResourcePaths: storage.CalculateRunResourcePaths(result.RunID),
		OutputDir:     extraction.OutputDir,
		SheetPath:     extraction.SheetPath,
		ImageCount:    len(extraction.Images),
		Images:        extraction.Images,
	}

	return toolResult, responseData, nil
}
