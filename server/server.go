package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/config"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/logger"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/storage"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/tagreader"
	"github.com/Epistemic-Technology/micrograph-mcp/resources"
	"github.com/Epistemic-Technology/micrograph-mcp/tools"
)

const Version = "v0.1.0"

func CreateServer(cfg *config.Config, log logger.Logger) *mcp.Server {
	store, err := initializeStorage(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize storage: %v", err)
	}
	return NewServer(cfg, store, tagreader.New(log), log)
}

// NewServer registers the micrograph tools and resources on a new MCP server
// backed by store and reader.
func NewServer(cfg *config.Config, store storage.Store, reader tagreader.Reader, log logger.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "micrograph-mcp", Version: Version}, nil)

	recordResourceHandler := resources.NewRecordResourceHandler(store)

	// Register tools with storage and logger dependencies
	mcp.AddTool(server, tools.ImageMetadataExtractTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.ImageMetadataExtractQuery) (*mcp.CallToolResult, *tools.ImageMetadataExtractResponse, error) {
		if query.Format == "" {
			query.Format = cfg.Output.RecordFormat
		}
		return tools.ImageMetadataExtractToolHandler(ctx, req, query, reader, store, log)
	})

	mcp.AddTool(server, tools.DocumentImagesExtractTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.DocumentImagesExtractQuery) (*mcp.CallToolResult, *tools.DocumentImagesExtractResponse, error) {
		return tools.DocumentImagesExtractToolHandler(ctx, req, query, cfg.Output, store, log)
	})

	mcp.AddTool(server, tools.RecordExportTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.RecordExportQuery) (*mcp.CallToolResult, *tools.RecordExportResponse, error) {
		if query.Format == "" {
			query.Format = cfg.Output.RecordFormat
		}
		return tools.RecordExportToolHandler(ctx, req, query, store, log)
	})

	mcp.AddTool(server, tools.RecordsListTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.RecordsListQuery) (*mcp.CallToolResult, *tools.RecordsListResponse, error) {
		return tools.RecordsListToolHandler(ctx, req, query, store, log)
	})

	read := func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return recordResourceHandler.ReadResource(ctx, req.Params.URI)
	}

	// Template for a whole record
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "micrograph://{recordId}",
		Name:        "micrograph-record",
		Description: "Extracted metadata record of a micrograph (image-only or image+sidecar shape)",
		MIMEType:    "application/json",
	}, read)

	// Template for metadata
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "micrograph://{recordId}/metadata",
		Name:        "micrograph-metadata",
		Description: "Normalized tag dictionary or sidecar fields of a record",
		MIMEType:    "application/json",
	}, read)

	// Template for document image runs
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "document-images://{runId}",
		Name:        "document-images",
		Description: "Images extracted from a PDF in one run, one row per embedded raster stream",
		MIMEType:    "application/json",
	}, read)

	// Records stored by earlier sessions are listed as concrete resources
	stored, err := recordResourceHandler.ListResources(context.Background())
	if err != nil {
		log.Warn("Failed to list stored records: %v", err)
	}
	for _, res := range stored {
		server.AddResource(res, read)
	}
	log.Debug("Registered %d stored resources", len(stored))

	return server
}

// initializeStorage creates and initializes the storage backend
func initializeStorage(cfg *config.Config, log logger.Logger) (storage.Store, error) {
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}

	log.Info("Initializing SQLite database at: %s", dbPath)

	store, err := storage.NewSQLiteStore(dbPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite store: %w", err)
	}

	return store, nil
}
