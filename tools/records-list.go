package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/logger"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/storage"
)

type RecordsListQuery struct {
	Kind string `json:"kind,omitempty"` // "image", "image+sidecar" or "document"; empty lists everything
}

type RecordSummary struct {
	RecordID    string `json:"record_id"`
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	ImagePath   string `json:"image_path,omitempty"`
	SidecarPath string `json:"sidecar_path,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type DocumentRunSummary struct {
	RunID      string `json:"run_id"`
	Document   string `json:"document"`
	OutputDir  string `json:"output_dir"`
	ImageCount int    `json:"image_count"`
	CreatedAt  string `json:"created_at"`
}

type RecordsListResponse struct {
	Records      []RecordSummary      `json:"records"`
	DocumentRuns []DocumentRunSummary `json:"document_runs"`
}

// KindDocument selects document runs in RecordsListQuery.Kind.
const KindDocument = "document"

func RecordsListTool() *mcp.Tool {
	inputschema, err := jsonschema.For[RecordsListQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "records-list",
		Description: "List stored micrograph metadata records and document image extraction runs, newest first. Filter with kind: image, image+sidecar or document.",
		InputSchema: inputschema,
	}
}

func RecordsListToolHandler(ctx context.Context, req *mcp.CallToolRequest, query RecordsListQuery, store storage.Store, log logger.Logger) (*mcp.CallToolResult, *RecordsListResponse, error) {
	log.Info("records-list tool called")

	responseData := &RecordsListResponse{
		Records:      []RecordSummary{},
		DocumentRuns: []DocumentRunSummary{},
	}

	if query.Kind != KindDocument {
		infos, err := store.ListRecords(ctx)
		if err != nil {
			log.Error("Failed to list records: %v", err)
			return nil, nil, fmt.Errorf("failed to list records: %w", err)
		}
		for _, info := range infos {
			if query.Kind != "" && info.Kind != query.Kind {
				continue
			}
			responseData.Records = append(responseData.Records, RecordSummary{
				RecordID:    info.RecordID,
				Kind:        info.Kind,
				Name:        info.Name,
				ImagePath:   info.SourceInfo.ImagePath,
				SidecarPath: info.SourceInfo.SidecarPath,
				CreatedAt:   info.CreatedAt.Format(time.RFC3339),
			})
		}
	}

	if query.Kind == "" || query.Kind == KindDocument {
		runs, err := store.ListDocumentRuns(ctx)
		if err != nil {
			log.Error("Failed to list document runs: %v", err)
			return nil, nil, fmt.Errorf("failed to list document runs: %w", err)
		}
		for _, run := range runs {
			responseData.DocumentRuns = append(responseData.DocumentRuns, DocumentRunSummary{
				RunID:      run.RunID,
				Document:   run.Document,
				OutputDir:  run.OutputDir,
				ImageCount: run.ImageCount,
				CreatedAt:  run.CreatedAt.Format(time.RFC3339),
			})
		}
	}

	log.Info("Listed %d records and %d document runs", len(responseData.Records), len(responseData.DocumentRuns))
	return nil, responseData, nil
}
