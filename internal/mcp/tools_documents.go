package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrelworks/memoryd/internal/auth"
	"github.com/kestrelworks/memoryd/internal/documents"
)

// ===== DOCUMENT TOOLS =====

type documentStoreInput struct {
	CollectionID string            `json:"collection_id,omitempty" jsonschema:"Collection identifier (optional for collection-scoped tokens)"`
	Content      string            `json:"content" jsonschema:"required,Document text to embed and store"`
	Metadata     map[string]string `json:"metadata,omitempty" jsonschema:"Additional metadata"`
}

type documentStoreOutput struct {
	DocumentID   string `json:"document_id" jsonschema:"Identifier of the stored document"`
	CollectionID string `json:"collection_id" jsonschema:"Collection the document lives in"`
}

type documentSearchInput struct {
	CollectionID string `json:"collection_id,omitempty" jsonschema:"Collection identifier (optional for collection-scoped tokens)"`
	Query        string `json:"query" jsonschema:"required,Similarity search query"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Maximum results to return (default: 10)"`
}

type documentSearchOutput struct {
	Results []searchHitView `json:"results" jsonschema:"Matching documents ranked by similarity"`
	Count   int             `json:"count" jsonschema:"Number of results"`
}

type searchHitView struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float32           `json:"score"`
}

type documentGetInput struct {
	CollectionID string `json:"collection_id,omitempty" jsonschema:"Collection identifier (optional for collection-scoped tokens)"`
	DocumentID   string `json:"document_id" jsonschema:"required,Document identifier"`
}

type documentGetOutput struct {
	Document documentView `json:"document" jsonschema:"The requested document"`
}

type documentView struct {
	ID           string            `json:"id"`
	CollectionID string            `json:"collection_id"`
	Content      string            `json:"content"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type documentDeleteInput struct {
	CollectionID string `json:"collection_id,omitempty" jsonschema:"Collection identifier (optional for collection-scoped tokens)"`
	DocumentID   string `json:"document_id" jsonschema:"required,Document identifier"`
}

type documentDeleteOutput struct {
	Deleted bool `json:"deleted" jsonschema:"True when the document was removed"`
}

func (s *Server) registerDocumentTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpDocumentStore,
		Description: "Embed and store a document in a collection. Requires write permission.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args documentStoreInput) (*mcp.CallToolResult, documentStoreOutput, error) {
		doc, err := s.docSvc.Store(ctx, args.CollectionID, args.Content, args.Metadata)
		if err != nil {
			return nil, documentStoreOutput{}, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Stored document %s", doc.ID)},
			},
		}, documentStoreOutput{DocumentID: doc.ID, CollectionID: doc.CollectionID}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpDocumentSearch,
		Description: "Search a collection for documents similar to a query.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args documentSearchInput) (*mcp.CallToolResult, documentSearchOutput, error) {
		hits, err := s.docSvc.Search(ctx, args.CollectionID, args.Query, args.Limit)
		if err != nil {
			return nil, documentSearchOutput{}, err
		}
		views := make([]searchHitView, len(hits))
		for i, h := range hits {
			views[i] = searchHitView{
				ID:       h.ID,
				Content:  h.Content,
				Metadata: h.Metadata,
				Score:    h.Score,
			}
		}
		return nil, documentSearchOutput{Results: views, Count: len(views)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpDocumentGet,
		Description: "Fetch one document by id.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args documentGetInput) (*mcp.CallToolResult, documentGetOutput, error) {
		doc, err := s.docSvc.Get(ctx, args.CollectionID, args.DocumentID)
		if err != nil {
			return nil, documentGetOutput{}, err
		}
		return nil, documentGetOutput{Document: toDocumentView(doc)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpDocumentDelete,
		Description: "Delete one document. Requires write permission.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args documentDeleteInput) (*mcp.CallToolResult, documentDeleteOutput, error) {
		if err := s.docSvc.Delete(ctx, args.CollectionID, args.DocumentID); err != nil {
			return nil, documentDeleteOutput{}, err
		}
		return nil, documentDeleteOutput{Deleted: true}, nil
	})
}

func toDocumentView(d *documents.Document) documentView {
	return documentView{
		ID:           d.ID,
		CollectionID: d.CollectionID,
		Content:      d.Content,
		Metadata:     d.Metadata,
	}
}
