package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrelworks/memoryd/internal/auth"
)

// ===== COLLECTION TOOLS =====

type collectionCreateInput struct {
	Name string `json:"name" jsonschema:"required,Collection display name"`
}

type collectionCreateOutput struct {
	Collection collectionView `json:"collection" jsonschema:"The created collection"`
}

type collectionListInput struct{}

type collectionListOutput struct {
	Collections []collectionView `json:"collections" jsonschema:"Collections owned by the caller"`
	Count       int              `json:"count" jsonschema:"Number of collections"`
}

type collectionRenameInput struct {
	CollectionID string `json:"collection_id" jsonschema:"required,Collection identifier"`
	Name         string `json:"name" jsonschema:"required,New display name"`
}

type collectionRenameOutput struct {
	Collection collectionView `json:"collection" jsonschema:"The renamed collection"`
}

type collectionDeleteInput struct {
	CollectionID string `json:"collection_id" jsonschema:"required,Collection identifier"`
}

type collectionDeleteOutput struct {
	Deleted bool `json:"deleted" jsonschema:"True when the collection was removed"`
}

func (s *Server) registerCollectionTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpCollectionCreate,
		Description: "Create a collection owned by the calling identity.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args collectionCreateInput) (*mcp.CallToolResult, collectionCreateOutput, error) {
		coll, err := s.collSvc.Create(ctx, args.Name)
		if err != nil {
			return nil, collectionCreateOutput{}, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Created collection %s (%s)", coll.Name, coll.ID)},
			},
		}, collectionCreateOutput{Collection: toCollectionView(coll)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpCollectionList,
		Description: "List collections owned by the calling identity.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args collectionListInput) (*mcp.CallToolResult, collectionListOutput, error) {
		colls, err := s.collSvc.List(ctx)
		if err != nil {
			return nil, collectionListOutput{}, err
		}
		views := make([]collectionView, len(colls))
		for i, c := range colls {
			views[i] = toCollectionView(c)
		}
		return nil, collectionListOutput{Collections: views, Count: len(views)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpCollectionRename,
		Description: "Rename a collection owned by the calling identity.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args collectionRenameInput) (*mcp.CallToolResult, collectionRenameOutput, error) {
		coll, err := s.collSvc.Rename(ctx, args.CollectionID, args.Name)
		if err != nil {
			return nil, collectionRenameOutput{}, err
		}
		return nil, collectionRenameOutput{Collection: toCollectionView(coll)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpCollectionDelete,
		Description: "Delete a collection and its documents. Refused while active access tokens are bound to it.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args collectionDeleteInput) (*mcp.CallToolResult, collectionDeleteOutput, error) {
		if err := s.collSvc.Delete(ctx, args.CollectionID); err != nil {
			return nil, collectionDeleteOutput{}, err
		}
		return nil, collectionDeleteOutput{Deleted: true}, nil
	})
}
