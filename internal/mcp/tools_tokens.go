package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrelworks/memoryd/internal/auth"
)

// ===== COLLECTION ACCESS TOKEN TOOLS =====

type catCreateInput struct {
	CollectionID  string `json:"collection_id" jsonschema:"required,Collection the token is bound to"`
	Label         string `json:"label,omitempty" jsonschema:"Human-readable label"`
	Permission    string `json:"permission" jsonschema:"required,Token permission: read or readwrite"`
	ExpirySeconds int64  `json:"expiry_seconds,omitempty" jsonschema:"Requested lifetime in seconds (server default when omitted)"`
}

type catCreateOutput struct {
	Secret string  `json:"secret" jsonschema:"Plaintext token secret. Shown exactly once; it cannot be retrieved again."`
	Token  catView `json:"token" jsonschema:"The stored token record"`
}

type catListInput struct{}

type catListOutput struct {
	Tokens []catView `json:"tokens" jsonschema:"Collection access tokens visible to the caller"`
	Count  int       `json:"count" jsonschema:"Number of tokens"`
}

type catRevokeInput struct {
	TokenID string `json:"token_id" jsonschema:"required,Token identifier"`
}

type catRevokeOutput struct {
	Revoked bool `json:"revoked" jsonschema:"True when the token was revoked"`
}

type catRotateInput struct {
	TokenID string `json:"token_id" jsonschema:"required,Token identifier"`
}

type catRotateOutput struct {
	Secret string  `json:"secret" jsonschema:"New plaintext secret. The old secret is invalid immediately."`
	Token  catView `json:"token" jsonschema:"The rotated token record"`
}

// ===== PERSONAL ACCESS TOKEN TOOLS =====

type patCreateInput struct {
	Label         string `json:"label,omitempty" jsonschema:"Human-readable label"`
	ExpirySeconds int64  `json:"expiry_seconds,omitempty" jsonschema:"Requested lifetime in seconds (server default when omitted)"`
}

type patCreateOutput struct {
	Secret string  `json:"secret" jsonschema:"Plaintext token secret. Shown exactly once; it cannot be retrieved again."`
	Token  patView `json:"token" jsonschema:"The stored token record"`
}

type patListInput struct{}

type patListOutput struct {
	Tokens []patView `json:"tokens" jsonschema:"Personal access tokens visible to the caller"`
	Count  int       `json:"count" jsonschema:"Number of tokens"`
}

type patRevokeInput struct {
	TokenID string `json:"token_id" jsonschema:"required,Token identifier"`
}

type patRevokeOutput struct {
	Revoked bool `json:"revoked" jsonschema:"True when the token was revoked"`
}

type patRotateInput struct {
	TokenID string `json:"token_id" jsonschema:"required,Token identifier"`
}

type patRotateOutput struct {
	Secret string  `json:"secret" jsonschema:"New plaintext secret. The old secret is invalid immediately."`
	Token  patView `json:"token" jsonschema:"The rotated token record"`
}

func (s *Server) registerTokenTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpCATCreate,
		Description: "Issue a collection access token bound to one collection. The secret is returned exactly once.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args catCreateInput) (*mcp.CallToolResult, catCreateOutput, error) {
		ident := auth.IdentityFrom(ctx)
		secret, token, err := s.tokenSvc.IssueCAT(ctx, ident, args.CollectionID, args.Label,
			auth.Permission(args.Permission), ttlFromSeconds(args.ExpirySeconds))
		if err != nil {
			return nil, catCreateOutput{}, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Issued token %s. Store the secret now; it is not retrievable.", token.ID)},
			},
		}, catCreateOutput{Secret: secret, Token: toCatView(token)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpCATList,
		Description: "List collection access tokens owned by the caller.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args catListInput) (*mcp.CallToolResult, catListOutput, error) {
		tokens, err := s.tokenSvc.ListCATs(ctx, auth.IdentityFrom(ctx))
		if err != nil {
			return nil, catListOutput{}, err
		}
		views := make([]catView, len(tokens))
		for i, t := range tokens {
			views[i] = toCatView(t)
		}
		return nil, catListOutput{Tokens: views, Count: len(views)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpCATRevoke,
		Description: "Revoke a collection access token. Takes effect on the token's next use.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args catRevokeInput) (*mcp.CallToolResult, catRevokeOutput, error) {
		if err := s.tokenSvc.RevokeCAT(ctx, auth.IdentityFrom(ctx), args.TokenID); err != nil {
			return nil, catRevokeOutput{}, err
		}
		return nil, catRevokeOutput{Revoked: true}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpCATRotate,
		Description: "Rotate a collection access token's secret, invalidating the old one immediately.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args catRotateInput) (*mcp.CallToolResult, catRotateOutput, error) {
		secret, token, err := s.tokenSvc.RotateCAT(ctx, auth.IdentityFrom(ctx), args.TokenID)
		if err != nil {
			return nil, catRotateOutput{}, err
		}
		return nil, catRotateOutput{Secret: secret, Token: toCatView(token)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpPATCreate,
		Description: "Issue a personal access token snapshotting the caller's scopes. The secret is returned exactly once.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args patCreateInput) (*mcp.CallToolResult, patCreateOutput, error) {
		secret, token, err := s.tokenSvc.IssuePAT(ctx, auth.IdentityFrom(ctx), args.Label,
			ttlFromSeconds(args.ExpirySeconds))
		if err != nil {
			return nil, patCreateOutput{}, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Issued token %s. Store the secret now; it is not retrievable.", token.ID)},
			},
		}, patCreateOutput{Secret: secret, Token: toPatView(token)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpPATList,
		Description: "List personal access tokens owned by the caller.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args patListInput) (*mcp.CallToolResult, patListOutput, error) {
		tokens, err := s.tokenSvc.ListPATs(ctx, auth.IdentityFrom(ctx))
		if err != nil {
			return nil, patListOutput{}, err
		}
		views := make([]patView, len(tokens))
		for i, t := range tokens {
			views[i] = toPatView(t)
		}
		return nil, patListOutput{Tokens: views, Count: len(views)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpPATRevoke,
		Description: "Revoke a personal access token. Takes effect on the token's next use.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args patRevokeInput) (*mcp.CallToolResult, patRevokeOutput, error) {
		if err := s.tokenSvc.RevokePAT(ctx, auth.IdentityFrom(ctx), args.TokenID); err != nil {
			return nil, patRevokeOutput{}, err
		}
		return nil, patRevokeOutput{Revoked: true}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpPATRotate,
		Description: "Rotate a personal access token's secret, invalidating the old one immediately.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args patRotateInput) (*mcp.CallToolResult, patRotateOutput, error) {
		secret, token, err := s.tokenSvc.RotatePAT(ctx, auth.IdentityFrom(ctx), args.TokenID)
		if err != nil {
			return nil, patRotateOutput{}, err
		}
		return nil, patRotateOutput{Secret: secret, Token: toPatView(token)}, nil
	})
}
