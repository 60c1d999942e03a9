package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrelworks/memoryd/internal/auth"
)

// ===== AUTH TOOLS =====

type registerInput struct {
	Username string `json:"username" jsonschema:"required,Account username"`
	Email    string `json:"email" jsonschema:"required,Account email address"`
	Password string `json:"password" jsonschema:"required,Account password"`
}

type registerOutput struct {
	User userView `json:"user" jsonschema:"The created account"`
}

type loginInput struct {
	Username string `json:"username" jsonschema:"required,Username or email address"`
	Password string `json:"password" jsonschema:"required,Account password"`
}

type loginOutput struct {
	AccessToken  string   `json:"access_token" jsonschema:"Short-lived access token"`
	RefreshToken string   `json:"refresh_token" jsonschema:"Refresh token for the exchange endpoint"`
	ExpiresAt    string   `json:"expires_at" jsonschema:"Access token expiry (RFC 3339)"`
	User         userView `json:"user" jsonschema:"The authenticated account"`
}

type refreshInput struct {
	RefreshToken string `json:"refresh_token" jsonschema:"required,A live refresh token"`
}

type refreshOutput struct {
	AccessToken  string `json:"access_token" jsonschema:"New access token"`
	RefreshToken string `json:"refresh_token" jsonschema:"New refresh token"`
	ExpiresAt    string `json:"expires_at" jsonschema:"Access token expiry (RFC 3339)"`
}

type profileInput struct{}

type profileOutput struct {
	User userView `json:"user" jsonschema:"The calling account"`
}

func (s *Server) registerAuthTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpRegister,
		Description: "Register a new account. The first account on a fresh deployment becomes a superuser.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args registerInput) (*mcp.CallToolResult, registerOutput, error) {
		u, err := s.userSvc.Register(ctx, args.Username, args.Email, args.Password)
		if err != nil {
			return nil, registerOutput{}, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Registered user %s", u.Username)},
			},
		}, registerOutput{User: toUserView(u)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpLogin,
		Description: "Authenticate with username (or email) and password. Returns an access/refresh token pair.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args loginInput) (*mcp.CallToolResult, loginOutput, error) {
		pair, u, err := s.userSvc.Login(ctx, args.Username, args.Password)
		if err != nil {
			return nil, loginOutput{}, err
		}
		return nil, loginOutput{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresAt:    pair.ExpiresAt.Format(time.RFC3339),
			User:         toUserView(u),
		}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpRefresh,
		Description: "Exchange a live refresh token for a new access/refresh pair.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args refreshInput) (*mcp.CallToolResult, refreshOutput, error) {
		pair, err := s.userSvc.Refresh(ctx, args.RefreshToken)
		if err != nil {
			return nil, refreshOutput{}, err
		}
		return nil, refreshOutput{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresAt:    pair.ExpiresAt.Format(time.RFC3339),
		}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpProfile,
		Description: "Return the account of the calling identity.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args profileInput) (*mcp.CallToolResult, profileOutput, error) {
		u, err := s.userSvc.Profile(ctx)
		if err != nil {
			return nil, profileOutput{}, err
		}
		return nil, profileOutput{User: toUserView(u)}, nil
	})
}
