package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrelworks/memoryd/internal/auth"
	"github.com/kestrelworks/memoryd/internal/users"
)

// ===== ADMIN TOOLS =====

type adminListUsersInput struct {
	Query string `json:"query,omitempty" jsonschema:"Username/email substring filter"`
}

type adminListUsersOutput struct {
	Users []userView `json:"users" jsonschema:"Matching accounts"`
	Count int        `json:"count" jsonschema:"Number of accounts"`
}

type adminUpdateUserInput struct {
	UserID      string  `json:"user_id" jsonschema:"required,Target account identifier"`
	Email       *string `json:"email,omitempty" jsonschema:"New email address"`
	Password    *string `json:"password,omitempty" jsonschema:"New password"`
	IsActive    *bool   `json:"is_active,omitempty" jsonschema:"Activate or deactivate the account"`
	IsSuperuser *bool   `json:"is_superuser,omitempty" jsonschema:"Grant or revoke superuser"`
}

type adminUpdateUserOutput struct {
	User userView `json:"user" jsonschema:"The updated account"`
}

type adminDeleteUserInput struct {
	UserID string `json:"user_id" jsonschema:"required,Target account identifier"`
}

type adminDeleteUserOutput struct {
	Deleted bool `json:"deleted" jsonschema:"True when the account was removed"`
}

func (s *Server) registerAdminTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpAdminListUsers,
		Description: "List accounts, optionally filtered by a username/email substring.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args adminListUsersInput) (*mcp.CallToolResult, adminListUsersOutput, error) {
		var found []userView
		if args.Query != "" {
			us, err := s.userSvc.Search(ctx, args.Query)
			if err != nil {
				return nil, adminListUsersOutput{}, err
			}
			for _, u := range us {
				found = append(found, toUserView(u))
			}
		} else {
			us, err := s.userSvc.List(ctx)
			if err != nil {
				return nil, adminListUsersOutput{}, err
			}
			for _, u := range us {
				found = append(found, toUserView(u))
			}
		}
		return nil, adminListUsersOutput{Users: found, Count: len(found)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpAdminUpdateUser,
		Description: "Update an account's email, password, active flag, or superuser flag.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args adminUpdateUserInput) (*mcp.CallToolResult, adminUpdateUserOutput, error) {
		u, err := s.userSvc.Update(ctx, args.UserID, users.UpdateParams{
			Email:       args.Email,
			Password:    args.Password,
			IsActive:    args.IsActive,
			IsSuperuser: args.IsSuperuser,
		})
		if err != nil {
			return nil, adminUpdateUserOutput{}, err
		}
		return nil, adminUpdateUserOutput{User: toUserView(u)}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpAdminDeleteUser,
		Description: "Delete an account. Self-deletion and removing the last superuser are refused.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args adminDeleteUserInput) (*mcp.CallToolResult, adminDeleteUserOutput, error) {
		if err := s.userSvc.Delete(ctx, args.UserID); err != nil {
			return nil, adminDeleteUserOutput{}, err
		}
		return nil, adminDeleteUserOutput{Deleted: true}, nil
	})
}
