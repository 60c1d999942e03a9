package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestrelworks/memoryd/internal/auth"
	"github.com/kestrelworks/memoryd/internal/store"
)

// registerTools registers all MCP tools with the server. Tool names are
// the shared operation names the policy table is keyed by.
func (s *Server) registerTools() error {
	s.registerAuthTools()
	s.registerCollectionTools()
	s.registerDocumentTools()
	s.registerTokenTools()
	s.registerAdminTools()
	s.registerHealthTool()
	return nil
}

// ===== SHARED VIEWS =====

type userView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
	CreatedAt   string `json:"created_at"`
}

func toUserView(u *store.User) userView {
	return userView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}

type collectionView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"owner_id"`
	CreatedAt string `json:"created_at"`
}

func toCollectionView(c *store.Collection) collectionView {
	return collectionView{
		ID:        c.ID,
		Name:      c.Name,
		OwnerID:   c.OwnerID,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

type catView struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	CollectionID string `json:"collection_id"`
	Permission   string `json:"permission"`
	IsActive     bool   `json:"is_active"`
	ExpiresAt    string `json:"expires_at,omitempty"`
	LastUsedAt   string `json:"last_used_at,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func toCatView(t *store.CatToken) catView {
	v := catView{
		ID:           t.ID,
		Label:        t.Label,
		CollectionID: t.CollectionID,
		Permission:   t.Permission,
		IsActive:     t.IsActive,
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
	}
	if t.ExpiresAt != nil {
		v.ExpiresAt = t.ExpiresAt.Format(time.RFC3339)
	}
	if t.LastUsedAt != nil {
		v.LastUsedAt = t.LastUsedAt.Format(time.RFC3339)
	}
	return v
}

type patView struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Scopes     []string `json:"scopes"`
	IsActive   bool     `json:"is_active"`
	ExpiresAt  string   `json:"expires_at,omitempty"`
	LastUsedAt string   `json:"last_used_at,omitempty"`
	CreatedAt  string   `json:"created_at"`
}

func toPatView(t *store.PatToken) patView {
	v := patView{
		ID:        t.ID,
		Label:     t.Label,
		Scopes:    t.Scopes,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
	if t.ExpiresAt != nil {
		v.ExpiresAt = t.ExpiresAt.Format(time.RFC3339)
	}
	if t.LastUsedAt != nil {
		v.LastUsedAt = t.LastUsedAt.Format(time.RFC3339)
	}
	return v
}

// ttlFromSeconds converts an optional seconds field to a duration pointer.
func ttlFromSeconds(seconds int64) *time.Duration {
	if seconds <= 0 {
		return nil
	}
	d := time.Duration(seconds) * time.Second
	return &d
}

// ===== HEALTH TOOL =====

type healthInput struct{}

type healthOutput struct {
	Status string `json:"status" jsonschema:"Service status"`
}

func (s *Server) registerHealthTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        auth.OpHealth,
		Description: "Report service health.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args healthInput) (*mcp.CallToolResult, healthOutput, error) {
		return nil, healthOutput{Status: "ok"}, nil
	})
}
