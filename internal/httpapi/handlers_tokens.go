package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kestrelworks/memoryd/internal/auth"
	"github.com/kestrelworks/memoryd/internal/store"
)

// CatTokenResponse is the JSON shape of a collection access token record.
// The plaintext secret appears only in issuance and rotation responses.
type CatTokenResponse struct {
	ID           string     `json:"id"`
	Label        string     `json:"label"`
	CollectionID string     `json:"collection_id"`
	Permission   string     `json:"permission"`
	IsActive     bool       `json:"is_active"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toCatTokenResponse(t *store.CatToken) CatTokenResponse {
	return CatTokenResponse{
		ID:           t.ID,
		Label:        t.Label,
		CollectionID: t.CollectionID,
		Permission:   t.Permission,
		IsActive:     t.IsActive,
		ExpiresAt:    t.ExpiresAt,
		LastUsedAt:   t.LastUsedAt,
		CreatedAt:    t.CreatedAt,
	}
}

// PatTokenResponse is the JSON shape of a personal access token record.
type PatTokenResponse struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	Scopes     []string   `json:"scopes"`
	IsActive   bool       `json:"is_active"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toPatTokenResponse(t *store.PatToken) PatTokenResponse {
	return PatTokenResponse{
		ID:         t.ID,
		Label:      t.Label,
		Scopes:     t.Scopes,
		IsActive:   t.IsActive,
		ExpiresAt:  t.ExpiresAt,
		LastUsedAt: t.LastUsedAt,
		CreatedAt:  t.CreatedAt,
	}
}

// CreateCatTokenRequest is the request body for POST /api/v1/tokens.
type CreateCatTokenRequest struct {
	CollectionID  string `json:"collection_id"`
	Label         string `json:"label,omitempty"`
	Permission    string `json:"permission"`
	ExpirySeconds int64  `json:"expiry_seconds,omitempty"`
}

// IssuedCatTokenResponse carries the plaintext secret exactly once.
type IssuedCatTokenResponse struct {
	Secret string           `json:"secret"`
	Token  CatTokenResponse `json:"token"`
}

func ttlFromSeconds(seconds int64) *time.Duration {
	if seconds <= 0 {
		return nil
	}
	d := time.Duration(seconds) * time.Second
	return &d
}

func (s *Server) handleCATCreate(c echo.Context) error {
	var req CreateCatTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.CollectionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "collection_id is required")
	}

	ctx := c.Request().Context()
	secret, token, err := s.tokenSvc.IssueCAT(ctx, auth.IdentityFrom(ctx),
		req.CollectionID, req.Label, auth.Permission(req.Permission), ttlFromSeconds(req.ExpirySeconds))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, IssuedCatTokenResponse{
		Secret: secret,
		Token:  toCatTokenResponse(token),
	})
}

func (s *Server) handleCATList(c echo.Context) error {
	ctx := c.Request().Context()
	tokens, err := s.tokenSvc.ListCATs(ctx, auth.IdentityFrom(ctx))
	if err != nil {
		return httpError(err)
	}
	out := make([]CatTokenResponse, len(tokens))
	for i, t := range tokens {
		out[i] = toCatTokenResponse(t)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleCATRotate(c echo.Context) error {
	ctx := c.Request().Context()
	secret, token, err := s.tokenSvc.RotateCAT(ctx, auth.IdentityFrom(ctx), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, IssuedCatTokenResponse{
		Secret: secret,
		Token:  toCatTokenResponse(token),
	})
}

func (s *Server) handleCATRevoke(c echo.Context) error {
	ctx := c.Request().Context()
	if err := s.tokenSvc.RevokeCAT(ctx, auth.IdentityFrom(ctx), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CreatePatTokenRequest is the request body for POST /api/v1/pats.
type CreatePatTokenRequest struct {
	Label         string `json:"label,omitempty"`
	ExpirySeconds int64  `json:"expiry_seconds,omitempty"`
}

// IssuedPatTokenResponse carries the plaintext secret exactly once.
type IssuedPatTokenResponse struct {
	Secret string           `json:"secret"`
	Token  PatTokenResponse `json:"token"`
}

func (s *Server) handlePATCreate(c echo.Context) error {
	var req CreatePatTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	secret, token, err := s.tokenSvc.IssuePAT(ctx, auth.IdentityFrom(ctx),
		req.Label, ttlFromSeconds(req.ExpirySeconds))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, IssuedPatTokenResponse{
		Secret: secret,
		Token:  toPatTokenResponse(token),
	})
}

func (s *Server) handlePATList(c echo.Context) error {
	ctx := c.Request().Context()
	tokens, err := s.tokenSvc.ListPATs(ctx, auth.IdentityFrom(ctx))
	if err != nil {
		return httpError(err)
	}
	out := make([]PatTokenResponse, len(tokens))
	for i, t := range tokens {
		out[i] = toPatTokenResponse(t)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handlePATRotate(c echo.Context) error {
	ctx := c.Request().Context()
	secret, token, err := s.tokenSvc.RotatePAT(ctx, auth.IdentityFrom(ctx), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, IssuedPatTokenResponse{
		Secret: secret,
		Token:  toPatTokenResponse(token),
	})
}

func (s *Server) handlePATRevoke(c echo.Context) error {
	ctx := c.Request().Context()
	if err := s.tokenSvc.RevokePAT(ctx, auth.IdentityFrom(ctx), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
