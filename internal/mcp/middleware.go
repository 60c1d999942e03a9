package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/kestrelworks/memoryd/internal/auth"
)

// credentialFrom extracts the raw bearer credential for this call. Probes
// in order: the explicit per-connection credential, the Authorization
// header, then the X-API-Key header. Empty means anonymous; a present but
// non-Bearer Authorization header is malformed, same as the HTTP surface.
func credentialFrom(ctx context.Context) (string, error) {
	if raw := auth.CredentialFrom(ctx); raw != "" {
		return raw, nil
	}
	if header := auth.HeaderFrom(ctx, "Authorization"); header != "" {
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			return "", auth.ErrMalformedCredential
		}
		raw := strings.TrimSpace(header[len(prefix):])
		if raw == "" {
			return "", auth.ErrMalformedCredential
		}
		return raw, nil
	}
	return auth.HeaderFrom(ctx, "X-API-Key"), nil
}

// authMiddleware is the receiving middleware that authenticates and
// authorizes every tool call, and filters the tool catalog per identity.
//
// For each intercepted method it attaches a fresh identity slot, resolves
// the credential into it, and clears the slot on every exit path. Tool
// handlers downstream read the identity with auth.IdentityFrom.
func (s *Server) authMiddleware(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		switch method {
		case "tools/call":
			call, ok := req.(*mcp.CallToolRequest)
			if !ok {
				return next(ctx, method, req)
			}
			ctx = auth.NewContext(ctx)
			defer auth.Clear(ctx)

			ident, err := s.resolveIdentity(ctx)
			if err != nil {
				return nil, err
			}
			if err := auth.Set(ctx, ident); err != nil {
				return nil, err
			}
			if err := s.policy.Authorize(call.Params.Name, ident); err != nil {
				s.logger.Warn("tool call denied",
					zap.String("tool", call.Params.Name),
					zap.String("identity_kind", string(ident.Kind())))
				return nil, err
			}
			return next(ctx, method, req)

		case "tools/list":
			ctx = auth.NewContext(ctx)
			defer auth.Clear(ctx)

			ident, err := s.resolveIdentity(ctx)
			if err != nil {
				// An unverifiable credential still gets the public catalog.
				ident = auth.Anonymous{}
			}
			res, err := next(ctx, method, req)
			if err != nil {
				return nil, err
			}
			if list, ok := res.(*mcp.ListToolsResult); ok {
				list.Tools = s.filterTools(ident, list.Tools)
			}
			return res, nil

		default:
			return next(ctx, method, req)
		}
	}
}

// resolveIdentity verifies this call's credential. No credential resolves
// to Anonymous; a present but failing credential is an error so a caller
// holding a bad token is told, not silently downgraded.
func (s *Server) resolveIdentity(ctx context.Context) (auth.Identity, error) {
	raw, err := credentialFrom(ctx)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return auth.Anonymous{}, nil
	}
	ident, err := s.verifier.Resolve(ctx, raw)
	if err != nil {
		if errors.Is(err, auth.ErrMissingCredential) {
			return auth.Anonymous{}, nil
		}
		return nil, err
	}
	return ident, nil
}

// filterTools narrows the advertised catalog to what the identity may
// invoke, preserving registration order.
func (s *Server) filterTools(ident auth.Identity, tools []*mcp.Tool) []*mcp.Tool {
	names := make([]string, len(tools))
	byName := make(map[string]*mcp.Tool, len(tools))
	for i, t := range tools {
		names[i] = t.Name
		byName[t.Name] = t
	}
	visible := s.policy.FilterVisible(ident, names)
	out := make([]*mcp.Tool, 0, len(visible))
	for _, name := range visible {
		out = append(out, byName[name])
	}
	return out
}
