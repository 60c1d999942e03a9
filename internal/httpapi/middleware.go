package httpapi

import (
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kestrelworks/memoryd/internal/auth"
)

// authMiddleware attaches a fresh identity slot to every request, resolves
// the bearer credential into it, and clears the slot when the request ends.
// Requests without a credential proceed anonymously; the per-route guards
// decide whether that is enough.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := auth.NewContext(req.Context())
		c.SetRequest(req.WithContext(ctx))
		defer auth.Clear(ctx)

		raw, err := extractCredential(req)
		if err != nil {
			return httpError(err)
		}

		ident := auth.Identity(auth.Anonymous{})
		if raw != "" {
			ident, err = s.verifier.Resolve(ctx, raw)
			if err != nil {
				return httpError(err)
			}
		}
		if err := auth.Set(ctx, ident); err != nil {
			return httpError(err)
		}
		return next(c)
	}
}

// extractCredential pulls the raw credential from the Authorization header
// (Bearer scheme) or the X-API-Key header. A present but non-Bearer
// Authorization header is malformed, not anonymous.
func extractCredential(req *http.Request) (string, error) {
	header := req.Header.Get(echo.HeaderAuthorization)
	if header != "" {
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
	return req.Header.Get("X-API-Key"), nil
}

// guard returns a middleware that authorizes the request's identity for
// one named operation before the handler runs.
func (s *Server) guard(operation string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := auth.IdentityFrom(c.Request().Context())
			if err := s.policy.Authorize(operation, ident); err != nil {
				s.logger.Warn("request denied",
					zap.String("operation", operation),
					zap.String("identity_kind", string(ident.Kind())),
					zap.String("path", c.Path()))
				return httpError(err)
			}
			return next(c)
		}
	}
}

// loginLimiter rate-limits login attempts per client IP to slow down
// credential stuffing. Limiters are kept per IP and never expire; the map
// is bounded in practice by the address space behind the deployment.
type loginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newLoginLimiter(perSecond float64, burst int) *loginLimiter {
	return &loginLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *loginLimiter) allow(ip string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// rateLimitLogin rejects login attempts beyond the per-IP budget.
func (s *Server) rateLimitLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.loginLimiter.allow(c.RealIP()) {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
		}
		return next(c)
	}
}
