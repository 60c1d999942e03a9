package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kestrelworks/memoryd/internal/auth"
	"github.com/kestrelworks/memoryd/internal/collections"
	"github.com/kestrelworks/memoryd/internal/documents"
	"github.com/kestrelworks/memoryd/internal/store"
	"github.com/kestrelworks/memoryd/internal/users"
)

// httpError converts service errors to echo HTTP errors.
//
// Credential failures map to 401, permission failures to 403, masked
// lookups to 404. Conflict-shaped refusals (duplicates, last superuser,
// active tokens) map to 409.
func httpError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrMissingCredential),
		errors.Is(err, auth.ErrMalformedCredential),
		errors.Is(err, auth.ErrInvalidCredential),
		errors.Is(err, auth.ErrExpiredCredential),
		errors.Is(err, auth.ErrRevokedCredential),
		errors.Is(err, users.ErrInvalidLogin):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrInsufficientPermission),
		errors.Is(err, auth.ErrSelfProtection):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, documents.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, users.ErrLastSuperuser),
		errors.Is(err, collections.ErrHasActiveTokens):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrExpiryTooLong),
		errors.Is(err, auth.ErrInvalidPermission):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
