package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kestrelworks/memoryd/internal/store"
	"github.com/kestrelworks/memoryd/internal/users"
)

func (s *Server) handleAdminListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	query := c.QueryParam("q")

	var (
		us  []*store.User
		err error
	)
	if query != "" {
		us, err = s.userSvc.Search(ctx, query)
	} else {
		us, err = s.userSvc.List(ctx)
	}
	if err != nil {
		return httpError(err)
	}

	out := make([]UserResponse, len(us))
	for i, u := range us {
		out[i] = toUserResponse(u)
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateUserRequest is the request body for PATCH /api/v1/admin/users/:id.
// Absent fields are untouched.
type UpdateUserRequest struct {
	Email       *string `json:"email,omitempty"`
	Password    *string `json:"password,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsSuperuser *bool   `json:"is_superuser,omitempty"`
}

func (s *Server) handleAdminUpdateUser(c echo.Context) error {
	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	u, err := s.userSvc.Update(c.Request().Context(), c.Param("id"), users.UpdateParams{
		Email:       req.Email,
		Password:    req.Password,
		IsActive:    req.IsActive,
		IsSuperuser: req.IsSuperuser,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

func (s *Server) handleAdminDeleteUser(c echo.Context) error {
	if err := s.userSvc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
