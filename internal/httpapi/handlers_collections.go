package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kestrelworks/memoryd/internal/store"
)

// CollectionResponse is the JSON shape of a collection.
type CollectionResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toCollectionResponse(c *store.Collection) CollectionResponse {
	return CollectionResponse{
		ID:        c.ID,
		Name:      c.Name,
		OwnerID:   c.OwnerID,
		CreatedAt: c.CreatedAt,
	}
}

// CollectionRequest is the request body for create and rename.
type CollectionRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCollectionCreate(c echo.Context) error {
	var req CollectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	coll, err := s.collSvc.Create(c.Request().Context(), req.Name)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toCollectionResponse(coll))
}

func (s *Server) handleCollectionList(c echo.Context) error {
	colls, err := s.collSvc.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	out := make([]CollectionResponse, len(colls))
	for i, coll := range colls {
		out[i] = toCollectionResponse(coll)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleCollectionRename(c echo.Context) error {
	var req CollectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	coll, err := s.collSvc.Rename(c.Request().Context(), c.Param("id"), req.Name)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toCollectionResponse(coll))
}

func (s *Server) handleCollectionDelete(c echo.Context) error {
	if err := s.collSvc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
