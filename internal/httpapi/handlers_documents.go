package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DocumentRequest is the request body for POST .../documents.
type DocumentRequest struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (s *Server) handleDocumentStore(c echo.Context) error {
	var req DocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content field is required")
	}

	doc, err := s.docSvc.Store(c.Request().Context(), c.Param("id"), req.Content, req.Metadata)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, doc)
}

// SearchRequest is the request body for POST .../search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

func (s *Server) handleDocumentSearch(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}

	hits, err := s.docSvc.Search(c.Request().Context(), c.Param("id"), req.Query, req.Limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, hits)
}

func (s *Server) handleDocumentGet(c echo.Context) error {
	doc, err := s.docSvc.Get(c.Request().Context(), c.Param("id"), c.Param("doc"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, doc)
}

func (s *Server) handleDocumentDelete(c echo.Context) error {
	if err := s.docSvc.Delete(c.Request().Context(), c.Param("id"), c.Param("doc")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
