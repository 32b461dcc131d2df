package routes

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/docsage/backend/internal/progress"
	"github.com/docsage/backend/internal/server/middleware"
	"github.com/docsage/backend/pkg/logger"
	"github.com/docsage/backend/pkg/rag"
)

// ListDocumentsHandler returns the documents visible to the requesting
// owner, including shared ones.
func ListDocumentsHandler(c echo.Context) error {
	type listResponse struct {
		Message   string         `json:"message"`
		Documents []rag.Document `json:"documents"`
	}

	ac := c.(*middleware.AppContext)
	docs, err := ac.App.Graph.ListDocuments(c.Request().Context(), ac.OwnerID)
	if err != nil {
		logger.Error("Failed to list documents", "err", err)
		return c.JSON(http.StatusInternalServerError, listResponse{
			Message: "Internal server error",
		})
	}
	if docs == nil {
		docs = []rag.Document{}
	}
	return c.JSON(http.StatusOK, listResponse{
		Message:   "OK",
		Documents: docs,
	})
}

// GetDocumentHandler returns one document record.
func GetDocumentHandler(c echo.Context) error {
	type getResponse struct {
		Message  string        `json:"message"`
		Document *rag.Document `json:"document,omitempty"`
	}

	ac := c.(*middleware.AppContext)
	doc, err := ac.App.Graph.GetDocument(c.Request().Context(), c.Param("id"))
	if errors.Is(err, pgx.ErrNoRows) {
		return c.JSON(http.StatusNotFound, getResponse{Message: "Document not found"})
	}
	if err != nil {
		logger.Error("Failed to get document", "document", c.Param("id"), "err", err)
		return c.JSON(http.StatusInternalServerError, getResponse{
			Message: "Internal server error",
		})
	}
	if doc.OwnerID != ac.OwnerID && doc.OwnerID != rag.OwnerShared {
		return c.JSON(http.StatusNotFound, getResponse{Message: "Document not found"})
	}
	return c.JSON(http.StatusOK, getResponse{Message: "OK", Document: &doc})
}

// GetDocumentStatusHandler returns the ingestion progress record for a
// document. Records expire an hour after the last update, so long-finished
// documents report not found here while remaining queryable as documents.
func GetDocumentStatusHandler(c echo.Context) error {
	type statusResponse struct {
		Message string           `json:"message"`
		Status  *progress.Record `json:"status,omitempty"`
	}

	ac := c.(*middleware.AppContext)
	record, err := ac.App.Tracker.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, progress.ErrNotFound) {
		return c.JSON(http.StatusNotFound, statusResponse{Message: "No status for document"})
	}
	if err != nil {
		logger.Error("Failed to get progress", "document", c.Param("id"), "err", err)
		return c.JSON(http.StatusInternalServerError, statusResponse{
			Message: "Internal server error",
		})
	}
	if record.OwnerID != ac.OwnerID {
		return c.JSON(http.StatusNotFound, statusResponse{Message: "No status for document"})
	}
	return c.JSON(http.StatusOK, statusResponse{Message: "OK", Status: &record})
}
