package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/docsage/backend/internal/queue"
	"github.com/docsage/backend/internal/server/middleware"
	"github.com/docsage/backend/pkg/logger"
	"github.com/docsage/backend/pkg/rag"
)

// DeleteDocumentHandler enqueues removal of a document from both stores
// and from object storage. Only the owning tenant may delete; shared
// documents have no deleting owner through this API.
func DeleteDocumentHandler(c echo.Context) error {
	type deleteResponse struct {
		Message string `json:"message"`
	}

	ac := c.(*middleware.AppContext)
	ctx := c.Request().Context()
	documentID := c.Param("id")

	doc, err := ac.App.Graph.GetDocument(ctx, documentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return c.JSON(http.StatusNotFound, deleteResponse{Message: "Document not found"})
	}
	if err != nil {
		logger.Error("Failed to get document", "document", documentID, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteResponse{
			Message: "Internal server error",
		})
	}
	if doc.OwnerID != ac.OwnerID {
		// Another tenant's document looks like no document at all, same as
		// the read paths. Shared documents are visible but have no deleting
		// owner, so refusing them may name the reason.
		if doc.OwnerID != rag.OwnerShared {
			return c.JSON(http.StatusNotFound, deleteResponse{Message: "Document not found"})
		}
		return c.JSON(http.StatusForbidden, deleteResponse{Message: "Shared documents cannot be deleted"})
	}

	msg, err := json.Marshal(queue.DeleteMsg{
		DocumentID: documentID,
		ObjectKey:  fmt.Sprintf("documents/%s.txt", documentID),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, deleteResponse{
			Message: "Internal server error",
		})
	}
	if err := queue.PublishFIFO(ac.App.Queue, queue.DeleteQueue, msg); err != nil {
		logger.Error("Failed to enqueue deletion", "document", documentID, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteResponse{
			Message: "Failed to enqueue deletion",
		})
	}

	return c.JSON(http.StatusAccepted, deleteResponse{Message: "Document deletion queued"})
}
