package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/docsage/backend/internal/queue"
	"github.com/docsage/backend/internal/server/middleware"
	"github.com/docsage/backend/internal/storage"
	"github.com/docsage/backend/pkg/logger"
	"github.com/docsage/backend/pkg/rag"
)

// UploadDocumentHandler accepts a document as multipart/form-data (field
// "file"), stages its text in object storage, and enqueues ingestion. The
// response returns immediately with the document ID; processing status is
// polled separately.
func UploadDocumentHandler(c echo.Context) error {
	type uploadResponse struct {
		Message    string        `json:"message"`
		DocumentID string        `json:"document_id,omitempty"`
		Document   *rag.Document `json:"document,omitempty"`
	}

	ac := c.(*middleware.AppContext)
	ctx := c.Request().Context()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, uploadResponse{
			Message: "Missing file upload",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, uploadResponse{
			Message: "Unreadable file upload",
		})
	}
	defer file.Close()

	documentID, err := gonanoid.New()
	if err != nil {
		logger.Error("Failed to generate document id", "err", err)
		return c.JSON(http.StatusInternalServerError, uploadResponse{
			Message: "Internal server error",
		})
	}

	objectKey, err := storage.PutFile(ctx, ac.App.S3, documentID, file)
	if err != nil {
		logger.Error("Failed to stage upload", "document", documentID, "err", err)
		return c.JSON(http.StatusInternalServerError, uploadResponse{
			Message: "Failed to store upload",
		})
	}

	if _, err := ac.App.Tracker.Create(ctx, documentID, ac.OwnerID, fileHeader.Filename); err != nil {
		logger.Error("Failed to create progress record", "document", documentID, "err", err)
		return c.JSON(http.StatusInternalServerError, uploadResponse{
			Message: "Internal server error",
		})
	}

	msg, err := json.Marshal(queue.IngestMsg{
		DocumentID: documentID,
		OwnerID:    ac.OwnerID,
		Filename:   fileHeader.Filename,
		ObjectKey:  objectKey,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, uploadResponse{
			Message: "Internal server error",
		})
	}
	if err := queue.PublishFIFO(ac.App.Queue, queue.IngestQueue, msg); err != nil {
		logger.Error("Failed to enqueue ingestion", "document", documentID, "err", err)
		return c.JSON(http.StatusInternalServerError, uploadResponse{
			Message: "Failed to enqueue ingestion",
		})
	}

	return c.JSON(http.StatusAccepted, uploadResponse{
		Message:    "Document queued for processing",
		DocumentID: documentID,
		Document: &rag.Document{
			ID:         documentID,
			OwnerID:    ac.OwnerID,
			Filename:   fileHeader.Filename,
			UploadedAt: time.Now().UTC(),
		},
	})
}
