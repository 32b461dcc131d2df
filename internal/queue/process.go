package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/docsage/backend/internal/progress"
	"github.com/docsage/backend/internal/storage"
	"github.com/docsage/backend/internal/util"
	"github.com/docsage/backend/pkg/ingest"
	"github.com/docsage/backend/pkg/logger"
	"github.com/docsage/backend/pkg/rag"
)

// ProcessIngestMessage fetches the uploaded text from object storage and
// runs the full ingestion pipeline for it.
func ProcessIngestMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	orch *ingest.Orchestrator,
	tracker *progress.Tracker,
	msg string,
) error {
	data := new(IngestMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	if _, err := tracker.Update(ctx, data.DocumentID, progress.StatusExtractingText, "Reading document"); err != nil {
		logger.Warn("Failed to update progress", "document", data.DocumentID, "err", err)
	}

	text, err := util.RetryWithContext(ctx, 3, func(ctx context.Context) ([]byte, error) {
		return storage.GetFile(ctx, s3Client, data.ObjectKey)
	})
	if err != nil {
		if _, failErr := tracker.Fail(ctx, data.DocumentID, "could not read uploaded file"); failErr != nil {
			logger.Error("Failed to record failure", "document", data.DocumentID, "err", failErr)
		}
		return fmt.Errorf("failed to fetch %s: %w", data.ObjectKey, err)
	}

	doc := rag.Document{
		ID:       data.DocumentID,
		OwnerID:  data.OwnerID,
		Filename: data.Filename,
	}
	if err := orch.Ingest(ctx, doc, string(text)); err != nil {
		if !retryable(err) {
			logger.Warn("Ingestion failed terminally, not retrying", "document", data.DocumentID, "err", err)
			return nil
		}
		return err
	}
	return nil
}

// retryable reports whether a redelivery of the message could succeed.
// Terminal failures are already recorded on the progress tracker; bouncing
// them through the retry queue only delays the DLQ for a document that can
// never ingest.
func retryable(err error) bool {
	return !errors.Is(err, ingest.ErrEmptyDocument)
}

// ProcessDeleteMessage removes a document from both stores, then drops the
// stored file. A missing file is logged but does not fail the message.
func ProcessDeleteMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	orch *ingest.Orchestrator,
	msg string,
) error {
	data := new(DeleteMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	if err := orch.Delete(ctx, data.DocumentID); err != nil {
		return err
	}
	err := util.RetryErrWithContext(ctx, 3, func(ctx context.Context) error {
		return storage.DeleteFile(ctx, s3Client, data.ObjectKey)
	})
	if err != nil {
		logger.Warn("Failed to delete stored file", "key", data.ObjectKey, "err", err)
	}
	return nil
}
