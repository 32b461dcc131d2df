// Package progress tracks per-document ingestion state in Redis so status
// survives restarts and is readable from both the API and the worker. Each
// document has a single writer (its ingestion job) and any number of
// readers.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Status is an ingestion pipeline stage. Stages advance linearly; failed
// is reachable from anywhere. completed is final; failed ends an attempt
// but a redelivered job may start the record over.
type Status string

const (
	StatusPending            Status = "pending"
	StatusExtractingText     Status = "extracting_text"
	StatusChunking           Status = "chunking"
	StatusEmbedding          Status = "embedding"
	StatusIndexing           Status = "indexing"
	StatusExtractingEntities Status = "extracting_entities"
	StatusCompleted          Status = "completed"
	StatusFailed             Status = "failed"
)

// stageProgress maps each stage to its baseline percentage. Entity
// extraction reports finer-grained per-chunk progress on top of its
// baseline.
var stageProgress = map[Status]int{
	StatusPending:            0,
	StatusExtractingText:     10,
	StatusChunking:           25,
	StatusEmbedding:          40,
	StatusIndexing:           60,
	StatusExtractingEntities: 75,
	StatusCompleted:          100,
}

// Terminal reports whether s ends an ingestion attempt.
func Terminal(s Status) bool {
	return s == StatusCompleted || s == StatusFailed
}

const (
	keyPrefix  = "ingest:"
	defaultTTL = time.Hour
)

// ErrNotFound is returned when no progress record exists for a document.
var ErrNotFound = errors.New("progress record not found")

// Record is the externally readable progress state of one document.
// Version increments on every write, so readers can order observations.
type Record struct {
	DocumentID string    `json:"document_id"`
	OwnerID    string    `json:"owner_id"`
	Filename   string    `json:"filename"`
	Status     Status    `json:"status"`
	Progress   int       `json:"progress"`
	Message    string    `json:"message"`
	Error      string    `json:"error,omitempty"`
	Version    int64     `json:"version"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Tracker reads and writes progress records.
//
// A Tracker should be created using NewTracker.
type Tracker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTracker creates a Tracker on the given Redis client. Records expire
// one hour after their last write.
func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{rdb: rdb, ttl: defaultTTL}
}

func key(documentID string) string {
	return keyPrefix + documentID
}

func (t *Tracker) write(ctx context.Context, record Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return t.rdb.Set(ctx, key(record.DocumentID), raw, t.ttl).Err()
}

// Create initializes a pending record for a freshly enqueued document.
func (t *Tracker) Create(ctx context.Context, documentID, ownerID, filename string) (Record, error) {
	record := Record{
		DocumentID: documentID,
		OwnerID:    ownerID,
		Filename:   filename,
		Status:     StatusPending,
		Progress:   0,
		Message:    "Queued for processing",
		Version:    1,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := t.write(ctx, record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Get returns the current record, or ErrNotFound if none exists (records
// expire an hour after the last update).
func (t *Tracker) Get(ctx context.Context, documentID string) (Record, error) {
	raw, err := t.rdb.Get(ctx, key(documentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Update advances the record to the given stage with its baseline
// percentage.
func (t *Tracker) Update(ctx context.Context, documentID string, status Status, message string) (Record, error) {
	return t.UpdateProgress(ctx, documentID, status, message, stageProgress[status])
}

// UpdateProgress advances the record with an explicit percentage. Progress
// never regresses within an attempt: a lower percentage keeps the stored
// one. Writes after completion are ignored; a write after a failure is a
// redelivered job starting over, so the record leaves the failed state and
// progress restarts from the new percentage.
func (t *Tracker) UpdateProgress(ctx context.Context, documentID string, status Status, message string, percent int) (Record, error) {
	record, err := t.Get(ctx, documentID)
	if err != nil {
		return Record{}, err
	}
	if record.Status == StatusCompleted {
		return record, nil
	}

	if record.Status == StatusFailed {
		record.Error = ""
		record.Progress = percent
	} else if percent > record.Progress {
		record.Progress = percent
	}
	record.Status = status
	record.Message = message
	record.Version++
	record.UpdatedAt = time.Now().UTC()

	if err := t.write(ctx, record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Complete marks the document done at 100 percent.
func (t *Tracker) Complete(ctx context.Context, documentID, message string) (Record, error) {
	if message == "" {
		message = "Processing complete"
	}
	return t.UpdateProgress(ctx, documentID, StatusCompleted, message, 100)
}

// Fail marks the document failed with the error attached. Progress stays
// where it was so readers can see how far ingestion got.
func (t *Tracker) Fail(ctx context.Context, documentID, errMsg string) (Record, error) {
	record, err := t.Get(ctx, documentID)
	if err != nil {
		return Record{}, err
	}
	if Terminal(record.Status) {
		return record, nil
	}

	record.Status = StatusFailed
	record.Message = "Processing failed"
	record.Error = errMsg
	record.Version++
	record.UpdatedAt = time.Now().UTC()

	if err := t.write(ctx, record); err != nil {
		return Record{}, err
	}
	return record, nil
}
