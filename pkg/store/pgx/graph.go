package pgx

import (
	"context"
	"time"

	"github.com/docsage/backend/pkg/rag"
	"github.com/docsage/backend/pkg/store"
)

// SaveDocument persists the document record and its chunks in one
// transaction. Saving an existing document replaces its chunk set.
func (s *GraphStorage) SaveDocument(
	ctx context.Context,
	doc rag.Document,
	chunks []rag.Chunk,
) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	uploadedAt := doc.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO documents (id, owner_id, filename, chunk_count, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET filename = excluded.filename, chunk_count = excluded.chunk_count
	`, doc.ID, doc.OwnerID, doc.Filename, len(chunks), uploadedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, doc.ID)
	if err != nil {
		return err
	}

	for _, chunk := range chunks {
		_, err := tx.Exec(ctx, `
			INSERT INTO chunks (id, document_id, position, text)
			VALUES ($1, $2, $3, $4)
		`, chunk.ID, doc.ID, chunk.Position, chunk.Text)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// SaveExtractions merges extraction results into the graph. Entities merge
// on (normalized name, type) so the same entity mentioned across documents
// becomes a single node; the first-seen surface name wins. Relationships
// resolve their endpoints against the entities of the same chunk and keep
// the first-seen description.
func (s *GraphStorage) SaveExtractions(
	ctx context.Context,
	chunks []rag.Chunk,
	extractions []rag.Extraction,
) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, chunk := range chunks {
		if i >= len(extractions) {
			break
		}
		extraction := extractions[i]
		if len(extraction.Entities) == 0 {
			continue
		}

		// entity id by normalized name, used to resolve relationship
		// endpoints within this chunk
		ids := make(map[string]int64, len(extraction.Entities))
		for _, entity := range extraction.Entities {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO entities (normalized_name, type, name)
				VALUES ($1, $2, $3)
				ON CONFLICT (normalized_name, type) DO UPDATE
				SET name = entities.name
				RETURNING id
			`, entity.NormalizedName, entity.Type, entity.Name).Scan(&id)
			if err != nil {
				return err
			}
			if _, ok := ids[entity.NormalizedName]; !ok {
				ids[entity.NormalizedName] = id
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO entity_mentions (entity_id, chunk_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, id, chunk.ID)
			if err != nil {
				return err
			}
		}

		for _, rel := range extraction.Relationships {
			sourceID, ok := ids[rel.SourceNormalized]
			if !ok {
				continue
			}
			targetID, ok := ids[rel.TargetNormalized]
			if !ok {
				continue
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO entity_relations (source_id, target_id, type, description)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (source_id, target_id, type) DO NOTHING
			`, sourceID, targetID, rel.Type, rel.Description)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

// GetDocument fetches a single document record.
func (s *GraphStorage) GetDocument(ctx context.Context, documentID string) (rag.Document, error) {
	var doc rag.Document
	err := s.conn.QueryRow(ctx, `
		SELECT id, owner_id, filename, chunk_count, uploaded_at
		FROM documents
		WHERE id = $1
	`, documentID).Scan(&doc.ID, &doc.OwnerID, &doc.Filename, &doc.ChunkCount, &doc.UploadedAt)
	return doc, err
}

// ListDocuments returns the documents visible to the owner, newest first.
func (s *GraphStorage) ListDocuments(ctx context.Context, ownerID string) ([]rag.Document, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, owner_id, filename, chunk_count, uploaded_at
		FROM documents
		WHERE owner_id = ANY($1)
		ORDER BY uploaded_at DESC
	`, store.OwnerFilter(ownerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rag.Document
	for rows.Next() {
		var doc rag.Document
		if err := rows.Scan(&doc.ID, &doc.OwnerID, &doc.Filename, &doc.ChunkCount, &doc.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// DeleteDocument removes the document with its chunks and mentions, then
// collects entities that no chunk mentions anymore. Relations of collected
// entities go with them.
func (s *GraphStorage) DeleteDocument(ctx context.Context, documentID string) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM entities e
		WHERE NOT EXISTS (
			SELECT 1 FROM entity_mentions m WHERE m.entity_id = e.id
		)
	`)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
