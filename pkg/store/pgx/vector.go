package pgx

import (
	"context"
	"fmt"

	"github.com/docsage/backend/pkg/rag"
	"github.com/docsage/backend/pkg/store"

	"github.com/pgvector/pgvector-go"
)

// IndexChunks stores chunks with their embeddings in a single transaction.
// Re-indexing a chunk replaces its embedding and text.
func (s *VectorStorage) IndexChunks(
	ctx context.Context,
	ownerID string,
	chunks []rag.Chunk,
	embeddings [][]float32,
) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d != %d", len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, chunk := range chunks {
		_, err := tx.Exec(ctx, `
			INSERT INTO chunk_vectors (id, document_id, owner_id, position, text, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
			SET text = excluded.text, embedding = excluded.embedding
		`, chunk.ID, chunk.DocumentID, ownerID, chunk.Position, chunk.Text, pgvector.NewVector(embeddings[i]))
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Search returns the chunks most similar to the query embedding under
// cosine distance, restricted to documents the owner may see. An empty
// documentIDs means no document filter.
func (s *VectorStorage) Search(
	ctx context.Context,
	ownerID string,
	embedding []float32,
	limit int,
	documentIDs []string,
) ([]rag.RetrievedChunk, error) {
	if limit <= 0 {
		return nil, nil
	}
	if len(documentIDs) == 0 {
		documentIDs = nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT v.id, v.document_id, d.filename, v.position, v.text,
		       1 - (v.embedding <=> $1) AS score
		FROM chunk_vectors v
		JOIN documents d ON d.id = v.document_id
		WHERE v.owner_id = ANY($2)
		  AND ($4::text[] IS NULL OR v.document_id = ANY($4))
		ORDER BY v.embedding <=> $1
		LIMIT $3
	`, pgvector.NewVector(embedding), store.OwnerFilter(ownerID), limit, documentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rag.RetrievedChunk
	for rows.Next() {
		var c rag.RetrievedChunk
		if err := rows.Scan(&c.ChunkID, &c.DocumentID, &c.Filename, &c.Position, &c.Text, &c.Score); err != nil {
			return nil, err
		}
		c.Method = rag.MethodVector
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteDocument removes every indexed chunk of the document.
func (s *VectorStorage) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM chunk_vectors WHERE document_id = $1`, documentID)
	return err
}
