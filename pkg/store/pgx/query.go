package pgx

import (
	"context"

	"github.com/docsage/backend/pkg/rag"
	"github.com/docsage/backend/pkg/store"
)

// LookupEntityChunks returns chunks where any of the given normalized
// entity names appears, restricted to documents the owner may see. Each
// chunk carries the entity that matched it. An empty documentIDs means no
// document filter.
func (s *GraphStorage) LookupEntityChunks(
	ctx context.Context,
	ownerID string,
	normalizedNames []string,
	limit int,
	documentIDs []string,
) ([]rag.RetrievedChunk, error) {
	if len(normalizedNames) == 0 || limit <= 0 {
		return nil, nil
	}
	if len(documentIDs) == 0 {
		documentIDs = nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT DISTINCT ON (c.id)
		       c.id, c.document_id, d.filename, c.position, c.text,
		       e.name, e.type
		FROM entities e
		JOIN entity_mentions m ON m.entity_id = e.id
		JOIN chunks c ON c.id = m.chunk_id
		JOIN documents d ON d.id = c.document_id
		WHERE e.normalized_name = ANY($1)
		  AND d.owner_id = ANY($2)
		  AND ($4::text[] IS NULL OR c.document_id = ANY($4))
		ORDER BY c.id
		LIMIT $3
	`, normalizedNames, store.OwnerFilter(ownerID), limit, documentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rag.RetrievedChunk
	for rows.Next() {
		var c rag.RetrievedChunk
		if err := rows.Scan(&c.ChunkID, &c.DocumentID, &c.Filename, &c.Position, &c.Text, &c.MatchedEntity, &c.MatchedType); err != nil {
			return nil, err
		}
		c.Method = rag.MethodGraph
		out = append(out, c)
	}
	return out, rows.Err()
}

// ExpandChunk walks relationship edges outward from the chunk's entities,
// up to maxHops edges, and returns tuples pointing at other chunks where
// the reached entities appear. The walk is undirected and the result is
// capped at limit to keep expansion bounded.
func (s *GraphStorage) ExpandChunk(
	ctx context.Context,
	chunkID string,
	maxHops int,
	limit int,
) ([]rag.EntityRelation, error) {
	if maxHops <= 0 || limit <= 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		WITH RECURSIVE walk AS (
			SELECT m.entity_id AS start_id,
			       m.entity_id AS entity_id,
			       0 AS depth,
			       NULL::text AS rel_type
			FROM entity_mentions m
			WHERE m.chunk_id = $1
			UNION
			SELECT w.start_id,
			       CASE WHEN r.source_id = w.entity_id
			            THEN r.target_id
			            ELSE r.source_id END,
			       w.depth + 1,
			       r.type
			FROM walk w
			JOIN entity_relations r
			  ON r.source_id = w.entity_id OR r.target_id = w.entity_id
			WHERE w.depth < $2
		)
		SELECT DISTINCT ON (w.start_id, w.entity_id, c.id)
		       e.name, e.type, re.name, re.type, w.rel_type, w.depth, c.id, c.text
		FROM walk w
		JOIN entities e ON e.id = w.start_id
		JOIN entities re ON re.id = w.entity_id
		JOIN entity_mentions m ON m.entity_id = w.entity_id
		JOIN chunks c ON c.id = m.chunk_id
		WHERE w.depth > 0
		  AND w.entity_id <> w.start_id
		  AND c.id <> $1
		ORDER BY w.start_id, w.entity_id, c.id, w.depth
		LIMIT $3
	`, chunkID, maxHops, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rag.EntityRelation
	for rows.Next() {
		var rel rag.EntityRelation
		var relType *string
		if err := rows.Scan(&rel.Entity, &rel.EntityType, &rel.RelatedEntity, &rel.RelatedEntityType, &relType, &rel.Hops, &rel.RelatedChunkID, &rel.RelatedChunkText); err != nil {
			return nil, err
		}
		if relType != nil {
			rel.Relation = rag.RelationType(*relType)
		}
		out = append(out, rel)
	}
	return out, rows.Err()
}

// SiblingChunks returns other chunks of the same document in reading
// order. Used as expansion fallback when a chunk has no extracted
// entities.
func (s *GraphStorage) SiblingChunks(
	ctx context.Context,
	chunkID string,
	limit int,
) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT sibling.id
		FROM chunks c
		JOIN chunks sibling ON sibling.document_id = c.document_id
		WHERE c.id = $1 AND sibling.id <> c.id
		ORDER BY sibling.position
		LIMIT $2
	`, chunkID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
