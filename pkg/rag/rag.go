// Package rag defines the shared domain model for the document ingestion
// and retrieval pipelines: documents, chunks, extracted entities, and the
// closed vocabularies they draw from.
package rag

import (
	"time"
)

// OwnerShared is the sentinel owner for documents visible to every tenant.
// Queries always include it alongside the requesting owner.
const OwnerShared = "shared"

// EntityType classifies an extracted entity. The vocabulary is closed;
// anything outside it is discarded at extraction time.
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
	EntityLocation     EntityType = "location"
	EntityConcept      EntityType = "concept"
	EntityEvent        EntityType = "event"
	EntityTechnology   EntityType = "technology"
	EntityProduct      EntityType = "product"
)

// EntityTypes lists the full closed entity vocabulary.
var EntityTypes = []EntityType{
	EntityPerson,
	EntityOrganization,
	EntityLocation,
	EntityConcept,
	EntityEvent,
	EntityTechnology,
	EntityProduct,
}

// RelationType classifies a relationship between two entities. The
// vocabulary is closed; unknown types fall back to RelationRelatedTo.
type RelationType string

const (
	RelationWorksFor  RelationType = "works_for"
	RelationLocatedIn RelationType = "located_in"
	RelationPartOf    RelationType = "part_of"
	RelationRelatedTo RelationType = "related_to"
	RelationCreatedBy RelationType = "created_by"
	RelationUses      RelationType = "uses"
	RelationProduces  RelationType = "produces"
)

// RelationTypes lists the full closed relationship vocabulary.
var RelationTypes = []RelationType{
	RelationWorksFor,
	RelationLocatedIn,
	RelationPartOf,
	RelationRelatedTo,
	RelationCreatedBy,
	RelationUses,
	RelationProduces,
}

// ValidEntityType reports whether t is part of the closed entity vocabulary.
func ValidEntityType(t EntityType) bool {
	for _, v := range EntityTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ValidRelationType reports whether t is part of the closed relationship
// vocabulary.
func ValidRelationType(t RelationType) bool {
	for _, v := range RelationTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Document is an ingested source document owned by a single tenant.
type Document struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Filename   string    `json:"filename"`
	ChunkCount int       `json:"chunk_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Chunk is a contiguous span of document text. The same chunk ID refers to
// the same span in both the vector index and the knowledge graph.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Position   int    `json:"position"`
	Text       string `json:"text"`
}

// Entity is a named thing extracted from chunk text. Identity is the pair
// (NormalizedName, Type): two mentions that normalize to the same pair are
// the same entity regardless of which document they appear in.
type Entity struct {
	Name           string     `json:"name"`
	NormalizedName string     `json:"normalized_name"`
	Type           EntityType `json:"type"`
}

// Relationship is a typed, directed edge between two entities extracted
// from the same chunk. Source and Target hold the surface names the model
// produced; resolution to entity identity happens against the chunk's own
// entity list.
type Relationship struct {
	Source           string       `json:"source"`
	Target           string       `json:"target"`
	SourceNormalized string       `json:"source_normalized"`
	TargetNormalized string       `json:"target_normalized"`
	Type             RelationType `json:"type"`
	Description      string       `json:"description"`
}

// Extraction is the validated result of running entity extraction over one
// chunk.
type Extraction struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
}

// RetrievalMethod records which retrieval path produced a result.
type RetrievalMethod string

const (
	MethodVector RetrievalMethod = "vector"
	MethodGraph  RetrievalMethod = "graph"
	MethodHybrid RetrievalMethod = "hybrid"
)

// EntityRelation is one tuple of multi-hop expansion context: an entity in
// the retrieved chunk, an entity reachable from it through the graph, the
// type of the last edge on the path, and another chunk where the reached
// entity appears.
type EntityRelation struct {
	Entity            string       `json:"entity"`
	EntityType        EntityType   `json:"entity_type"`
	RelatedEntity     string       `json:"related_entity,omitempty"`
	RelatedEntityType EntityType   `json:"related_entity_type,omitempty"`
	Relation          RelationType `json:"relation,omitempty"`
	Hops              int          `json:"hops,omitempty"`
	RelatedChunkID    string       `json:"related_chunk_id,omitempty"`
	RelatedChunkText  string       `json:"related_chunk_text,omitempty"`
}

// RetrievedChunk is a scored chunk returned by the retrieval pipeline.
// MatchedEntity is set when the chunk was reached through the graph path.
// EntityRelations and RelatedChunks hold graph expansion context; only one
// of the two is populated, RelatedChunks being the fallback when the chunk
// has no extracted entities.
type RetrievedChunk struct {
	ChunkID         string           `json:"chunk_id"`
	DocumentID      string           `json:"document_id"`
	Filename        string           `json:"filename"`
	Text            string           `json:"text"`
	Position        int              `json:"position"`
	Score           float64          `json:"score"`
	Method          RetrievalMethod  `json:"retrieval_method"`
	MatchedEntity   string           `json:"matched_entity,omitempty"`
	MatchedType     EntityType       `json:"matched_entity_type,omitempty"`
	EntityRelations []EntityRelation `json:"entity_relations,omitempty"`
	RelatedChunks   []string         `json:"related_chunks,omitempty"`
}
