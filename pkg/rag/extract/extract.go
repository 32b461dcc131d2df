// Package extract turns chunk text into validated entities and
// relationships using a schema-constrained model call.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/docsage/backend/internal/util"
	"github.com/docsage/backend/pkg/ai"
	"github.com/docsage/backend/pkg/logger"
	"github.com/docsage/backend/pkg/rag"
)

const (
	DefaultConcurrency = 3
	DefaultMaxRetries  = 3
)

// Extractor runs entity and relationship extraction against an AI client.
//
// An Extractor should be created using New.
type Extractor struct {
	client      ai.Client
	concurrency int
	maxRetries  int
}

// Params configures an Extractor. Concurrency bounds the number of
// simultaneous model calls during batch extraction; MaxRetries bounds the
// attempts per chunk. Zero means the default of 3 for both.
type Params struct {
	Client      ai.Client
	Concurrency int
	MaxRetries  int
}

// New creates an Extractor from the given parameters.
func New(params Params) *Extractor {
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Extractor{
		client:      params.Client,
		concurrency: concurrency,
		maxRetries:  maxRetries,
	}
}

// Wire shapes for the schema-constrained model response. Validation maps
// them onto the domain types.
type rawEntity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type rawRelationship struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type rawExtraction struct {
	Entities      []rawEntity       `json:"entities"`
	Relationships []rawRelationship `json:"relationships"`
}

func systemPrompt() string {
	entityTypes := make([]string, len(rag.EntityTypes))
	for i, t := range rag.EntityTypes {
		entityTypes[i] = string(t)
	}
	relationTypes := make([]string, len(rag.RelationTypes))
	for i, t := range rag.RelationTypes {
		relationTypes[i] = string(t)
	}
	return fmt.Sprintf(
		ai.ExtractPrompt,
		strings.Join(entityTypes, ", "),
		strings.Join(relationTypes, ", "),
	)
}

// ExtractChunk extracts entities and relationships from one chunk of text.
// Model failures degrade to an empty extraction with a warning instead of
// an error, so one bad chunk never fails a whole document.
func (e *Extractor) ExtractChunk(ctx context.Context, text string) rag.Extraction {
	if strings.TrimSpace(text) == "" {
		return rag.Extraction{}
	}

	raw, err := util.RetryWithContext(ctx, e.maxRetries, func(ctx context.Context) (rawExtraction, error) {
		var raw rawExtraction
		err := e.client.GenerateCompletionWithFormat(
			ctx,
			"entity_extraction",
			"Entities and relationships mentioned in the text",
			text,
			&raw,
			ai.WithSystemPrompts(systemPrompt()),
			ai.WithTemperature(0),
		)
		return raw, err
	})
	if err != nil {
		logger.Warn("entity extraction failed for chunk", "err", err)
		return rag.Extraction{}
	}

	return validate(raw)
}

// validate maps a raw model response onto the domain types: it drops
// nameless entities, coerces unknown types to their fallbacks, deduplicates
// entities by identity, and keeps only relationships whose endpoints
// resolve to entities extracted from the same chunk.
func validate(raw rawExtraction) rag.Extraction {
	var out rag.Extraction

	seen := make(map[[2]string]struct{})
	names := make(map[string]struct{})
	for _, re := range raw.Entities {
		name := strings.TrimSpace(re.Name)
		if name == "" {
			continue
		}
		etype := rag.EntityType(strings.ToLower(strings.TrimSpace(re.Type)))
		if !rag.ValidEntityType(etype) {
			etype = rag.EntityConcept
		}
		normalized := NormalizeName(name)
		key := [2]string{normalized, string(etype)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names[normalized] = struct{}{}
		out.Entities = append(out.Entities, rag.Entity{
			Name:           name,
			NormalizedName: normalized,
			Type:           etype,
		})
	}

	for _, rr := range raw.Relationships {
		source := strings.TrimSpace(rr.Source)
		target := strings.TrimSpace(rr.Target)
		rtype := rag.RelationType(strings.ToLower(strings.TrimSpace(rr.Type)))
		if !rag.ValidRelationType(rtype) {
			rtype = rag.RelationRelatedTo
		}

		sourceNorm := NormalizeName(source)
		targetNorm := NormalizeName(target)
		if _, ok := names[sourceNorm]; !ok {
			continue
		}
		if _, ok := names[targetNorm]; !ok {
			continue
		}

		out.Relationships = append(out.Relationships, rag.Relationship{
			Source:           source,
			Target:           target,
			SourceNormalized: sourceNorm,
			TargetNormalized: targetNorm,
			Type:             rtype,
			Description:      rr.Description,
		})
	}

	return out
}
