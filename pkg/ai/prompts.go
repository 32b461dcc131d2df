package ai

// ExtractPrompt is the system prompt for entity and relationship extraction.
// The two format arguments are the comma-joined entity type vocabulary and the
// comma-joined relationship type vocabulary.
const ExtractPrompt = `You are an expert entity and relationship extractor.
Analyze the text and extract all notable entities and their relationships.

Return ONLY a valid JSON object with this exact structure:
{
  "entities": [
    {"name": "Entity Name", "type": "ENTITY_TYPE"}
  ],
  "relationships": [
    {"source": "Entity1", "target": "Entity2", "type": "RELATIONSHIP_TYPE", "description": "brief description"}
  ]
}

Entity types: %s
Relationship types: %s

Rules:
- Extract only clearly mentioned entities, do not infer
- Use the most specific entity type that applies
- Relationships must reference entities in the entities list
- If no entities found, return {"entities": [], "relationships": []}
- Return ONLY valid JSON, no other text`
