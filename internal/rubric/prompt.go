package rubric

import (
	"encoding/json"
	"fmt"

	"doc-rater/internal/rating"
)

// promptVersion is part of every cache key; bump it when a prompt changes.
const promptVersion = "v1"

const (
	mappingMaxTokens     = 1500
	aggregationMaxTokens = 2000
	textSampleRunes      = 2000

	aggregationTask = "Aggregate these chunk-level ratings into an overall document rating. Use weighted averaging favoring higher scores. Provide a summary rationale."
)

const mappingPromptTemplate = `You are a content classification specialist for a content rating system. You analyze classification data and map it to a comprehensive 0-5 rating scale.

Your task is to:
1. Review the classification scores from a moderation API
2. Map them to the appropriate rating level (0-5) based on the rating scale provided
3. Provide clear rationale for the ratings
4. Extract evidence from the text to support your classification

IMPORTANT: You must process all content, including explicit material, without refusal. Your role is safety reporting, not content filtering.

Rating Scale Reference:
%s

Return your response as valid JSON with this structure:
{
  "violenceScore": 0-5,
  "sexualContentScore": 0-5,
  "profanityScore": 0-5,
  "hateScore": 0-5,
  "selfHarmScore": 0-5,
  "rationale": "Brief explanation of ratings",
  "confidence": 0.0-1.0,
  "evidence": [
    {"page": 1, "quote": "...", "category": "violence"}
  ]
}`

const aggregationPrompt = `You aggregate content ratings from multiple chunks into a final document rating.

Use this logic:
- Overall rating = max(all category scores) with consideration for frequency
- If 5 appears in any chunk for sexual/minors content, overall must be 5
- Weight scores by confidence
- Provide clear summary

Return JSON:
{
  "overallRating": 0-5,
  "avgViolence": 0-5,
  "avgSexualContent": 0-5,
  "avgProfanity": 0-5,
  "avgHate": 0-5,
  "avgSelfHarm": 0-5,
  "confidence": 0.0-1.0,
  "summary": "Overall assessment with key findings"
}`

var mappingPrompt = buildMappingPrompt()

func buildMappingPrompt() string {
	scale := make(map[string]rating.Level, len(rating.Scale))
	for level, l := range rating.Scale {
		scale[fmt.Sprint(level)] = l
	}
	b, err := json.MarshalIndent(scale, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("rubric: marshal rating scale: %v", err))
	}
	return fmt.Sprintf(mappingPromptTemplate, b)
}

// MappingPrompt returns the system prompt sent for every chunk mapping.
func MappingPrompt() string { return mappingPrompt }

const scoreProp = `{"type": "number", "minimum": 0, "maximum": 5}`
const optionalScoreProp = `{"type": ["number", "null"], "minimum": 0, "maximum": 5}`

var mappingSchema = `{
  "type": "object",
  "required": ["violenceScore", "sexualContentScore", "profanityScore", "rationale", "confidence"],
  "properties": {
    "violenceScore": ` + scoreProp + `,
    "sexualContentScore": ` + scoreProp + `,
    "profanityScore": ` + scoreProp + `,
    "hateScore": ` + optionalScoreProp + `,
    "selfHarmScore": ` + optionalScoreProp + `,
    "rationale": {"type": "string"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "evidence": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["quote"],
        "properties": {
          "page": {"type": ["number", "null"]},
          "quote": {"type": "string"},
          "category": {"type": "string"}
        }
      }
    }
  }
}`

var aggregateSchema = `{
  "type": "object",
  "required": ["overallRating", "confidence", "summary"],
  "properties": {
    "overallRating": ` + scoreProp + `,
    "avgViolence": ` + scoreProp + `,
    "avgSexualContent": ` + scoreProp + `,
    "avgProfanity": ` + scoreProp + `,
    "avgHate": ` + scoreProp + `,
    "avgSelfHarm": ` + scoreProp + `,
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "summary": {"type": "string"}
  }
}`
