package rubric

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ParseError reports a model reply that does not hold the expected JSON.
type ParseError struct {
	Reason string
	Reply  string
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rubric parse failed: %s: %v", e.Reason, e.Cause)
	}
	return "rubric parse failed: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Cause }

var (
	compiledMappingSchema   = jsonschema.MustCompileString("mapping.json", mappingSchema)
	compiledAggregateSchema = jsonschema.MustCompileString("aggregate.json", aggregateSchema)
)

var errNoObject = errors.New("no JSON object found")

// extractJSON returns the first balanced {...} object in text, skipping braces
// that appear inside string literals.
func extractJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", errNoObject
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", errNoObject
}

// decodeReply extracts, schema-validates and decodes a reply into out.
func decodeReply(reply string, schema *jsonschema.Schema, out any) error {
	obj, err := extractJSON(reply)
	if err != nil {
		return &ParseError{Reason: "no JSON object in reply", Reply: reply, Cause: err}
	}
	var generic any
	if err := json.Unmarshal([]byte(obj), &generic); err != nil {
		return &ParseError{Reason: "invalid JSON", Reply: reply, Cause: err}
	}
	if err := schema.Validate(generic); err != nil {
		return &ParseError{Reason: "reply does not match schema", Reply: reply, Cause: err}
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return &ParseError{Reason: "decode reply", Reply: reply, Cause: err}
	}
	return nil
}

type rawEvidence struct {
	Page     *float64 `json:"page"`
	Quote    string   `json:"quote"`
	Category string   `json:"category"`
}

type rawMapping struct {
	ViolenceScore      float64       `json:"violenceScore"`
	SexualContentScore float64       `json:"sexualContentScore"`
	ProfanityScore     float64       `json:"profanityScore"`
	HateScore          *float64      `json:"hateScore"`
	SelfHarmScore      *float64      `json:"selfHarmScore"`
	Rationale          string        `json:"rationale"`
	Confidence         float64       `json:"confidence"`
	Evidence           []rawEvidence `json:"evidence"`
}

func parseMapping(reply string) (Mapping, error) {
	var raw rawMapping
	if err := decodeReply(reply, compiledMappingSchema, &raw); err != nil {
		return Mapping{}, err
	}
	m := Mapping{
		ViolenceScore:      roundScore(raw.ViolenceScore),
		SexualContentScore: roundScore(raw.SexualContentScore),
		ProfanityScore:     roundScore(raw.ProfanityScore),
		HateScore:          roundOptional(raw.HateScore),
		SelfHarmScore:      roundOptional(raw.SelfHarmScore),
		Rationale:          raw.Rationale,
		Confidence:         raw.Confidence,
	}
	for _, e := range raw.Evidence {
		if len(m.Evidence) == MaxEvidencePerMapping {
			break
		}
		m.Evidence = append(m.Evidence, Evidence{
			Page:     roundOptional(e.Page),
			Quote:    e.Quote,
			Category: e.Category,
		})
	}
	return m, nil
}

type rawAggregate struct {
	OverallRating    float64 `json:"overallRating"`
	AvgViolence      float64 `json:"avgViolence"`
	AvgSexualContent float64 `json:"avgSexualContent"`
	AvgProfanity     float64 `json:"avgProfanity"`
	AvgHate          float64 `json:"avgHate"`
	AvgSelfHarm      float64 `json:"avgSelfHarm"`
	Confidence       float64 `json:"confidence"`
	Summary          string  `json:"summary"`
}

func parseAggregate(reply string) (Aggregate, error) {
	var raw rawAggregate
	if err := decodeReply(reply, compiledAggregateSchema, &raw); err != nil {
		return Aggregate{}, err
	}
	return Aggregate{
		OverallRating:    roundScore(raw.OverallRating),
		AvgViolence:      raw.AvgViolence,
		AvgSexualContent: raw.AvgSexualContent,
		AvgProfanity:     raw.AvgProfanity,
		AvgHate:          raw.AvgHate,
		AvgSelfHarm:      raw.AvgSelfHarm,
		Confidence:       raw.Confidence,
		Summary:          raw.Summary,
	}, nil
}

func roundScore(v float64) int {
	return int(math.Round(v))
}

func roundOptional(v *float64) *int {
	if v == nil {
		return nil
	}
	r := roundScore(*v)
	return &r
}
