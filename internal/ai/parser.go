// Package ai turns free text and vendor emails into validated procurement
// records. It builds the prompts, calls the model gateway and normalizes
// whatever comes back into typed results.
package ai

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/tanayreshamwala/rfp-ai-app/internal/common/errors"
)

const rawResponsePreviewLimit = 500

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ParseResponse turns a raw model completion into a structured value,
// tolerating markdown fencing and surrounding commentary the model may have
// added despite instructions.
func ParseResponse(raw string) (map[string]interface{}, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.NewInvalidInputError("response text is empty")
	}

	cleaned := strings.TrimSpace(raw)

	// Strip a fenced code block: drop the first line (``` or ```json) and a
	// trailing fence line, keep everything between.
	if strings.HasPrefix(cleaned, "```") {
		lines := strings.Split(cleaned, "\n")
		lines = lines[1:]
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			lines = lines[:len(lines)-1]
		}
		cleaned = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	// Slice to the outermost {...} span to discard leading/trailing prose.
	firstBrace := strings.Index(cleaned, "{")
	lastBrace := strings.LastIndex(cleaned, "}")
	if firstBrace != -1 && lastBrace > firstBrace {
		cleaned = cleaned[firstBrace : lastBrace+1]
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		return parsed, nil
	}

	// Recovery pass: widest {...} span by pattern match.
	if match := jsonObjectPattern.FindString(cleaned); match != "" {
		if err := json.Unmarshal([]byte(match), &parsed); err == nil {
			return parsed, nil
		}
	}

	preview := raw
	if len(preview) > rawResponsePreviewLimit {
		preview = preview[:rawResponsePreviewLimit]
	}
	return nil, apperrors.NewMalformedResponseError("raw response: " + preview)
}

// ValidationResult reports which required field paths were missing.
type ValidationResult struct {
	Valid         bool
	MissingFields []string
}

// ValidateRequiredFields walks each dot-separated path through data. Numeric
// segments index into arrays. A nil or absent value anywhere along a path
// marks that path missing; traversal never fails.
func ValidateRequiredFields(data map[string]interface{}, requiredFields []string) ValidationResult {
	missing := []string{}
	for _, field := range requiredFields {
		if nestedValue(data, field) == nil {
			missing = append(missing, field)
		}
	}
	return ValidationResult{
		Valid:         len(missing) == 0,
		MissingFields: missing,
	}
}

func nestedValue(data interface{}, path string) interface{} {
	current := data
	for _, key := range strings.Split(path, ".") {
		if current == nil {
			return nil
		}
		switch node := current.(type) {
		case map[string]interface{}:
			current = node[key]
		case []interface{}:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil
			}
			current = node[idx]
		default:
			return nil
		}
	}
	return current
}
