// Package validation checks inbound webhook payloads against JSON schemas.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "github.com/tanayreshamwala/rfp-ai-app/internal/common/errors"
)

// inboundEmailSchema describes the payload posted by the email webhook.
// Body text may arrive as "text", "html", or both; at least the envelope
// fields must be present.
var inboundEmailSchema = map[string]interface{}{
	"type":     "object",
	"required": []string{"from", "to", "subject"},
	"properties": map[string]interface{}{
		"from":      map[string]interface{}{"type": "string", "minLength": 3},
		"to":        map[string]interface{}{"type": "string", "minLength": 3},
		"subject":   map[string]interface{}{"type": "string"},
		"text":      map[string]interface{}{"type": "string"},
		"html":      map[string]interface{}{"type": "string"},
		"messageId": map[string]interface{}{"type": "string"},
	},
}

// ValidateInboundEmail validates a webhook payload before it is processed.
func ValidateInboundEmail(payload map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(inboundEmailSchema)
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return apperrors.NewWebhookInvalidError(err.Error())
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return apperrors.NewWebhookInvalidError(strings.Join(problems, "; "))
	}

	return nil
}
