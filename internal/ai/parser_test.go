package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tanayreshamwala/rfp-ai-app/internal/common/errors"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected map[string]interface{}
	}{
		{
			name:     "clean json object",
			raw:      `{"title": "Laptops", "count": 20}`,
			expected: map[string]interface{}{"title": "Laptops", "count": float64(20)},
		},
		{
			name:     "surrounding whitespace",
			raw:      "\n\n  {\"ok\": true}  \n",
			expected: map[string]interface{}{"ok": true},
		},
		{
			name:     "json fence with language tag",
			raw:      "```json\n{\"title\": \"Laptops\"}\n```",
			expected: map[string]interface{}{"title": "Laptops"},
		},
		{
			name:     "fence without language tag",
			raw:      "```\n{\"title\": \"Laptops\"}\n```",
			expected: map[string]interface{}{"title": "Laptops"},
		},
		{
			name:     "fence without closing line",
			raw:      "```json\n{\"title\": \"Laptops\"}",
			expected: map[string]interface{}{"title": "Laptops"},
		},
		{
			name:     "prose before and after the object",
			raw:      "Sure! Here is the JSON you asked for:\n{\"title\": \"Laptops\"}\nLet me know if you need anything else.",
			expected: map[string]interface{}{"title": "Laptops"},
		},
		{
			name: "nested object inside prose",
			raw:  "Result: {\"items\": [{\"name\": \"Laptop\", \"quantity\": 2}]} done",
			expected: map[string]interface{}{
				"items": []interface{}{
					map[string]interface{}{"name": "Laptop", "quantity": float64(2)},
				},
			},
		},
		{
			name:     "fenced object with commentary outside the fence",
			raw:      "Here you go:\n```json\n{\"ok\": true}\n```\nHope that helps!",
			expected: map[string]interface{}{"ok": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseResponse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, parsed)
		})
	}
}

func TestParseResponse_EmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t"} {
		_, err := ParseResponse(raw)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidInput))
	}
}

func TestParseResponse_Unrecoverable(t *testing.T) {
	_, err := ParseResponse("I could not produce the requested structure, sorry.")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMalformedResponse))
	assert.True(t, apperrors.IsRetryable(err))
}

func TestParseResponse_PreviewTruncated(t *testing.T) {
	raw := "not json " + strings.Repeat("x", 2000)
	_, err := ParseResponse(raw)
	require.Error(t, err)

	var se *apperrors.StandardError
	require.ErrorAs(t, err, &se)
	assert.LessOrEqual(t, len(se.Details), rawResponsePreviewLimit+len("raw response: "))
}

func TestValidateRequiredFields(t *testing.T) {
	data := map[string]interface{}{
		"title":      "Laptops",
		"totalPrice": float64(0),
		"flag":       false,
		"nothing":    nil,
		"vendor": map[string]interface{}{
			"name": "Acme",
		},
		"items": []interface{}{
			map[string]interface{}{"name": "Laptop", "quantity": float64(2)},
		},
	}

	tests := []struct {
		name    string
		fields  []string
		valid   bool
		missing []string
	}{
		{
			name:   "all top level fields present",
			fields: []string{"title", "items"},
			valid:  true,
		},
		{
			name:   "zero and false count as present",
			fields: []string{"totalPrice", "flag"},
			valid:  true,
		},
		{
			name:    "explicit null is missing",
			fields:  []string{"nothing"},
			valid:   false,
			missing: []string{"nothing"},
		},
		{
			name:   "nested path through a map",
			fields: []string{"vendor.name"},
			valid:  true,
		},
		{
			name:   "numeric segment indexes an array",
			fields: []string{"items.0.name", "items.0.quantity"},
			valid:  true,
		},
		{
			name:    "index out of range is missing",
			fields:  []string{"items.3.name"},
			valid:   false,
			missing: []string{"items.3.name"},
		},
		{
			name:    "non numeric key against an array is missing",
			fields:  []string{"items.first"},
			valid:   false,
			missing: []string{"items.first"},
		},
		{
			name:    "path through a scalar is missing",
			fields:  []string{"title.inner"},
			valid:   false,
			missing: []string{"title.inner"},
		},
		{
			name:    "mixed present and absent",
			fields:  []string{"title", "budget", "vendor.phone"},
			valid:   false,
			missing: []string{"budget", "vendor.phone"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateRequiredFields(data, tt.fields)
			assert.Equal(t, tt.valid, result.Valid)
			if tt.missing == nil {
				assert.Empty(t, result.MissingFields)
			} else {
				assert.Equal(t, tt.missing, result.MissingFields)
			}
		})
	}
}

func TestValidateRequiredFields_NilData(t *testing.T) {
	result := ValidateRequiredFields(nil, []string{"title"})
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"title"}, result.MissingFields)
}
