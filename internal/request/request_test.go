// ABOUTME: Tests for inbound payload normalization.
// ABOUTME: Covers the wrapped, nested-string, and bare payload shapes plus field aliases.

package request

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_PayloadShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "bare payload",
			raw:  `{"input_text": "Show me a Red Luffy deck", "session_id": "s-1"}`,
		},
		{
			name: "nested body object",
			raw:  `{"body": {"input_text": "Show me a Red Luffy deck", "session_id": "s-1"}}`,
		},
		{
			name: "body as JSON string",
			raw:  `{"body": "{\"input_text\": \"Show me a Red Luffy deck\", \"session_id\": \"s-1\"}"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Normalize([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, "Show me a Red Luffy deck", req.InputText)
			assert.Equal(t, "s-1", req.SessionID)
		})
	}
}

func TestNormalize_FieldAliases(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "snake case", raw: `{"input_text": "hello", "session_id": "s-1", "cart_id": "c-1"}`},
		{name: "camel case", raw: `{"inputText": "hello", "sessionId": "s-1", "cartId": "c-1"}`},
		{name: "message alias", raw: `{"message": "hello", "sessionId": "s-1", "cart_id": "c-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Normalize([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, "hello", req.InputText)
			assert.Equal(t, "s-1", req.SessionID)
			assert.Equal(t, "c-1", req.CartID)
		})
	}
}

func TestNormalize_GeneratesSessionID(t *testing.T) {
	req, err := Normalize([]byte(`{"input_text": "hello"}`))
	require.NoError(t, err)

	_, parseErr := uuid.Parse(req.SessionID)
	assert.NoError(t, parseErr, "generated session id should be a UUID")
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty body", raw: ``},
		{name: "invalid JSON", raw: `{not json`},
		{name: "no input text", raw: `{"session_id": "s-1"}`},
		{name: "whitespace input text", raw: `{"input_text": "   "}`},
		{name: "body is a number", raw: `{"body": 42}`},
		{name: "body string is not JSON", raw: `{"body": "plain text"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]byte(tt.raw))
			require.Error(t, err)

			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestNormalize_OuterFieldsFillGaps(t *testing.T) {
	// Session on the envelope, text in the body.
	raw := `{"session_id": "outer-session", "body": {"input_text": "hello"}}`

	req, err := Normalize([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "hello", req.InputText)
	assert.Equal(t, "outer-session", req.SessionID)
}

func TestPrompt(t *testing.T) {
	req := &CanonicalRequest{InputText: "add sleeves to my cart", CartID: "cart-42"}
	assert.Equal(t, "add sleeves to my cart (Cart ID: cart-42)", req.Prompt())

	req = &CanonicalRequest{InputText: "hello"}
	assert.Equal(t, "hello", req.Prompt())
}
