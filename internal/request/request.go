// ABOUTME: Normalizes inbound chat payloads into one canonical request shape.
// ABOUTME: Accepts the wrapped, nested-JSON, and bare payload variants clients send.

package request

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CanonicalRequest is the single shape the chat engine consumes, whatever
// envelope the client used on the wire.
type CanonicalRequest struct {
	InputText string
	SessionID string
	CartID    string
}

// ValidationError reports a payload the server understood but cannot serve.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// envelope captures every field spelling clients have used across payload
// generations. Body may itself be an object or a JSON-encoded string.
type envelope struct {
	Body json.RawMessage `json:"body"`

	InputText  string `json:"input_text"`
	InputText2 string `json:"inputText"`
	Message    string `json:"message"`

	SessionID  string `json:"session_id"`
	SessionID2 string `json:"sessionId"`

	CartID  string `json:"cart_id"`
	CartID2 string `json:"cartId"`
}

func (e *envelope) text() string {
	for _, v := range []string{e.InputText, e.InputText2, e.Message} {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func (e *envelope) session() string {
	if e.SessionID != "" {
		return e.SessionID
	}
	return e.SessionID2
}

func (e *envelope) cart() string {
	if e.CartID != "" {
		return e.CartID
	}
	return e.CartID2
}

// Normalize decodes raw into a CanonicalRequest. It unwraps a "body" field
// whether it holds a nested object or a JSON-encoded string, falls back to
// treating the whole payload as the body, and generates a session ID when
// the client sent none. A payload without any input text is rejected.
func Normalize(raw []byte) (*CanonicalRequest, error) {
	if len(raw) == 0 {
		return nil, &ValidationError{Reason: "empty request body"}
	}

	var outer envelope
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("request body is not valid JSON: %v", err)}
	}

	merged := outer
	if len(outer.Body) > 0 {
		inner, err := decodeBody(outer.Body)
		if err != nil {
			return nil, err
		}
		if inner != nil {
			merged = *inner
		}
	}

	text := merged.text()
	if text == "" {
		// The outer envelope may carry the text even when a body is present.
		text = outer.text()
	}
	if text == "" {
		return nil, &ValidationError{Reason: "missing required field: input_text (or message)"}
	}

	session := merged.session()
	if session == "" {
		session = outer.session()
	}
	if session == "" {
		session = uuid.New().String()
	}

	cart := merged.cart()
	if cart == "" {
		cart = outer.cart()
	}

	return &CanonicalRequest{
		InputText: text,
		SessionID: session,
		CartID:    cart,
	}, nil
}

// decodeBody handles the two body encodings: a nested object, or a string
// holding JSON. Returns nil for body values that carry no fields, such as
// a plain non-JSON string.
func decodeBody(body json.RawMessage) (*envelope, error) {
	var inner envelope
	if err := json.Unmarshal(body, &inner); err == nil {
		return &inner, nil
	}

	var bodyStr string
	if err := json.Unmarshal(body, &bodyStr); err != nil {
		return nil, &ValidationError{Reason: "body field is neither an object nor a string"}
	}
	if strings.TrimSpace(bodyStr) == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(bodyStr), &inner); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("body string is not valid JSON: %v", err)}
	}
	return &inner, nil
}

// Prompt renders the model-facing prompt for the request. An active cart
// is appended so tool calls can reference it.
func (r *CanonicalRequest) Prompt() string {
	if r.CartID == "" {
		return r.InputText
	}
	return fmt.Sprintf("%s (Cart ID: %s)", r.InputText, r.CartID)
}
