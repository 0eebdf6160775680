// ABOUTME: Extracts deck search criteria from natural language via a small model.
// ABOUTME: Parses the model's JSON reply into a deck.Filter.

package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/professormeta/tcg-agent/internal/deck"
)

const extractionPrompt = `Parse the input and output 3 fields in JSON format: set, region, and leader.

Region rules:
- "west" = North America, Europe, or any non-Asian location
- "east" = Asia (Japan, etc.)
- If no region specified, default to "west"

Set rules:
- Can be called "set" or "format"
- If user says "latest set/format" or doesn't specify, use "OP10" for west, "OP11" for east
- Examples: OP01, OP02, OP10, ST10

Leader rules:
- Convert to card ID format (e.g., OP01-001, ST08-001)
- Handle color names (Red Luffy, Purple Doffy, BY Luffy where BY = Black/Yellow)
- Handle character nicknames (Doffy = Doflamingo)
- Research the actual card ID for the leader

Output only valid JSON with set, region, and leader fields.`

// Extractor turns free-form customer text into deck search criteria using
// a fast, cheap model with low temperature.
type Extractor struct {
	client sdk.Client
	model  string
	logger *slog.Logger
}

// NewExtractor builds an extractor for the given model. The API key is
// taken from the ANTHROPIC_API_KEY environment variable.
func NewExtractor(model string, logger *slog.Logger) *Extractor {
	return &Extractor{
		client: sdk.NewClient(),
		model:  model,
		logger: logger.With("component", "criteria-extractor"),
	}
}

// Extract asks the model to parse userText and decodes the resulting JSON.
// A model or parse failure is an error; missing criteria are not, they
// surface later during validation.
func (e *Extractor) Extract(ctx context.Context, userText string) (deck.Filter, error) {
	msg, err := e.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(e.model),
		MaxTokens:   1024,
		Temperature: sdk.Float(0.1),
		System:      []sdk.TextBlockParam{{Text: extractionPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(userText)),
		},
	})
	if err != nil {
		return deck.Filter{}, fmt.Errorf("criteria parsing unavailable: %w", err)
	}

	filter, err := parseFilterReply(collectText(msg))
	if err != nil {
		return deck.Filter{}, err
	}

	e.logger.Info("extracted search criteria",
		"region", filter.Region,
		"set", filter.Set,
		"leader", filter.Leader,
	)
	return filter, nil
}

// parseFilterReply decodes the model reply into a Filter. The reply may
// wrap the JSON object in prose or a code fence.
func parseFilterReply(reply string) (deck.Filter, error) {
	body, ok := extractJSONObject(reply)
	if !ok {
		return deck.Filter{}, fmt.Errorf("criteria reply contained no JSON object")
	}

	var filter deck.Filter
	if err := json.Unmarshal([]byte(body), &filter); err != nil {
		return deck.Filter{}, fmt.Errorf("invalid criteria JSON: %w", err)
	}
	filter.Region = strings.ToLower(strings.TrimSpace(filter.Region))
	filter.Set = strings.ToUpper(strings.TrimSpace(filter.Set))
	filter.Leader = strings.ToUpper(strings.TrimSpace(filter.Leader))
	return filter, nil
}

// extractJSONObject returns the first top-level {...} span in s.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
