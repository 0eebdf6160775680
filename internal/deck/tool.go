// ABOUTME: Agent tool wrapping the deck lookup pipeline end to end
// ABOUTME: Extraction, validation, API query, and result formatting with attribution

package deck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/professormeta/tcg-agent/internal/tools"
)

// ToolName is the name the deck lookup capability registers under.
const ToolName = "get_competitive_decks"

const toolDescription = "Get competitive One Piece TCG deck recommendations from the gumgum.gg tournament database. " +
	"Processes natural language input to extract deck search criteria and returns tournament-winning deck " +
	"information with complete deck lists. Data is powered by www.gumgum.gg."

const attribution = "Tournament-winning deck data powered by www.gumgum.gg"

var toolInputSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"user_input": {
			"type": "string",
			"description": "Natural language description of deck requirements, e.g. 'Show me the latest Red Luffy deck from OP10'"
		}
	},
	"required": ["user_input"]
}`)

// FormattedDeck is the successful lookup result handed back to the agent.
type FormattedDeck struct {
	Success  bool         `json:"success"`
	Source   string       `json:"source"`
	Message  string       `json:"message"`
	Deck     deckDetails  `json:"deck"`
	Metadata deckMetadata `json:"metadata"`
}

type deckDetails struct {
	Name       string   `json:"name"`
	Set        string   `json:"set"`
	Region     string   `json:"region"`
	Leader     string   `json:"leader"`
	Author     string   `json:"author"`
	Tournament string   `json:"tournament"`
	Event      string   `json:"event"`
	Decklist   []string `json:"decklist"`
	TotalCards int      `json:"total_cards"`
}

type deckMetadata struct {
	DataSource       string `json:"data_source"`
	SearchCriteria   Filter `json:"search_criteria"`
	CompetitiveLevel string `json:"competitive_level"`
	Disclaimer       string `json:"disclaimer"`
}

// lookupFailure is the structured result for every non-success outcome, so
// the agent can phrase a graceful reply instead of the turn crashing.
type lookupFailure struct {
	Success             bool     `json:"success"`
	Source              string   `json:"source"`
	ErrorType           string   `json:"error_type"`
	Message             string   `json:"message"`
	Error               string   `json:"error,omitempty"`
	MissingFilters      []string `json:"missing_filters,omitempty"`
	RequiredInformation []string `json:"required_information,omitempty"`
	ExampleRequests     []string `json:"example_requests,omitempty"`
	UserActions         []string `json:"user_actions,omitempty"`
}

var exampleRequests = []string{
	"Show me a Red Luffy deck for OP10 in the West region",
	"I want a competitive Purple Doflamingo deck from the latest set",
	"Find me tournament decks for Shanks in the East region",
}

var requiredInformation = []string{
	"Tournament region: East (Asia) or West (North America/Europe)",
	"Game format/set: e.g., OP10, OP09, ST10",
	"Leader card or character: e.g., Red Luffy, Purple Doffy, Shanks",
}

// Tool implements the deck lookup capability exposed to the agent.
type Tool struct {
	extractor Extractor
	client    *Client
	logger    *slog.Logger
}

// NewTool builds the deck lookup tool from the extraction capability and the
// deck API client.
func NewTool(extractor Extractor, client *Client, logger *slog.Logger) *Tool {
	return &Tool{
		extractor: extractor,
		client:    client,
		logger:    logger.With("component", "deck-tool"),
	}
}

func (t *Tool) Descriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        ToolName,
		Description: toolDescription,
		InputSchema: toolInputSchema,
	}
}

// Call parses the tool input and runs Lookup, encoding the structured result
// as JSON text for the agent.
func (t *Tool) Call(ctx context.Context, input json.RawMessage) (string, error) {
	var args struct {
		UserInput string `json:"user_input"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", fmt.Errorf("parsing tool input: %w", err)
	}

	result := t.Lookup(ctx, args.UserInput)
	encoded, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encoding tool result: %w", err)
	}
	return string(encoded), nil
}

// Lookup runs the full pipeline: extract criteria, validate, query the API,
// and format the outcome. Every failure mode is converted into a structured
// result; Lookup itself never panics the turn.
func (t *Tool) Lookup(ctx context.Context, userText string) any {
	t.logger.Info("processing deck request", "input_length", len(userText))

	filter, err := t.extractor.Extract(ctx, userText)
	if err != nil {
		// Extraction failure is a service error, not a prompt for more input.
		t.logger.Error("criteria extraction failed", "error", err)
		return t.serviceFailure(fmt.Sprintf("criteria extraction unavailable: %v", err))
	}

	if err := Validate(filter); err != nil {
		var insufficient *InsufficientCriteriaError
		if errors.As(err, &insufficient) {
			t.logger.Info("insufficient search criteria", "missing", insufficient.Missing)
			return &lookupFailure{
				Source:              "gumgum.gg",
				ErrorType:           "insufficient_search_criteria",
				Message:             "Additional information needed to find competitive decks",
				MissingFilters:      insufficient.Missing,
				RequiredInformation: requiredInformation,
				ExampleRequests:     exampleRequests,
			}
		}
		return t.serviceFailure(err.Error())
	}

	record, err := t.client.Query(ctx, filter)
	if errors.Is(err, ErrNoDecksFound) {
		return &lookupFailure{
			Source:    "gumgum.gg",
			ErrorType: "no_decks_found",
			Message: fmt.Sprintf("No tournament decks found for %s in %s region for format %s",
				filter.Leader, filter.Region, filter.Set),
		}
	}
	if err != nil {
		t.logger.Error("deck API query failed", "error", err)
		return t.serviceFailure(err.Error())
	}

	return formatDeck(record, filter)
}

// serviceFailure builds the standard error result with user guidance.
func (t *Tool) serviceFailure(detail string) *lookupFailure {
	return &lookupFailure{
		Source:    "gumgum.gg",
		ErrorType: "deck_service_error",
		Message:   "Unable to retrieve competitive deck data",
		Error:     detail,
		UserActions: []string{
			"Try rephrasing your deck request with specific details",
			"Include region (East/West), format (OP10, OP09), and leader name",
			"Wait a moment and try again if service is temporarily unavailable",
		},
		ExampleRequests: exampleRequests,
	}
}

// formatDeck renders the selected record with data-source attribution.
// Fields the API omitted fall back to the search criteria.
func formatDeck(record *Record, filter Filter) *FormattedDeck {
	set := record.Set
	if set == "" {
		set = filter.Set
	}
	region := record.Region
	if region == "" {
		region = filter.Region
	}
	leader := record.Leader
	if leader == "" {
		leader = filter.Leader
	}
	author := record.Author
	if author == "" {
		author = "Tournament Player"
	}
	tournament := record.Tournament
	if tournament == "" {
		tournament = "Competitive Tournament"
	}
	event := record.Event
	if event == "" {
		event = "Tournament Event"
	}

	return &FormattedDeck{
		Success: true,
		Source:  "gumgum.gg",
		Message: attribution,
		Deck: deckDetails{
			Name:       fmt.Sprintf("%s Tournament Deck", leader),
			Set:        set,
			Region:     region,
			Leader:     leader,
			Author:     author,
			Tournament: tournament,
			Event:      event,
			Decklist:   record.Decklist,
			TotalCards: len(record.Decklist),
		},
		Metadata: deckMetadata{
			DataSource:       "gumgum.gg tournament database",
			SearchCriteria:   filter,
			CompetitiveLevel: "Tournament-winning",
			Disclaimer:       "Deck data powered by www.gumgum.gg",
		},
	}
}
