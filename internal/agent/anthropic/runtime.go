// ABOUTME: Anthropic-backed agent runtime with a tool use loop.
// ABOUTME: Supports blocking turns and streaming turns with incremental events.

package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/professormeta/tcg-agent/internal/agent"
	"github.com/professormeta/tcg-agent/internal/tools"
)

// maxToolRounds bounds the tool use loop so a misbehaving model cannot
// spin forever.
const maxToolRounds = 8

// eventBuffer is the capacity of the streaming event channel. Slow
// consumers apply backpressure to the model stream instead of growing
// an unbounded queue.
const eventBuffer = 32

// Runtime runs conversational turns against the Anthropic Messages API,
// executing registry tools whenever the model requests them.
type Runtime struct {
	client     sdk.Client
	model      string
	maxTokens  int64
	system     string
	registry   *tools.Registry
	toolParams []sdk.ToolUnionParam
	logger     *slog.Logger
}

// NewRuntime builds a runtime for the given model and tool registry.
// The API key is taken from the ANTHROPIC_API_KEY environment variable.
func NewRuntime(model string, maxTokens int64, system string, registry *tools.Registry, logger *slog.Logger) (*Runtime, error) {
	toolParams, err := buildToolParams(registry.Descriptors())
	if err != nil {
		return nil, err
	}
	return &Runtime{
		client:     sdk.NewClient(),
		model:      model,
		maxTokens:  maxTokens,
		system:     system,
		registry:   registry,
		toolParams: toolParams,
		logger:     logger.With("component", "anthropic-runtime"),
	}, nil
}

// Invoke runs a turn to completion, resolving tool calls as they occur,
// and returns the final response text.
func (r *Runtime) Invoke(ctx context.Context, prompt string) (string, error) {
	messages := []sdk.MessageParam{
		sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
	}

	for round := 0; round < maxToolRounds; round++ {
		msg, err := r.client.Messages.New(ctx, r.newParams(messages))
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}

		if msg.StopReason != sdk.StopReasonToolUse {
			return collectText(msg), nil
		}

		messages = append(messages, msg.ToParam())
		results, err := r.runTools(ctx, msg, nil)
		if err != nil {
			return "", err
		}
		messages = append(messages, sdk.NewUserMessage(results...))
	}

	return "", fmt.Errorf("turn exceeded %d tool rounds", maxToolRounds)
}

// InvokeStreaming runs a turn in a background goroutine and emits events
// on the returned channel. The channel is closed after the terminal
// complete or error event.
func (r *Runtime) InvokeStreaming(ctx context.Context, prompt string) (<-chan agent.StreamEvent, error) {
	events := make(chan agent.StreamEvent, eventBuffer)
	go r.streamTurn(ctx, prompt, events)
	return events, nil
}

func (r *Runtime) streamTurn(ctx context.Context, prompt string, events chan<- agent.StreamEvent) {
	defer close(events)

	emit := func(ev agent.StreamEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	messages := []sdk.MessageParam{
		sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
	}
	var full strings.Builder

	for round := 0; round < maxToolRounds; round++ {
		stream := r.client.Messages.NewStreaming(ctx, r.newParams(messages))

		var msg sdk.Message
		for stream.Next() {
			event := stream.Current()
			if err := msg.Accumulate(event); err != nil {
				emit(agent.StreamEvent{Type: agent.EventError, Error: fmt.Sprintf("stream accumulation failed: %v", err)})
				return
			}

			switch ev := event.AsAny().(type) {
			case sdk.ContentBlockDeltaEvent:
				switch delta := ev.Delta.AsAny().(type) {
				case sdk.TextDelta:
					full.WriteString(delta.Text)
					if !emit(agent.StreamEvent{Type: agent.EventText, Content: delta.Text}) {
						return
					}
				case sdk.ThinkingDelta:
					if !emit(agent.StreamEvent{Type: agent.EventReasoning, Content: delta.Thinking}) {
						return
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			r.logger.Error("streaming turn failed", "round", round, "error", err)
			emit(agent.StreamEvent{Type: agent.EventError, Error: fmt.Sprintf("model stream failed: %v", err)})
			return
		}

		if msg.StopReason != sdk.StopReasonToolUse {
			emit(agent.StreamEvent{Type: agent.EventComplete, Content: full.String()})
			return
		}

		messages = append(messages, msg.ToParam())
		results, err := r.runTools(ctx, &msg, emit)
		if err != nil {
			emit(agent.StreamEvent{Type: agent.EventError, Error: err.Error()})
			return
		}
		messages = append(messages, sdk.NewUserMessage(results...))
	}

	emit(agent.StreamEvent{Type: agent.EventError, Error: fmt.Sprintf("turn exceeded %d tool rounds", maxToolRounds)})
}

// runTools executes every tool_use block in msg and returns the tool
// result blocks for the follow-up message. Tool failures become error
// results for the model rather than aborting the turn. The optional emit
// callback surfaces tool activity to streaming consumers.
func (r *Runtime) runTools(ctx context.Context, msg *sdk.Message, emit func(agent.StreamEvent) bool) ([]sdk.ContentBlockParamUnion, error) {
	var results []sdk.ContentBlockParamUnion

	for _, block := range msg.Content {
		if block.Type != "tool_use" {
			continue
		}
		use := block.AsToolUse()

		if emit != nil {
			ok := emit(agent.StreamEvent{
				Type:       agent.EventTool,
				ToolName:   use.Name,
				ToolStatus: "executing",
			})
			if !ok {
				return nil, ctx.Err()
			}
		}

		input, err := json.Marshal(use.Input)
		if err != nil {
			return nil, fmt.Errorf("encoding input for tool %s: %w", use.Name, err)
		}

		output, callErr := r.callTool(ctx, use.Name, input)
		if callErr != nil {
			r.logger.Warn("tool call failed", "tool", use.Name, "error", callErr)
			results = append(results, sdk.NewToolResultBlock(use.ID, callErr.Error(), true))
			continue
		}

		r.logger.Debug("tool call completed", "tool", use.Name, "output_length", len(output))
		results = append(results, sdk.NewToolResultBlock(use.ID, output, false))
	}

	return results, nil
}

func (r *Runtime) callTool(ctx context.Context, name string, input json.RawMessage) (string, error) {
	tool, ok := r.registry.Lookup(name)
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	return tool.Call(ctx, input)
}

func (r *Runtime) newParams(messages []sdk.MessageParam) sdk.MessageNewParams {
	return sdk.MessageNewParams{
		Model:     sdk.Model(r.model),
		MaxTokens: r.maxTokens,
		System:    []sdk.TextBlockParam{{Text: r.system}},
		Messages:  messages,
		Tools:     r.toolParams,
	}
}

// buildToolParams converts registry descriptors into API tool definitions.
func buildToolParams(descriptors []tools.Descriptor) ([]sdk.ToolUnionParam, error) {
	params := make([]sdk.ToolUnionParam, 0, len(descriptors))
	for _, d := range descriptors {
		// Tools discovered without a schema accept arbitrary input.
		var schema struct {
			Properties map[string]any `json:"properties"`
			Required   []string       `json:"required"`
		}
		if len(d.InputSchema) > 0 {
			if err := json.Unmarshal(d.InputSchema, &schema); err != nil {
				return nil, fmt.Errorf("invalid input schema for tool %s: %w", d.Name, err)
			}
		}
		tool := sdk.ToolParam{
			Name:        d.Name,
			Description: sdk.String(d.Description),
			InputSchema: sdk.ToolInputSchemaParam{
				Properties: schema.Properties,
				Required:   schema.Required,
			},
		}
		params = append(params, sdk.ToolUnionParam{OfTool: &tool})
	}
	return params, nil
}

// collectText concatenates the text blocks of a response message.
func collectText(msg *sdk.Message) string {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	return b.String()
}
