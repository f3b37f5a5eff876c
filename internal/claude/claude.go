// Package claude asks Claude to fill in missing precedence relations and to
// explain a finished balance in plain language.
package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-6"

// ErrNoAPIKey is returned when neither an explicit key nor ANTHROPIC_API_KEY
// is available.
var ErrNoAPIKey = errors.New("ANTHROPIC_API_KEY not set")

// TaskSummary is the minimal task info sent to Claude for predecessor inference.
type TaskSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Duration     int      `json:"duration"`
	Predecessors []string `json:"predecessors,omitempty"`
}

// PredEdge is a single inferred precedence relation.
type PredEdge struct {
	TaskID        string `json:"task_id"`        // task that waits
	PredecessorID string `json:"predecessor_id"` // task that must be done first
	Reason        string `json:"reason"`
}

// InferPredsResult holds the full response from Claude.
type InferPredsResult struct {
	Edges   []PredEdge `json:"edges"`
	Summary string     `json:"summary"`
}

// Client wraps the Anthropic SDK for Claude API calls.
type Client struct {
	inner          anthropic.Client
	model          anthropic.Model
	promptTemplate string
}

// NewClient creates a Claude client. apiKey defaults to ANTHROPIC_API_KEY env.
// model defaults to Claude Sonnet. Extra request options are passed to the SDK.
func NewClient(apiKey, model string, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	inner := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)

	m := anthropic.Model(DefaultModel)
	if model != "" {
		m = anthropic.Model(model)
	}

	return &Client{inner: inner, model: m}, nil
}

// SetPromptTemplate makes InferPredecessors render its prompt from the
// template file at path instead of the built-in one.
func (c *Client) SetPromptTemplate(path string) {
	c.promptTemplate = path
}

// InferPredecessors calls the Claude API to infer precedence relations
// between the given tasks. The edges are not validated; see MergeEdges.
func (c *Client) InferPredecessors(ctx context.Context, tasks []TaskSummary) (*InferPredsResult, error) {
	prompt, err := RenderPrompt(tasks, c.promptTemplate)
	if err != nil {
		return nil, err
	}

	text, err := c.complete(ctx, "", prompt)
	if err != nil {
		return nil, err
	}
	text = stripJSONFences(text)

	var result InferPredsResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("parse claude response: %w\nraw: %s", err, text)
	}

	return &result, nil
}

const explainPlanPrompt = `You are an industrial engineer reviewing an assembly line balance.

You will receive a plain-text report: the beat, the tasks placed at each
station with their durations, the balance rate and smoothing index before and
after improvement, and the list of transfers and trades that were applied.

Explain in a few short paragraphs:
- Which station is the bottleneck and why it cannot be unloaded further.
- What the improvement moves achieved.
- Whether the station count looks reasonable against the theoretical minimum.

Do not restate the whole report. Focus on the human-readable takeaway.
`

// ExplainPlan sends a rendered balance report to Claude and returns a short
// narrative of the result.
func (c *Client) ExplainPlan(ctx context.Context, report string) (string, error) {
	var content strings.Builder
	content.WriteString("## Balance Report\n\n```\n")
	content.WriteString(report)
	content.WriteString("\n```\n")

	text, err := c.complete(ctx, explainPlanPrompt, content.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(4096),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.inner.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API call: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

// stripJSONFences removes markdown code fences that Claude sometimes adds.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		return ""
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
