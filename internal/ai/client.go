package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/hray3182/RemindLine/internal/recurrence"
)

const dateTimeLayout = "2006-01-02 15:04"

// Client interprets recurrence text with a chat completion model. It is used
// as a fallback after the built-in parser.
type Client struct {
	client *openai.Client
	model  string
}

var _ recurrence.Parser = (*Client)(nil)

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Interpretation is the structured answer requested from the model.
type Interpretation struct {
	Kind        string `json:"kind"`
	DateTime    string `json:"datetime"`
	RRule       string `json:"rrule"`
	RawResponse string `json:"-"`
}

const (
	KindOnce      = "once"
	KindRecurring = "recurring"
	KindInvalid   = "invalid"
)

const systemPromptTemplate = `You convert reminder schedules written in natural language into machine readable form.

Current time: %s

Classify the user's text as one of:
- once: a single date and time. Put it in datetime as YYYY-MM-DD HH:MM, resolving relative phrases ("tomorrow", "in 3 days", "next friday") against the current time. Use 00:00 when no time is given.
- recurring: a repeating schedule. Put an RFC 5545 recurrence rule in rrule, without the "RRULE:" prefix and without DTSTART, e.g. FREQ=WEEKLY;BYDAY=MO or FREQ=MONTHLY;BYMONTHDAY=1;BYHOUR=9;BYMINUTE=0.
- invalid: the text does not describe a schedule.

Leave fields that do not apply as empty strings.`

func systemPrompt(ref time.Time) string {
	return fmt.Sprintf(systemPromptTemplate, ref.Format("2006-01-02 15:04 (Monday)"))
}

// JSON Schema for structured output
var interpretationSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"kind": {
			"type": "string",
			"enum": ["once", "recurring", "invalid"],
			"description": "Whether the text is a single date, a repeating schedule, or not a schedule"
		},
		"datetime": {
			"type": "string",
			"description": "Date and time as YYYY-MM-DD HH:MM when kind is once"
		},
		"rrule": {
			"type": "string",
			"description": "RFC 5545 RRULE without prefix or DTSTART when kind is recurring"
		}
	},
	"required": ["kind", "datetime", "rrule"],
	"additionalProperties": false
}`)

// Interpret asks the model to classify text relative to ref.
func (c *Client) Interpret(ctx context.Context, text string, ref time.Time) (*Interpretation, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(ref),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "interpretation",
				Schema: interpretationSchema,
				Strict: true,
			},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call AI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from AI")
	}

	content := resp.Choices[0].Message.Content
	interp := &Interpretation{RawResponse: content}

	if err := json.Unmarshal([]byte(content), interp); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	return interp, nil
}

// Parse implements recurrence.Parser. Answers the model marks invalid, or
// that do not carry the field their kind needs, are ErrUnrecognized.
func (c *Client) Parse(ctx context.Context, text string, ref time.Time) (*recurrence.Parsed, error) {
	interp, err := c.Interpret(ctx, text, ref)
	if err != nil {
		return nil, err
	}

	switch interp.Kind {
	case KindOnce:
		at, err := time.ParseInLocation(dateTimeLayout, strings.TrimSpace(interp.DateTime), time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: bad datetime %q from AI", recurrence.ErrUnrecognized, interp.DateTime)
		}
		return &recurrence.Parsed{At: at}, nil
	case KindRecurring:
		rule := strings.TrimSpace(interp.RRule)
		if rule == "" {
			return nil, fmt.Errorf("%w: empty rrule from AI", recurrence.ErrUnrecognized)
		}
		return &recurrence.Parsed{Recurring: true, Rule: rule}, nil
	default:
		return nil, recurrence.ErrUnrecognized
	}
}
