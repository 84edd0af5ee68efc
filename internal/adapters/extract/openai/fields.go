package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/finwatch/invoice-funnel/internal/core"
)

const fieldsPrompt = `You are an invoice understanding system. The classification funnel scored this message as follows:

Category: %s
Confidence: %d
Metadata score: %d, attachment score: %d, content score: %d
Reasons:
%s

Message:
From: %s
Subject: %s
Body:
%s

Determine whether this message is a vendor invoice or receipt and extract its fields.
Respond with a JSON object containing:
- is_invoice: boolean
- vendor: string
- invoice_number: string
- currency: string (ISO 4217 code)
- total: number
- issued_on: string (ISO 8601 date, empty if unknown)
- due_on: string (ISO 8601 date, empty if unknown)

Respond only with the JSON object and nothing else.`

// FieldExtractor is the downstream document-understanding collaborator. It
// receives the funnel's decision, including the full score breakdown, so
// its judgement can be informed by the partial evidence.
type FieldExtractor struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewFieldExtractor creates a new OpenAI invoice field extractor
func NewFieldExtractor(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *FieldExtractor {
	return &FieldExtractor{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// ExtractFields extracts structured invoice fields from a message
func (e *FieldExtractor) ExtractFields(ctx context.Context, msg *core.CandidateMessage, decision *core.Decision) (*core.InvoiceFields, error) {
	prompt := fmt.Sprintf(fieldsPrompt,
		decision.Category,
		decision.Confidence,
		decision.Breakdown.MetadataScore,
		decision.Breakdown.AttachmentScore,
		decision.Breakdown.ContentScore,
		strings.Join(decision.Reasons, "\n"),
		msg.From,
		msg.Subject,
		msg.BodyText)

	req := openai.ChatCompletionRequest{
		Model: e.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an invoice understanding system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
		TopP:        e.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	responseText := resp.Choices[0].Message.Content

	var fields core.InvoiceFields
	if err := json.Unmarshal([]byte(responseText), &fields); err != nil {
		// Some models wrap the JSON in prose; extract the outermost object.
		start := strings.Index(responseText, "{")
		end := strings.LastIndex(responseText, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("failed to extract JSON from model response: %w", err)
		}
		if err := json.Unmarshal([]byte(responseText[start:end+1]), &fields); err != nil {
			return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
		}
	}

	return &fields, nil
}
