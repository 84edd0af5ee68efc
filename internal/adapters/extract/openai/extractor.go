package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/finwatch/invoice-funnel/internal/utils"
)

const extractPrompt = `You are a document transcription system. The following is a document of type %s, base64 encoded.
Decode it and return only the plain text content of the document, with no commentary.

Document:
%s`

// Extractor is an implementation of the TextExtractor interface using OpenAI
type Extractor struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewExtractor creates a new OpenAI text extractor
func NewExtractor(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Extractor {
	return &Extractor{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// ExtractText returns the plain text content of the document. Text-bearing
// content types are decoded locally; binary documents go through the model.
func (e *Extractor) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	if isTextType(contentType) {
		return e.textProcessor.SanitizeUTF8(string(data)), nil
	}

	prompt := fmt.Sprintf(extractPrompt, contentType, base64.StdEncoding.EncodeToString(data))

	req := openai.ChatCompletionRequest{
		Model: e.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a document transcription system. Respond only with the document's plain text.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
		TopP:        e.topP,
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	e.logger.Debug("Extracted document text",
		zap.String("model", e.modelName),
		zap.String("content_type", contentType),
		zap.Int("document_size", len(data)))

	return resp.Choices[0].Message.Content, nil
}

func isTextType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.HasPrefix(contentType, "text/") ||
		strings.HasPrefix(contentType, "application/xhtml") ||
		strings.HasPrefix(contentType, "message/")
}
