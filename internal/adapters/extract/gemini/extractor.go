package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/finwatch/invoice-funnel/internal/utils"
)

// Extractor is an implementation of the TextExtractor interface using Google Gemini
type Extractor struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewExtractor creates a new Gemini text extractor
func NewExtractor(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*Extractor, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &Extractor{
		client:        client,
		model:         model,
		modelName:     modelName,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (e *Extractor) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// ExtractText returns the plain text content of the document. Gemini takes
// document bytes directly as a blob part, so binary documents need no
// base64 detour.
func (e *Extractor) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	if isTextType(contentType) {
		return e.textProcessor.SanitizeUTF8(string(data)), nil
	}

	resp, err := e.model.GenerateContent(ctx,
		genai.Text("Return only the plain text content of this document, with no commentary."),
		genai.Blob{MIMEType: contentType, Data: data},
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	e.logger.Debug("Extracted document text",
		zap.String("model", e.modelName),
		zap.String("content_type", contentType),
		zap.Int("document_size", len(data)))

	return strings.TrimSpace(b.String()), nil
}

func isTextType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.HasPrefix(contentType, "text/") ||
		strings.HasPrefix(contentType, "application/xhtml") ||
		strings.HasPrefix(contentType, "message/")
}
