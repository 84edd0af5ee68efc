package bedrock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/finwatch/invoice-funnel/internal/utils"
)

const extractPrompt = `Human: The following is a document of type %s, base64 encoded.
Decode it and return only the plain text content of the document, with no commentary.

Document:
%s

Assistant:`

// Extractor is an implementation of the TextExtractor interface using Amazon Bedrock
type Extractor struct {
	client        *bedrockruntime.Client
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewExtractor creates a new Bedrock text extractor
func NewExtractor(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Extractor {
	return &Extractor{
		client:        client,
		modelID:       modelID,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (e *Extractor) isAnthropicModel() bool {
	return strings.HasPrefix(e.modelID, "anthropic.")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (e *Extractor) isAmazonTitanModel() bool {
	return strings.HasPrefix(e.modelID, "amazon.titan")
}

// ExtractText returns the plain text content of the document. Text-bearing
// content types are decoded locally; binary documents go through the model.
func (e *Extractor) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	if isTextType(contentType) {
		return e.textProcessor.SanitizeUTF8(string(data)), nil
	}

	prompt := fmt.Sprintf(extractPrompt, contentType, base64.StdEncoding.EncodeToString(data))

	var payload []byte
	var err error

	if e.isAnthropicModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               prompt,
			"max_tokens_to_sample": e.maxTokens,
			"temperature":          e.temperature,
			"top_p":                e.topP,
		})
	} else if e.isAmazonTitanModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": e.maxTokens,
				"temperature":   e.temperature,
				"topP":          e.topP,
			},
		})
	} else {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  e.maxTokens,
			"temperature": e.temperature,
			"top_p":       e.topP,
		})
	}

	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &e.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	text, err := e.parseResponse(resp.Body)
	if err != nil {
		return "", err
	}

	e.logger.Debug("Extracted document text",
		zap.String("model", e.modelID),
		zap.String("content_type", contentType),
		zap.Int("document_size", len(data)))

	return text, nil
}

// parseResponse pulls the generated text out of the model-specific response shape
func (e *Extractor) parseResponse(body []byte) (string, error) {
	if e.isAnthropicModel() {
		var resp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse Bedrock response: %w", err)
		}
		return strings.TrimSpace(resp.Completion), nil
	}

	if e.isAmazonTitanModel() {
		var resp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse Bedrock response: %w", err)
		}
		if len(resp.Results) == 0 {
			return "", fmt.Errorf("empty response from Bedrock")
		}
		return strings.TrimSpace(resp.Results[0].OutputText), nil
	}

	var resp struct {
		Completion string `json:"completion"`
		Text       string `json:"text"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse Bedrock response: %w", err)
	}
	if resp.Completion != "" {
		return strings.TrimSpace(resp.Completion), nil
	}
	return strings.TrimSpace(resp.Text), nil
}

func isTextType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.HasPrefix(contentType, "text/") ||
		strings.HasPrefix(contentType, "application/xhtml") ||
		strings.HasPrefix(contentType, "message/")
}
