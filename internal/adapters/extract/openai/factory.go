package openai

import (
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/finwatch/invoice-funnel/internal/config"
	"github.com/finwatch/invoice-funnel/internal/core"
	"github.com/finwatch/invoice-funnel/internal/utils"
)

// Factory creates new OpenAI extractor instances
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for OpenAI extractors
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateTextExtractor creates a new OpenAI text extractor
func (f *Factory) CreateTextExtractor() (core.TextExtractor, error) {
	openaiCfg := f.cfg.GetOpenAI()
	client := openai.NewClient(openaiCfg.APIKey)

	return NewExtractor(
		client,
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		f.logger,
		f.textProcessor,
	), nil
}

// CreateFieldExtractor creates a new OpenAI invoice field extractor
func (f *Factory) CreateFieldExtractor() (core.FieldExtractor, error) {
	openaiCfg := f.cfg.GetOpenAI()
	client := openai.NewClient(openaiCfg.APIKey)

	return NewFieldExtractor(
		client,
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		f.logger,
	), nil
}
