package gemini

import (
	"go.uber.org/zap"

	"github.com/finwatch/invoice-funnel/internal/config"
	"github.com/finwatch/invoice-funnel/internal/core"
	"github.com/finwatch/invoice-funnel/internal/utils"
)

// Factory creates new Gemini extractor instances
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for Gemini extractors
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateTextExtractor creates a new Gemini text extractor
func (f *Factory) CreateTextExtractor() (core.TextExtractor, error) {
	geminiCfg := f.cfg.GetGemini()

	return NewExtractor(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		f.logger,
		f.textProcessor,
	)
}
