package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/finwatch/invoice-funnel/internal/adapters/extract/bedrock"
	"github.com/finwatch/invoice-funnel/internal/adapters/extract/gemini"
	"github.com/finwatch/invoice-funnel/internal/adapters/extract/openai"
	"github.com/finwatch/invoice-funnel/internal/config"
	"github.com/finwatch/invoice-funnel/internal/core"
	"github.com/finwatch/invoice-funnel/internal/utils"
)

// ExtractorFactory creates text extraction clients
type ExtractorFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewExtractorFactory creates a new extractor factory
func NewExtractorFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ExtractorFactory {
	return &ExtractorFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateTextExtractor creates a text extractor based on the configuration.
// An empty provider disables document extraction entirely; metadata and
// body signals still run.
func (f *ExtractorFactory) CreateTextExtractor() (core.TextExtractor, error) {
	extractorConfig := f.cfg.GetExtractor()

	switch extractorConfig.Provider {
	case "":
		return nil, nil
	case "bedrock":
		factory := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateTextExtractor()
	case "gemini":
		factory := gemini.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateTextExtractor()
	case "openai":
		factory := openai.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateTextExtractor()
	default:
		return nil, fmt.Errorf("unsupported extractor provider: %s", extractorConfig.Provider)
	}
}

// CreateFieldExtractor creates the structured-field extractor for accepted
// messages. Only the OpenAI provider supports it; other providers return
// nil and field extraction is skipped.
func (f *ExtractorFactory) CreateFieldExtractor() (core.FieldExtractor, error) {
	extractorConfig := f.cfg.GetExtractor()

	switch extractorConfig.Provider {
	case "openai":
		factory := openai.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateFieldExtractor()
	default:
		return nil, nil
	}
}
