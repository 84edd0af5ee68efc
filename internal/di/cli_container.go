package di

import (
	"flag"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/finwatch/invoice-funnel/internal/config"
	"github.com/finwatch/invoice-funnel/internal/core"
	"github.com/finwatch/invoice-funnel/internal/factory"
	"github.com/finwatch/invoice-funnel/internal/logging"
	"github.com/finwatch/invoice-funnel/internal/ports"
	"github.com/finwatch/invoice-funnel/internal/scoring"
	"github.com/finwatch/invoice-funnel/internal/signals"
	"github.com/finwatch/invoice-funnel/internal/trusted"
	"github.com/finwatch/invoice-funnel/internal/utils"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Extraction provider flags
	Provider        string
	MaxTokens       int
	Temperature     float64
	TopP            float64
	ExtractTimeout  string
	MaxDocumentSize int

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// Extraction provider flags
	flag.StringVar(&flags.Provider, "provider", "", "Extraction provider (bedrock, gemini, openai); empty disables document extraction")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 2000, "Maximum tokens for the extraction response")
	flag.Float64Var(&flags.Temperature, "temperature", 0.0, "Temperature for the extraction model")
	flag.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for the extraction model")
	flag.StringVar(&flags.ExtractTimeout, "extract-timeout", "30s", "Timeout for document text extraction")
	flag.IntVar(&flags.MaxDocumentSize, "max-document-size", 262144, "Maximum document bytes sent for extraction")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4o-mini", "OpenAI model name")

	// Input flags
	flag.StringVar(&flags.InputFile, "file", "", "Input message file (use stdin if not specified)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container
// for the CLI application. The CLI runs without a decision cache.
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewExtractorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register trusted sender set
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *trusted.Set {
		return trusted.NewSet(cfg.GetFunnel().TrustedDomains, logger)
	}); err != nil {
		return nil, err
	}

	// Register signal registry
	if err := container.Provide(func(cfg *config.Config, set *trusted.Set) (*signals.Registry, error) {
		return signals.NewRegistry(cfg.GetFunnel(), set)
	}); err != nil {
		return nil, err
	}

	// Register text extractor
	if err := container.Provide(func(f *factory.ExtractorFactory) (core.TextExtractor, error) {
		return f.CreateTextExtractor()
	}); err != nil {
		return nil, err
	}

	// Register stage scorers
	if err := container.Provide(func(cfg *config.Config, registry *signals.Registry, logger *zap.Logger) core.MetadataScorer {
		clamps := cfg.GetFunnel().Clamps
		return scoring.NewMetadataScorer(registry, clamps.MetadataMin, clamps.MetadataMax, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, registry *signals.Registry, logger *zap.Logger) core.AttachmentScanner {
		funnelCfg := cfg.GetFunnel()
		return scoring.NewAttachmentScanner(
			registry,
			funnelCfg.DocumentContentType,
			funnelCfg.GenericContentTypes,
			funnelCfg.DocumentExtensions,
			funnelCfg.Clamps.AttachmentMin,
			funnelCfg.Clamps.AttachmentMax,
			logger,
		)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		cfg *config.Config,
		extractor core.TextExtractor,
		registry *signals.Registry,
		textProcessor *utils.TextProcessor,
		logger *zap.Logger,
	) (core.ContentScorer, error) {
		extractorCfg := cfg.GetExtractor()
		timeout, err := time.ParseDuration(extractorCfg.Timeout)
		if err != nil {
			return nil, err
		}
		clamps := cfg.GetFunnel().Clamps
		return scoring.NewContentScorer(
			extractor,
			timeout,
			registry,
			clamps.ContentMin,
			clamps.ContentMax,
			extractorCfg.MaxDocumentSize,
			textProcessor,
			logger,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register classifier service with no cache
	if err := container.Provide(func(
		cfg *config.Config,
		metadata core.MetadataScorer,
		attachments core.AttachmentScanner,
		content core.ContentScorer,
		logger *zap.Logger,
	) (*core.ClassifierService, error) {
		t := cfg.GetThresholds()
		return core.NewClassifierService(
			metadata,
			attachments,
			content,
			nil, // No cache for CLI
			false,
			time.Duration(0),
			core.Thresholds{
				MaxScore:        t.MaxScore,
				MetadataFloor:   t.MetadataFloor,
				MetadataCeiling: t.MetadataCeiling,
				VerifyMin:       t.VerifyMin,
				AcceptObvious:   t.AcceptObvious,
			},
			logger,
		)
	}); err != nil {
		return nil, err
	}

	// Register message frontend
	if err := container.Provide(func(f *factory.FrontendFactory) (ports.MessageFrontend, error) {
		return f.CreateFrontend()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// CLI specific settings
	v.Set("server.frontend_type", "cli")
	v.Set("cli.verbose", flags.Verbose)

	// Extraction provider
	v.Set("extractor.provider", flags.Provider)
	v.Set("extractor.timeout", flags.ExtractTimeout)
	v.Set("extractor.max_document_size", flags.MaxDocumentSize)

	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
	}

	return config.NewFromViper(v)
}
