package di

import (
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

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewExtractorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
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

	// Register decision cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.DecisionCache, error) {
		return f.CreateDecisionCache()
	}); err != nil {
		return nil, err
	}

	// Register cache TTL and enabled flag
	if err := container.Provide(func(f *factory.CacheFactory) (time.Duration, error) {
		return f.GetCacheTTL()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) bool {
		return f.IsCacheEnabled()
	}); err != nil {
		return nil, err
	}

	// Register decision thresholds
	if err := container.Provide(func(cfg *config.Config) core.Thresholds {
		t := cfg.GetThresholds()
		return core.Thresholds{
			MaxScore:        t.MaxScore,
			MetadataFloor:   t.MetadataFloor,
			MetadataCeiling: t.MetadataCeiling,
			VerifyMin:       t.VerifyMin,
			AcceptObvious:   t.AcceptObvious,
		}
	}); err != nil {
		return nil, err
	}

	// Register classifier service
	if err := container.Provide(core.NewClassifierService); err != nil {
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
