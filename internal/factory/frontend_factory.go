package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/finwatch/invoice-funnel/internal/adapters/cli"
	"github.com/finwatch/invoice-funnel/internal/adapters/gmail"
	"github.com/finwatch/invoice-funnel/internal/adapters/poller"
	"github.com/finwatch/invoice-funnel/internal/adapters/smtpd"
	"github.com/finwatch/invoice-funnel/internal/config"
	"github.com/finwatch/invoice-funnel/internal/core"
	"github.com/finwatch/invoice-funnel/internal/ports"
	"github.com/finwatch/invoice-funnel/internal/query"
	"github.com/finwatch/invoice-funnel/internal/trusted"
)

// FrontendFactory creates message frontends based on configuration
type FrontendFactory struct {
	cfg        *config.Config
	logger     *zap.Logger
	service    *core.ClassifierService
	trustedSet *trusted.Set
	extractors *ExtractorFactory
}

// NewFrontendFactory creates a new frontend factory
func NewFrontendFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.ClassifierService,
	trustedSet *trusted.Set,
	extractors *ExtractorFactory,
) *FrontendFactory {
	return &FrontendFactory{
		cfg:        cfg,
		logger:     logger,
		service:    service,
		trustedSet: trustedSet,
		extractors: extractors,
	}
}

// CreateFrontend creates a message frontend based on the configuration
func (f *FrontendFactory) CreateFrontend() (ports.MessageFrontend, error) {
	frontendType := f.cfg.GetString("server.frontend_type")

	switch frontendType {
	case "smtp":
		return smtpd.NewServer(f.service, f.logger, f.cfg.GetServer()), nil
	case "gmail":
		return f.createPoller()
	case "cli":
		return cli.NewFrontend(f.service, f.logger, f.cfg.GetBool("cli.verbose"))
	default:
		return nil, fmt.Errorf("unsupported frontend type: %s", frontendType)
	}
}

func (f *FrontendFactory) createPoller() (ports.MessageFrontend, error) {
	gmailCfg := f.cfg.GetGmail()

	mailbox, err := gmail.NewMailbox(context.Background(), gmailCfg, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create mailbox provider: %w", err)
	}

	funnelCfg := f.cfg.GetFunnel()
	compiler := query.NewCompiler(funnelCfg.StrongKeywords, f.trustedSet)

	fields, err := f.extractors.CreateFieldExtractor()
	if err != nil {
		return nil, fmt.Errorf("failed to create field extractor: %w", err)
	}

	return poller.NewPoller(f.service, mailbox, compiler, fields, f.logger, gmailCfg), nil
}
