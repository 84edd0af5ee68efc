// Package poller drives the funnel against a mailbox provider: it compiles
// the search predicate, fetches matching messages on an interval and runs
// each through the classifier.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/finwatch/invoice-funnel/internal/config"
	"github.com/finwatch/invoice-funnel/internal/core"
	"github.com/finwatch/invoice-funnel/internal/ports"
	"github.com/finwatch/invoice-funnel/internal/query"
)

const (
	defaultPollInterval = 5 * time.Minute
	defaultLookback     = 24 * time.Hour
)

// Poller periodically searches the mailbox and classifies new matches.
type Poller struct {
	service   *core.ClassifierService
	mailbox   ports.MailboxProvider
	compiler  *query.Compiler
	fields    core.FieldExtractor
	logger    *zap.Logger
	interval  time.Duration
	lookback  time.Duration
	pageSize  int64
	stopCh    chan struct{}
	doneCh    chan struct{}
	mu        sync.Mutex
	processed map[string]struct{}
}

// NewPoller creates a polling frontend. The field extractor may be nil, in
// which case accepted messages are classified but no structured fields are
// pulled.
func NewPoller(
	service *core.ClassifierService,
	mailbox ports.MailboxProvider,
	compiler *query.Compiler,
	fields core.FieldExtractor,
	logger *zap.Logger,
	cfg config.GmailConfig,
) *Poller {
	interval := defaultPollInterval
	if d, err := time.ParseDuration(cfg.PollInterval); err == nil && d > 0 {
		interval = d
	}
	lookback := defaultLookback
	if d, err := time.ParseDuration(cfg.Lookback); err == nil && d > 0 {
		lookback = d
	}

	return &Poller{
		service:   service,
		mailbox:   mailbox,
		compiler:  compiler,
		fields:    fields,
		logger:    logger,
		interval:  interval,
		lookback:  lookback,
		pageSize:  cfg.PageSize,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		processed: make(map[string]struct{}),
	}
}

// Start begins the polling loop. The first cycle runs immediately.
func (p *Poller) Start() error {
	p.logger.Info("Mailbox poller starting",
		zap.Duration("interval", p.interval),
		zap.Duration("lookback", p.lookback))

	go func() {
		defer close(p.doneCh)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.pollOnce()
		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.pollOnce()
			}
		}
	}()

	return nil
}

// Stop halts the polling loop and waits for an in-flight cycle to finish.
func (p *Poller) Stop() error {
	close(p.stopCh)
	<-p.doneCh
	return nil
}

// ProcessMessage classifies a single message outside the polling loop.
func (p *Poller) ProcessMessage(ctx context.Context, msg *core.CandidateMessage) (*core.Decision, error) {
	return p.service.Classify(ctx, msg), nil
}

func (p *Poller) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	dateRange := &query.DateRange{After: time.Now().Add(-p.lookback)}
	q := p.compiler.Compile(dateRange)

	ids, err := p.mailbox.Search(ctx, q, p.pageSize)
	if err != nil {
		p.logger.Error("Mailbox search failed", zap.Error(err))
		return
	}

	fresh := 0
	for _, id := range ids {
		if p.alreadyProcessed(id) {
			continue
		}
		if err := p.processOne(ctx, id); err != nil {
			p.logger.Error("Failed to process message",
				zap.String("message_id", id),
				zap.Error(err))
			continue
		}
		p.markProcessed(id)
		fresh++
	}

	p.logger.Info("Poll cycle completed",
		zap.String("query", q),
		zap.Int("matched", len(ids)),
		zap.Int("processed", fresh))
}

func (p *Poller) processOne(ctx context.Context, id string) error {
	msg, err := p.mailbox.Fetch(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	decision := p.service.Classify(ctx, msg)

	if p.fields != nil && decision.Category != core.CategoryReject {
		fields, err := p.fields.ExtractFields(ctx, msg, decision)
		if err != nil {
			p.logger.Warn("Field extraction failed",
				zap.String("message_id", id),
				zap.Error(err))
		} else {
			p.logger.Info("Extracted invoice fields",
				zap.String("message_id", id),
				zap.String("vendor", fields.Vendor),
				zap.String("invoice_number", fields.InvoiceNumber),
				zap.String("currency", fields.Currency),
				zap.Float64("total", fields.Total),
				zap.String("due_on", fields.DueOn))
		}
	}

	return nil
}

func (p *Poller) alreadyProcessed(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.processed[id]
	return ok
}

func (p *Poller) markProcessed(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// Bound the dedup set; the decision cache keeps classification cheap if
	// an old identifier comes around again.
	if len(p.processed) > 100000 {
		p.processed = make(map[string]struct{})
	}
	p.processed[id] = struct{}{}
}
