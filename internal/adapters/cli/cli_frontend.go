// Package cli runs a single classification from the command line and
// prints the decision trail.
package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/finwatch/invoice-funnel/internal/core"
)

// Frontend implements a command-line interface for one-shot classification
type Frontend struct {
	service *core.ClassifierService
	logger  *zap.Logger
	verbose bool
}

// NewFrontend creates a new CLI frontend
func NewFrontend(service *core.ClassifierService, logger *zap.Logger, verbose bool) (*Frontend, error) {
	return &Frontend{
		service: service,
		logger:  logger,
		verbose: verbose,
	}, nil
}

// ProcessMessage classifies a message and displays the results
func (f *Frontend) ProcessMessage(ctx context.Context, msg *core.CandidateMessage) (*core.Decision, error) {
	f.logger.Debug("Processing message", zap.String("sender", msg.From))

	fmt.Printf("\n=== Message Summary ===\n")
	fmt.Printf("From: %s\n", msg.From)
	fmt.Printf("Subject: %s\n", msg.Subject)
	fmt.Printf("Body length: %d bytes\n", len(msg.BodyText)+len(msg.BodyHTML))
	fmt.Printf("Attachments: %d\n", len(msg.Attachments))

	if f.verbose {
		preview := msg.BodyText
		if preview == "" {
			preview = msg.BodyHTML
		}
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\n=== Classification ===\n")
	startTime := time.Now()
	decision := f.service.Classify(ctx, msg)
	duration := time.Since(startTime)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Category: %s\n", decision.Category)
	fmt.Printf("Confidence: %d\n", decision.Confidence)
	fmt.Printf("Metadata score: %d\n", decision.Breakdown.MetadataScore)
	fmt.Printf("Attachment score: %d\n", decision.Breakdown.AttachmentScore)
	fmt.Printf("Content score: %d\n", decision.Breakdown.ContentScore)
	fmt.Printf("Total score: %d\n", decision.Breakdown.TotalScore)
	for _, reason := range decision.Reasons {
		fmt.Printf("Reason: %s\n", reason)
	}
	fmt.Printf("Processing time: %v\n", duration)

	return decision, nil
}

// Start is a no-op for the CLI frontend
func (f *Frontend) Start() error {
	return nil
}

// Stop is a no-op for the CLI frontend
func (f *Frontend) Stop() error {
	return nil
}
