package ports

import (
	"context"

	"github.com/finwatch/invoice-funnel/internal/core"
)

// MessageFrontend is an ingestion surface that feeds candidate messages
// into the classifier (SMTP content filter, mailbox poller).
type MessageFrontend interface {
	// ProcessMessage classifies a single message
	ProcessMessage(ctx context.Context, msg *core.CandidateMessage) (*core.Decision, error)

	// Start starts the frontend
	Start() error

	// Stop stops the frontend
	Stop() error
}
