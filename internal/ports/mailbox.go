package ports

import (
	"context"

	"github.com/finwatch/invoice-funnel/internal/core"
)

// MailboxProvider is the external mailbox search/fetch collaborator. The
// funnel hands it a compiled query and never retries or paginates beyond
// what a single call returns.
type MailboxProvider interface {
	// Search returns the identifiers of messages matching the predicate
	Search(ctx context.Context, query string, limit int64) ([]string, error)

	// Fetch returns the full message structure for one identifier
	Fetch(ctx context.Context, id string) (*core.CandidateMessage, error)
}
