package core

import (
	"context"
)

// TextExtractor obtains plain text from raw document bytes. This is the only
// collaborator the funnel blocks on; callers must bound it with a timeout.
type TextExtractor interface {
	// ExtractText returns the plain text content of the document
	ExtractText(ctx context.Context, data []byte, contentType string) (string, error)
}

// FieldExtractor is the downstream document understanding collaborator. It is
// never consulted to produce a Decision; it receives the message and the
// decision (including the full score breakdown) after the funnel has run.
type FieldExtractor interface {
	// ExtractFields extracts structured invoice fields from a message
	ExtractFields(ctx context.Context, msg *CandidateMessage, decision *Decision) (*InvoiceFields, error)
}

// MetadataScorer scores a message on metadata-only signals, at zero
// network/content cost.
type MetadataScorer interface {
	Score(msg *CandidateMessage) StageResult
}

// AttachmentScanner walks the content-part tree and scores document
// candidates found along the way.
type AttachmentScanner interface {
	Scan(parts []AttachmentDescriptor) AttachmentResult
}

// ContentScorer scores extracted text. It may block on the text extraction
// collaborator and must fail soft to a zero score.
type ContentScorer interface {
	Score(ctx context.Context, msg *CandidateMessage, documents []AttachmentDescriptor) StageResult
}

// DecisionCache stores previously computed decisions by message ID
type DecisionCache interface {
	// Get retrieves a cached entry for a message
	Get(ctx context.Context, messageID string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, messageID string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
