package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Stage identifies which part of the funnel a signal belongs to
type Stage string

const (
	StageMetadata   Stage = "metadata"
	StageContent    Stage = "content"
	StageAttachment Stage = "attachment"
)

// Category is the terminal classification tier for a message
type Category string

const (
	CategoryReject            Category = "reject"
	CategoryNeedsVerification Category = "needs_verification"
	CategoryAcceptObvious     Category = "accept_obvious"
)

// Rank orders categories so that REJECT < NEEDS_VERIFICATION < ACCEPT_OBVIOUS
func (c Category) Rank() int {
	switch c {
	case CategoryNeedsVerification:
		return 1
	case CategoryAcceptObvious:
		return 2
	default:
		return 0
	}
}

// ContentOpener lazily loads the raw bytes of an attachment. The bytes are
// never loaded unless the content scorer asks for them.
type ContentOpener func(ctx context.Context) ([]byte, error)

// AttachmentDescriptor describes one part of a message's content-part tree.
// Parts nest arbitrarily: a forwarded message shows up as a part whose
// Parts slice holds the inner message's own tree.
type AttachmentDescriptor struct {
	Filename       string
	ContentType    string
	RawContentType string
	Disposition    string
	Size           int64
	Content        ContentOpener
	Parts          []AttachmentDescriptor
}

// CandidateMessage is an inbound email being evaluated for invoice-likelihood.
// Immutable once constructed; build it with NewCandidateMessage.
type CandidateMessage struct {
	ID          string
	From        string
	Domain      string
	Subject     string
	BodyText    string
	BodyHTML    string
	Received    time.Time
	Attachments []AttachmentDescriptor
}

// NewCandidateMessage validates and normalizes the message fields at the
// boundary. Missing fields degrade to empty strings rather than errors so
// that a malformed message can still be scored.
func NewCandidateMessage(id, from, subject, bodyText, bodyHTML string, received time.Time, attachments []AttachmentDescriptor) *CandidateMessage {
	from = strings.TrimSpace(from)
	domain := ""
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = strings.ToLower(strings.Trim(from[at+1:], "<> "))
	}
	return &CandidateMessage{
		ID:          strings.TrimSpace(id),
		From:        from,
		Domain:      domain,
		Subject:     strings.TrimSpace(subject),
		BodyText:    bodyText,
		BodyHTML:    bodyHTML,
		Received:    received,
		Attachments: attachments,
	}
}

// MatchedSignal is one heuristic match recorded for the reason trail.
// Insertion order in a breakdown is evaluation order.
type MatchedSignal struct {
	Name        string
	Weight      int
	Description string
}

// StageResult is the outcome of one scoring stage.
type StageResult struct {
	Score   int
	Matched []MatchedSignal
	// Hard is set when a structured reference pattern matched; Corroborating
	// when an amount, tax or payment-confirmation signal matched. Both feed
	// the obvious-accept conjunction.
	Hard          bool
	Corroborating bool
}

// AttachmentResult is the attachment scanner's stage result plus the
// document candidates it found during the walk.
type AttachmentResult struct {
	StageResult
	Documents []AttachmentDescriptor
}

// ScoreBreakdown carries the per-stage sub-scores and the ordered list of
// matched signals. TotalScore is always the sum of the three sub-scores,
// clamped to [0, MaxScore].
type ScoreBreakdown struct {
	MetadataScore   int
	ContentScore    int
	AttachmentScore int
	Matched         []MatchedSignal
	TotalScore      int
}

// Has reports whether a signal with the given name matched.
func (b *ScoreBreakdown) Has(name string) bool {
	for _, m := range b.Matched {
		if m.Name == name {
			return true
		}
	}
	return false
}

// Decision is the funnel's terminal output for one message.
type Decision struct {
	Category   Category
	Confidence int
	Reasons    []string
	Breakdown  ScoreBreakdown
	DecidedAt  time.Time
}

// Thresholds holds the fixed decision constants. They are loaded once from
// configuration and never derived at runtime.
type Thresholds struct {
	MaxScore        int
	MetadataFloor   int
	MetadataCeiling int
	VerifyMin       int
	AcceptObvious   int
}

// Validate fails fast on a threshold table that would corrupt every
// decision if silently defaulted.
func (t Thresholds) Validate() error {
	if t.MaxScore <= 0 {
		return fmt.Errorf("max score must be positive, got %d", t.MaxScore)
	}
	if t.MetadataFloor >= t.MetadataCeiling {
		return fmt.Errorf("metadata floor %d must be below ceiling %d", t.MetadataFloor, t.MetadataCeiling)
	}
	if t.VerifyMin <= 0 || t.VerifyMin >= t.AcceptObvious {
		return fmt.Errorf("verify threshold %d must be positive and below accept threshold %d", t.VerifyMin, t.AcceptObvious)
	}
	if t.AcceptObvious > t.MaxScore {
		return fmt.Errorf("accept threshold %d exceeds max score %d", t.AcceptObvious, t.MaxScore)
	}
	return nil
}

// CacheEntry is a previously computed decision kept by message ID.
type CacheEntry struct {
	MessageID  string
	Category   Category
	Confidence int
	DecidedAt  time.Time
	ExpiresAt  time.Time
}

// InvoiceFields is the structured output of the downstream document
// understanding collaborator. The funnel never produces these itself.
type InvoiceFields struct {
	IsInvoice     bool    `json:"is_invoice"`
	Vendor        string  `json:"vendor"`
	InvoiceNumber string  `json:"invoice_number"`
	Currency      string  `json:"currency"`
	Total         float64 `json:"total"`
	IssuedOn      string  `json:"issued_on"`
	DueOn         string  `json:"due_on"`
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
