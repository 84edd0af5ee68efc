// Package signals holds the independent, pluggable heuristic detectors the
// funnel scores with. Detectors are pure functions over a single field: no
// I/O, no shared mutable state, independently testable.
package signals

import (
	"github.com/finwatch/invoice-funnel/internal/core"
)

// Detector is one named, weighted heuristic check over one input field.
type Detector interface {
	Name() string
	Detect(value string) (core.MatchedSignal, bool)
}

// Signal names. The name is the stable identifier recorded in the reason
// trail; weights are configuration, not code.
const (
	SignalFilenameStrong    = "filename_strong_keyword"
	SignalFilenameMedium    = "filename_medium_keyword"
	SignalFilenameExclusion = "filename_exclusion"
	SignalSubjectStrong     = "subject_strong_keyword"
	SignalSubjectMedium     = "subject_medium_keyword"
	SignalSubjectExclusion  = "subject_exclusion"
	SignalSubjectReference  = "subject_reference_pattern"
	SignalTrustedSender     = "trusted_sender"
	SignalSizeBand          = "plausible_document_size"
	SignalAttachmentStrong  = "attachment_name_strong"
	SignalAttachmentMedium  = "attachment_name_medium"
	SignalAttachmentWeak    = "attachment_extension"
	SignalContentKeyword    = "content_invoice_keyword"
	SignalContentReference  = "content_reference_pattern"
	SignalContentAmount     = "content_amount_pattern"
	SignalContentTax        = "content_tax_pattern"
	SignalContentDate       = "content_date_pattern"
	SignalContentPayment    = "content_payment_phrase"
	SignalContentExclusion  = "content_exclusion"

	// SignalExtractionFailed is a zero-weight marker recorded when the text
	// extraction collaborator errored or timed out; it keeps the failure
	// visible in the reason trail without moving the score.
	SignalExtractionFailed = "content_extraction_failed"
)

// IsHard reports whether the named signal is a structured reference-number
// match, the strongest class of evidence.
func IsHard(name string) bool {
	return name == SignalSubjectReference || name == SignalContentReference
}

// IsCorroborating reports whether the named signal corroborates a hard
// match for the obvious-accept conjunction.
func IsCorroborating(name string) bool {
	switch name {
	case SignalContentAmount, SignalContentTax, SignalContentPayment:
		return true
	}
	return false
}
