package signals

import (
	"fmt"

	"github.com/finwatch/invoice-funnel/internal/config"
	"github.com/finwatch/invoice-funnel/internal/trusted"
)

// Registry is the single configurable table of detectors the whole funnel
// scores with. Different tuning profiles are different configuration, not
// different code paths.
type Registry struct {
	FilenameStrong    Detector
	FilenameMedium    Detector
	FilenameExclusion Detector
	SubjectStrong     Detector
	SubjectMedium     Detector
	SubjectExclusion  Detector
	SubjectReference  Detector
	TrustedSender     *TrustedSenderDetector
	SizeBand          *SizeBandDetector
	Content           []Detector
	Filename          *FilenameScorer
}

// NewRegistry builds every detector from the configured tables. Pattern
// compile failures abort startup.
func NewRegistry(cfg config.FunnelConfig, set *trusted.Set) (*Registry, error) {
	w := cfg.Weights

	subjectRef, err := NewPatternDetector(SignalSubjectReference, w.SubjectReference,
		"subject contains a reference number pattern", orDefault(cfg.ReferencePattern, DefaultReferencePattern))
	if err != nil {
		return nil, err
	}
	contentRef, err := NewPatternDetector(SignalContentReference, w.ContentReference,
		"content contains a reference number pattern", orDefault(cfg.ReferencePattern, DefaultReferencePattern))
	if err != nil {
		return nil, err
	}
	contentAmount, err := NewPatternDetector(SignalContentAmount, w.ContentAmount,
		"content contains a currency amount", orDefault(cfg.AmountPattern, DefaultAmountPattern))
	if err != nil {
		return nil, err
	}
	contentTax, err := NewPatternDetector(SignalContentTax, w.ContentTax,
		"content contains a tax or VAT rate", orDefault(cfg.TaxPattern, DefaultTaxPattern))
	if err != nil {
		return nil, err
	}
	contentDate, err := NewPatternDetector(SignalContentDate, w.ContentDate,
		"content contains a date", orDefault(cfg.DatePattern, DefaultDatePattern))
	if err != nil {
		return nil, err
	}

	if len(cfg.StrongKeywords) == 0 {
		return nil, fmt.Errorf("strong keyword table is empty")
	}

	return &Registry{
		FilenameStrong: NewKeywordDetector(SignalFilenameStrong, w.FilenameStrong,
			"filename contains strong keyword %q", cfg.StrongKeywords, nil),
		FilenameMedium: NewKeywordDetector(SignalFilenameMedium, w.FilenameMedium,
			"filename contains medium keyword %q", cfg.MediumKeywords, nil),
		FilenameExclusion: NewKeywordDetector(SignalFilenameExclusion, w.Exclusion,
			"filename contains exclusion keyword %q", cfg.ExclusionKeywords, nil),
		SubjectStrong: NewKeywordDetector(SignalSubjectStrong, w.SubjectStrong,
			"subject contains strong keyword %q", cfg.StrongKeywords, cfg.GuardPhrases),
		SubjectMedium: NewKeywordDetector(SignalSubjectMedium, w.SubjectMedium,
			"subject contains medium keyword %q", cfg.MediumKeywords, cfg.GuardPhrases),
		SubjectExclusion: NewKeywordDetector(SignalSubjectExclusion, w.Exclusion,
			"subject contains exclusion keyword %q", cfg.ExclusionKeywords, nil),
		SubjectReference: subjectRef,
		TrustedSender:    NewTrustedSenderDetector(w.TrustedSender, set),
		SizeBand:         NewSizeBandDetector(w.SizeBand, cfg.SizeBandMin, cfg.SizeBandMax),
		Content: []Detector{
			NewKeywordDetector(SignalContentKeyword, w.ContentKeyword,
				"content contains invoice keyword %q", cfg.StrongKeywords, cfg.GuardPhrases),
			contentRef,
			contentAmount,
			contentTax,
			contentDate,
			NewKeywordDetector(SignalContentPayment, w.ContentPayment,
				"content contains payment confirmation phrase %q", cfg.PaymentPhrases, nil),
			NewKeywordDetector(SignalContentExclusion, w.ContentExclusion,
				"content contains exclusion phrase %q", cfg.ExclusionKeywords, nil),
		},
		Filename: NewFilenameScorer(cfg.StrongKeywords, cfg.DocumentExtensions,
			w.AttachmentStrong, w.AttachmentMedium, w.AttachmentWeak),
	}, nil
}

func orDefault(pattern, fallback string) string {
	if pattern == "" {
		return fallback
	}
	return pattern
}
