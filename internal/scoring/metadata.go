// Package scoring implements the funnel's three scoring stages on top of
// the signal detector registry.
package scoring

import (
	"github.com/finwatch/invoice-funnel/internal/core"
	"github.com/finwatch/invoice-funnel/internal/signals"
	"go.uber.org/zap"
)

// MetadataScorer scores a message on filename, sender, subject and declared
// size alone. It costs nothing: no network, no content loading.
type MetadataScorer struct {
	registry *signals.Registry
	clampMin int
	clampMax int
	logger   *zap.Logger
}

// NewMetadataScorer creates a new metadata scorer
func NewMetadataScorer(registry *signals.Registry, clampMin, clampMax int, logger *zap.Logger) *MetadataScorer {
	return &MetadataScorer{
		registry: registry,
		clampMin: clampMin,
		clampMax: clampMax,
		logger:   logger,
	}
}

// Score runs every metadata detector and sums the matched weights into a
// clamped sub-score.
func (s *MetadataScorer) Score(msg *core.CandidateMessage) core.StageResult {
	result := core.StageResult{}

	// Filename detectors run over the top-level attachment names; each
	// detector counts at most once per message.
	for _, d := range []signals.Detector{
		s.registry.FilenameStrong,
		s.registry.FilenameMedium,
		s.registry.FilenameExclusion,
	} {
		for _, att := range msg.Attachments {
			if att.Filename == "" {
				continue
			}
			if m, ok := safeDetect(d, att.Filename, "filename", s.logger); ok {
				record(&result, m)
				break
			}
		}
	}

	for _, d := range []signals.Detector{
		s.registry.SubjectStrong,
		s.registry.SubjectMedium,
		s.registry.SubjectExclusion,
		s.registry.SubjectReference,
	} {
		if m, ok := safeDetect(d, msg.Subject, "subject", s.logger); ok {
			record(&result, m)
		}
	}

	if m, ok := safeDetect(s.registry.TrustedSender, msg.Domain, "sender", s.logger); ok {
		record(&result, m)
	}

	// A single banded size rule over the largest top-level attachment.
	// Out-of-band sizes just miss the bonus.
	var largest int64
	for _, att := range msg.Attachments {
		if att.Size > largest {
			largest = att.Size
		}
	}
	if largest > 0 {
		if m, ok := s.registry.SizeBand.DetectSize(largest); ok {
			record(&result, m)
		}
	}

	result.Score = core.Clamp(result.Score, s.clampMin, s.clampMax)
	return result
}

// record appends a match, sums its weight and tracks the hard/corroborating
// flags for the obvious-accept conjunction.
func record(result *core.StageResult, m core.MatchedSignal) {
	result.Matched = append(result.Matched, m)
	result.Score += m.Weight
	if signals.IsHard(m.Name) {
		result.Hard = true
	}
	if signals.IsCorroborating(m.Name) {
		result.Corroborating = true
	}
}

// safeDetect shields the funnel from a panicking detector: the failure is
// logged with the offending field and treated as no match.
func safeDetect(d signals.Detector, value, field string, logger *zap.Logger) (m core.MatchedSignal, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Detector failed, treating as no match",
				zap.String("signal", d.Name()),
				zap.String("field", field),
				zap.Any("panic", r))
			m, ok = core.MatchedSignal{}, false
		}
	}()
	return d.Detect(value)
}
