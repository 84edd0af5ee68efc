package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ClassifierService is the decision aggregator. It runs the cheap stages
// unconditionally, short-circuits around the content stage whenever the
// metadata score alone settles the outcome, and folds the sub-scores into a
// three-tier decision with an audit-ready reason trail.
type ClassifierService struct {
	metadata     MetadataScorer
	attachments  AttachmentScanner
	content      ContentScorer
	cache        DecisionCache
	cacheEnabled bool
	cacheTTL     time.Duration
	thresholds   Thresholds
	logger       *zap.Logger
}

// NewClassifierService creates a new classifier service
func NewClassifierService(
	metadata MetadataScorer,
	attachments AttachmentScanner,
	content ContentScorer,
	cache DecisionCache,
	cacheEnabled bool,
	cacheTTL time.Duration,
	thresholds Thresholds,
	logger *zap.Logger,
) (*ClassifierService, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid decision thresholds: %w", err)
	}
	return &ClassifierService{
		metadata:     metadata,
		attachments:  attachments,
		content:      content,
		cache:        cache,
		cacheEnabled: cacheEnabled,
		cacheTTL:     cacheTTL,
		thresholds:   thresholds,
		logger:       logger,
	}, nil
}

// Classify scores a candidate message and returns a Decision. It never
// returns an error: detector and extraction failures degrade to missing
// signals, and a valid decision always comes back.
func (s *ClassifierService) Classify(ctx context.Context, msg *CandidateMessage) *Decision {
	if s.cacheEnabled && msg.ID != "" {
		if entry, err := s.cache.Get(ctx, msg.ID); err == nil {
			s.logger.Debug("Cache hit for message", zap.String("message_id", msg.ID))
			return &Decision{
				Category:   entry.Category,
				Confidence: entry.Confidence,
				Reasons:    []string{"result from cache"},
				DecidedAt:  time.Now(),
			}
		}
	}

	decision := s.classify(ctx, msg)

	if s.cacheEnabled && msg.ID != "" {
		entry := &CacheEntry{
			MessageID:  msg.ID,
			Category:   decision.Category,
			Confidence: decision.Confidence,
			DecidedAt:  decision.DecidedAt,
			ExpiresAt:  time.Now().Add(s.cacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Error("Failed to update decision cache", zap.Error(err))
		}
	}

	s.logger.Info("Classified message",
		zap.String("message_id", msg.ID),
		zap.String("sender_domain", msg.Domain),
		zap.String("category", string(decision.Category)),
		zap.Int("confidence", decision.Confidence),
		zap.Int("total_score", decision.Breakdown.TotalScore))

	return decision
}

func (s *ClassifierService) classify(ctx context.Context, msg *CandidateMessage) *Decision {
	meta := s.metadata.Score(msg)
	att := s.attachments.Scan(msg.Attachments)

	// Short-circuit low: not worth the cost of content analysis.
	if meta.Score < s.thresholds.MetadataFloor {
		rule := fmt.Sprintf("metadata score %d below floor %d", meta.Score, s.thresholds.MetadataFloor)
		return s.decide(CategoryReject, meta, att.StageResult, StageResult{}, rule)
	}

	// Short-circuit high: metadata alone is conclusive.
	if meta.Score >= s.thresholds.MetadataCeiling {
		rule := fmt.Sprintf("metadata score %d at or above ceiling %d", meta.Score, s.thresholds.MetadataCeiling)
		return s.decide(CategoryAcceptObvious, meta, att.StageResult, StageResult{}, rule)
	}

	// Ambiguous: pay for the content stage.
	content := s.content.Score(ctx, msg, att.Documents)

	total := meta.Score + att.Score + content.Score
	hard := meta.Hard || att.Hard || content.Hard
	corroborating := meta.Corroborating || att.Corroborating || content.Corroborating

	switch {
	case total >= s.thresholds.AcceptObvious && hard && corroborating:
		rule := fmt.Sprintf("total score %d at or above accept threshold %d with structured and corroborating signals", total, s.thresholds.AcceptObvious)
		return s.decide(CategoryAcceptObvious, meta, att.StageResult, content, rule)
	case total >= s.thresholds.VerifyMin:
		rule := fmt.Sprintf("total score %d at or above verification threshold %d", total, s.thresholds.VerifyMin)
		return s.decide(CategoryNeedsVerification, meta, att.StageResult, content, rule)
	default:
		rule := fmt.Sprintf("total score %d below verification threshold %d", total, s.thresholds.VerifyMin)
		return s.decide(CategoryReject, meta, att.StageResult, content, rule)
	}
}

// decide assembles the breakdown and reason trail. The reason list mirrors
// the matched signals in evaluation order and ends with the threshold rule
// that actually picked the category.
func (s *ClassifierService) decide(category Category, meta, att, content StageResult, rule string) *Decision {
	matched := make([]MatchedSignal, 0, len(meta.Matched)+len(att.Matched)+len(content.Matched))
	matched = append(matched, meta.Matched...)
	matched = append(matched, att.Matched...)
	matched = append(matched, content.Matched...)

	total := Clamp(meta.Score+att.Score+content.Score, 0, s.thresholds.MaxScore)

	reasons := make([]string, 0, len(matched)+1)
	for _, m := range matched {
		reasons = append(reasons, fmt.Sprintf("%s (%+d)", m.Description, m.Weight))
	}
	reasons = append(reasons, rule)

	confidence := (100*total + s.thresholds.MaxScore/2) / s.thresholds.MaxScore

	return &Decision{
		Category:   category,
		Confidence: confidence,
		Reasons:    reasons,
		Breakdown: ScoreBreakdown{
			MetadataScore:   meta.Score,
			ContentScore:    content.Score,
			AttachmentScore: att.Score,
			Matched:         matched,
			TotalScore:      total,
		},
		DecidedAt: time.Now(),
	}
}
