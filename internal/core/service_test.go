package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubMetadata struct {
	result StageResult
}

func (s *stubMetadata) Score(msg *CandidateMessage) StageResult {
	return s.result
}

type stubScanner struct {
	result AttachmentResult
}

func (s *stubScanner) Scan(parts []AttachmentDescriptor) AttachmentResult {
	return s.result
}

type stubContent struct {
	result StageResult
	calls  int
}

func (s *stubContent) Score(ctx context.Context, msg *CandidateMessage, documents []AttachmentDescriptor) StageResult {
	s.calls++
	return s.result
}

type stubCache struct {
	entries map[string]*CacheEntry
	sets    int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]*CacheEntry)}
}

func (c *stubCache) Get(ctx context.Context, messageID string) (*CacheEntry, error) {
	entry, ok := c.entries[messageID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return entry, nil
}

func (c *stubCache) Set(ctx context.Context, entry *CacheEntry) error {
	c.sets++
	c.entries[entry.MessageID] = entry
	return nil
}

func (c *stubCache) Delete(ctx context.Context, messageID string) error {
	delete(c.entries, messageID)
	return nil
}

func (c *stubCache) Cleanup(ctx context.Context) error {
	return nil
}

func testThresholds() Thresholds {
	return Thresholds{
		MaxScore:        100,
		MetadataFloor:   0,
		MetadataCeiling: 50,
		VerifyMin:       25,
		AcceptObvious:   60,
	}
}

func newTestService(t *testing.T, meta StageResult, att AttachmentResult, content *stubContent) *ClassifierService {
	t.Helper()
	svc, err := NewClassifierService(
		&stubMetadata{result: meta},
		&stubScanner{result: att},
		content,
		nil,
		false,
		0,
		testThresholds(),
		zap.NewNop(),
	)
	require.NoError(t, err)
	return svc
}

func testMessage() *CandidateMessage {
	return NewCandidateMessage(
		"msg-1",
		"billing@vendor.example",
		"Invoice for April",
		"see attached",
		"",
		time.Now(),
		nil,
	)
}

func matched(name string, weight int) MatchedSignal {
	return MatchedSignal{Name: name, Weight: weight, Description: name}
}

func TestNewClassifierServiceRejectsBrokenThresholds(t *testing.T) {
	broken := testThresholds()
	broken.MetadataFloor = 80 // above ceiling

	_, err := NewClassifierService(
		&stubMetadata{}, &stubScanner{}, &stubContent{},
		nil, false, 0, broken, zap.NewNop(),
	)
	assert.Error(t, err)
}

func TestMetadataBelowFloorRejectsWithoutContentStage(t *testing.T) {
	content := &stubContent{result: StageResult{Score: 60}}
	svc := newTestService(t,
		StageResult{Score: -25, Matched: []MatchedSignal{matched("subject_exclusion", -25)}},
		AttachmentResult{},
		content,
	)

	decision := svc.Classify(context.Background(), testMessage())

	assert.Equal(t, CategoryReject, decision.Category)
	assert.Equal(t, 0, content.calls, "content stage must not run when metadata settles the outcome")
	require.NotEmpty(t, decision.Reasons)
	assert.Contains(t, decision.Reasons[len(decision.Reasons)-1], "below floor")
}

func TestMetadataAboveCeilingAcceptsWithoutContentStage(t *testing.T) {
	content := &stubContent{result: StageResult{Score: -40}}
	svc := newTestService(t,
		StageResult{Score: 57, Matched: []MatchedSignal{matched("subject_strong_keyword", 15)}},
		AttachmentResult{StageResult: StageResult{Score: 15}},
		content,
	)

	decision := svc.Classify(context.Background(), testMessage())

	assert.Equal(t, CategoryAcceptObvious, decision.Category)
	assert.Equal(t, 0, content.calls)
	assert.Contains(t, decision.Reasons[len(decision.Reasons)-1], "at or above ceiling")
}

func TestHighTotalWithoutHardSignalOnlyVerifies(t *testing.T) {
	content := &stubContent{result: StageResult{Score: 55, Corroborating: true}}
	svc := newTestService(t,
		StageResult{Score: 20},
		AttachmentResult{},
		content,
	)

	decision := svc.Classify(context.Background(), testMessage())

	assert.Equal(t, CategoryNeedsVerification, decision.Category)
	assert.Equal(t, 1, content.calls)
}

func TestHighTotalWithoutCorroborationOnlyVerifies(t *testing.T) {
	content := &stubContent{result: StageResult{Score: 55, Hard: true}}
	svc := newTestService(t, StageResult{Score: 20}, AttachmentResult{}, content)

	decision := svc.Classify(context.Background(), testMessage())

	assert.Equal(t, CategoryNeedsVerification, decision.Category)
}

func TestHardAndCorroboratingSignalsAccept(t *testing.T) {
	content := &stubContent{result: StageResult{
		Score:         55,
		Hard:          true,
		Corroborating: true,
		Matched: []MatchedSignal{
			matched("content_reference_pattern", 20),
			matched("content_amount_pattern", 15),
		},
	}}
	svc := newTestService(t,
		StageResult{Score: 8, Matched: []MatchedSignal{matched("subject_medium_keyword", 8)}},
		AttachmentResult{},
		content,
	)

	decision := svc.Classify(context.Background(), testMessage())

	assert.Equal(t, CategoryAcceptObvious, decision.Category)
	assert.Equal(t, 63, decision.Breakdown.TotalScore)
}

func TestMidScoreLandsInVerificationBand(t *testing.T) {
	content := &stubContent{result: StageResult{Score: 14}}
	svc := newTestService(t, StageResult{Score: 15}, AttachmentResult{}, content)

	decision := svc.Classify(context.Background(), testMessage())

	assert.Equal(t, CategoryNeedsVerification, decision.Category)
	assert.Equal(t, 29, decision.Breakdown.TotalScore)
}

func TestLowTotalRejects(t *testing.T) {
	content := &stubContent{result: StageResult{Score: 5}}
	svc := newTestService(t, StageResult{Score: 5}, AttachmentResult{}, content)

	decision := svc.Classify(context.Background(), testMessage())

	assert.Equal(t, CategoryReject, decision.Category)
}

func TestHigherContentScoreNeverLowersCategory(t *testing.T) {
	prevRank := -1
	for score := -40; score <= 60; score += 5 {
		content := &stubContent{result: StageResult{Score: score, Hard: true, Corroborating: true}}
		svc := newTestService(t, StageResult{Score: 10}, AttachmentResult{}, content)

		decision := svc.Classify(context.Background(), testMessage())

		rank := decision.Category.Rank()
		assert.GreaterOrEqual(t, rank, prevRank,
			"category degraded when content score rose to %d", score)
		prevRank = rank
	}
}

func TestTotalScoreClampedToRange(t *testing.T) {
	content := &stubContent{result: StageResult{Score: -40}}
	svc := newTestService(t, StageResult{Score: 2}, AttachmentResult{}, content)

	decision := svc.Classify(context.Background(), testMessage())

	assert.Equal(t, 0, decision.Breakdown.TotalScore)
	assert.Equal(t, 0, decision.Confidence)
	assert.Equal(t, CategoryReject, decision.Category)
}

func TestConfidenceScalesWithTotal(t *testing.T) {
	content := &stubContent{result: StageResult{Score: 30}}
	svc := newTestService(t, StageResult{Score: 20}, AttachmentResult{}, content)

	decision := svc.Classify(context.Background(), testMessage())

	assert.Equal(t, 50, decision.Breakdown.TotalScore)
	assert.Equal(t, 50, decision.Confidence)
}

func TestReasonTrailListsSignalsThenRule(t *testing.T) {
	content := &stubContent{result: StageResult{
		Score:   10,
		Matched: []MatchedSignal{{Name: "content_invoice_keyword", Weight: 10, Description: "content contains invoice keyword \"invoice\""}},
	}}
	svc := newTestService(t,
		StageResult{Score: 15, Matched: []MatchedSignal{{Name: "subject_strong_keyword", Weight: 15, Description: "subject contains strong keyword \"invoice\""}}},
		AttachmentResult{},
		content,
	)

	decision := svc.Classify(context.Background(), testMessage())

	require.Len(t, decision.Reasons, 3)
	assert.Contains(t, decision.Reasons[0], "(+15)")
	assert.Contains(t, decision.Reasons[1], "(+10)")
	assert.Contains(t, decision.Reasons[2], "verification threshold")
}

func TestExtractionFailureMarkerDoesNotMoveScore(t *testing.T) {
	content := &stubContent{result: StageResult{
		Score: 10,
		Matched: []MatchedSignal{
			{Name: "content_extraction_failed", Weight: 0, Description: "content analysis unavailable"},
			matched("content_invoice_keyword", 10),
		},
	}}
	svc := newTestService(t, StageResult{Score: 20}, AttachmentResult{}, content)

	decision := svc.Classify(context.Background(), testMessage())

	assert.Equal(t, 30, decision.Breakdown.TotalScore)
	assert.True(t, decision.Breakdown.Has("content_extraction_failed"))
	assert.Contains(t, decision.Reasons[0], "(+0)")
}

func TestClassificationIsDeterministic(t *testing.T) {
	content := &stubContent{result: StageResult{Score: 14}}
	svc := newTestService(t, StageResult{Score: 15}, AttachmentResult{}, content)

	first := svc.Classify(context.Background(), testMessage())
	second := svc.Classify(context.Background(), testMessage())

	assert.Equal(t, first.Category, second.Category)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Breakdown.TotalScore, second.Breakdown.TotalScore)
	assert.Equal(t, first.Reasons, second.Reasons)
}

func TestCachedDecisionSkipsScoring(t *testing.T) {
	content := &stubContent{result: StageResult{Score: 14}}
	cache := newStubCache()
	svc, err := NewClassifierService(
		&stubMetadata{result: StageResult{Score: 15}},
		&stubScanner{},
		content,
		cache,
		true,
		time.Hour,
		testThresholds(),
		zap.NewNop(),
	)
	require.NoError(t, err)

	first := svc.Classify(context.Background(), testMessage())
	second := svc.Classify(context.Background(), testMessage())

	assert.Equal(t, 1, content.calls, "second call must be served from cache")
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, first.Category, second.Category)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, []string{"result from cache"}, second.Reasons)
}

func TestMessageWithoutIDBypassesCache(t *testing.T) {
	content := &stubContent{result: StageResult{Score: 14}}
	cache := newStubCache()
	svc, err := NewClassifierService(
		&stubMetadata{result: StageResult{Score: 15}},
		&stubScanner{},
		content,
		cache,
		true,
		time.Hour,
		testThresholds(),
		zap.NewNop(),
	)
	require.NoError(t, err)

	msg := NewCandidateMessage("", "a@b.example", "Invoice", "", "", time.Now(), nil)
	svc.Classify(context.Background(), msg)
	svc.Classify(context.Background(), msg)

	assert.Equal(t, 2, content.calls)
	assert.Equal(t, 0, cache.sets)
}

func TestNewCandidateMessageDerivesDomain(t *testing.T) {
	msg := NewCandidateMessage("id", "Acme Billing <Billing@MAIL.Acme.COM>", "s", "", "", time.Now(), nil)
	assert.Equal(t, "mail.acme.com", msg.Domain)

	noAt := NewCandidateMessage("id", "not-an-address", "s", "", "", time.Now(), nil)
	assert.Equal(t, "", noAt.Domain)

	empty := NewCandidateMessage("id", "", "s", "", "", time.Now(), nil)
	assert.Equal(t, "", empty.Domain)
}

func TestCategoryRankOrdering(t *testing.T) {
	assert.Less(t, CategoryReject.Rank(), CategoryNeedsVerification.Rank())
	assert.Less(t, CategoryNeedsVerification.Rank(), CategoryAcceptObvious.Rank())
}
