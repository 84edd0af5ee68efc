package scoring

import (
	"context"
	"time"

	"github.com/finwatch/invoice-funnel/internal/core"
	"github.com/finwatch/invoice-funnel/internal/signals"
	"github.com/finwatch/invoice-funnel/internal/utils"
	"go.uber.org/zap"
)

// ContentScorer runs the content-stage detectors over the message body and,
// when a document candidate exists, over text obtained from the extraction
// collaborator. Extraction is the only blocking call in the funnel: it runs
// under a hard timeout and fails soft. An inconclusive content stage never
// aborts a classification.
type ContentScorer struct {
	extractor       core.TextExtractor
	timeout         time.Duration
	detectors       []signals.Detector
	clampMin        int
	clampMax        int
	maxDocumentSize int
	textProcessor   *utils.TextProcessor
	logger          *zap.Logger
}

// NewContentScorer creates a new content scorer
func NewContentScorer(
	extractor core.TextExtractor,
	timeout time.Duration,
	registry *signals.Registry,
	clampMin, clampMax int,
	maxDocumentSize int,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) *ContentScorer {
	return &ContentScorer{
		extractor:       extractor,
		timeout:         timeout,
		detectors:       registry.Content,
		clampMin:        clampMin,
		clampMax:        clampMax,
		maxDocumentSize: maxDocumentSize,
		textProcessor:   textProcessor,
		logger:          logger,
	}
}

// Score obtains text and runs the content detectors over it. The message
// body needs no extraction; document candidates go through the extractor
// under the configured timeout. On extraction failure the document's text
// is simply absent and the failure is recorded in the trail.
func (s *ContentScorer) Score(ctx context.Context, msg *core.CandidateMessage, documents []core.AttachmentDescriptor) core.StageResult {
	result := core.StageResult{}

	text := msg.BodyText
	if text == "" {
		text = msg.BodyHTML
	}

	if len(documents) > 0 && s.extractor != nil {
		extracted, err := s.extractDocument(ctx, documents[0])
		if err != nil {
			s.logger.Warn("Text extraction failed, scoring without document content",
				zap.String("message_id", msg.ID),
				zap.String("filename", documents[0].Filename),
				zap.Error(err))
			result.Matched = append(result.Matched, core.MatchedSignal{
				Name:        signals.SignalExtractionFailed,
				Weight:      0,
				Description: "content analysis unavailable",
			})
		} else if extracted != "" {
			text = text + "\n" + extracted
		}
	}

	if text != "" {
		for _, d := range s.detectors {
			if m, ok := safeDetect(d, text, "content", s.logger); ok {
				record(&result, m)
			}
		}
	}

	result.Score = core.Clamp(result.Score, s.clampMin, s.clampMax)
	return result
}

// extractDocument loads the document bytes and hands them to the extraction
// collaborator. The deadline context is released on every exit path, which
// tears down whatever staging the extraction adapter set up.
func (s *ContentScorer) extractDocument(ctx context.Context, doc core.AttachmentDescriptor) (string, error) {
	if doc.Content == nil {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := doc.Content(ctx)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}
	if s.maxDocumentSize > 0 && len(data) > s.maxDocumentSize {
		data = data[:s.maxDocumentSize]
	}

	text, err := s.extractor.ExtractText(ctx, data, doc.ContentType)
	if err != nil {
		return "", err
	}
	return s.textProcessor.SanitizeUTF8(text), nil
}
