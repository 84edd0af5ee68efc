package scoring

import (
	"path/filepath"
	"strings"

	"github.com/finwatch/invoice-funnel/internal/core"
	"github.com/finwatch/invoice-funnel/internal/signals"
	"github.com/finwatch/invoice-funnel/internal/utils"
	"go.uber.org/zap"
)

// AttachmentScanner walks a message's content-part tree and collects
// document candidates despite inconsistent or missing MIME typing. Real
// mail clients declare PDFs as application/pdf, application/octet-stream,
// binary, or nothing at all; the scanner checks each part against a chain
// of progressively weaker type hints.
type AttachmentScanner struct {
	registry     *signals.Registry
	documentType string
	genericTypes []string
	extensions   []string
	clampMin     int
	clampMax     int
	logger       *zap.Logger
}

// NewAttachmentScanner creates a new attachment scanner
func NewAttachmentScanner(
	registry *signals.Registry,
	documentType string,
	genericTypes []string,
	extensions []string,
	clampMin, clampMax int,
	logger *zap.Logger,
) *AttachmentScanner {
	generic := make([]string, 0, len(genericTypes))
	for _, t := range genericTypes {
		generic = append(generic, strings.ToLower(strings.TrimSpace(t)))
	}
	exts := make([]string, 0, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if e != "" {
			exts = append(exts, e)
		}
	}
	return &AttachmentScanner{
		registry:     registry,
		documentType: strings.ToLower(strings.TrimSpace(documentType)),
		genericTypes: generic,
		extensions:   exts,
		clampMin:     clampMin,
		clampMax:     clampMax,
		logger:       logger,
	}
}

// Scan traverses the part tree depth-first. Container parts are fully
// traversed even when they match nothing themselves, so attachments inside
// forwarded messages are found.
func (s *AttachmentScanner) Scan(parts []core.AttachmentDescriptor) core.AttachmentResult {
	result := core.AttachmentResult{}
	s.walk(parts, &result)
	result.Score = core.Clamp(result.Score, s.clampMin, s.clampMax)
	return result
}

func (s *AttachmentScanner) walk(parts []core.AttachmentDescriptor, result *core.AttachmentResult) {
	for _, part := range parts {
		if s.isDocumentCandidate(part) {
			result.Documents = append(result.Documents, part)
			if m, ok := s.registry.Filename.Score(part.Filename); ok {
				record(&result.StageResult, m)
			}
		}
		s.walk(part.Parts, result)
	}
}

// isDocumentCandidate classifies one part, in order of preference: exact
// declared type, declared type prefix (parameter suffixes), raw header type
// when the declared one is missing or generic, filename extension, and
// finally a content-disposition mentioning the extension.
func (s *AttachmentScanner) isDocumentCandidate(part core.AttachmentDescriptor) bool {
	declared := strings.ToLower(strings.TrimSpace(part.ContentType))

	if declared == s.documentType {
		return true
	}
	if declared != "" && strings.HasPrefix(declared, s.documentType) {
		return true
	}
	if s.isGenericType(declared) {
		raw := strings.ToLower(strings.TrimSpace(part.RawContentType))
		if raw == s.documentType || (raw != "" && strings.HasPrefix(raw, s.documentType)) {
			return true
		}
	}
	if part.Filename != "" {
		ext := strings.ToLower(filepath.Ext(utils.Fold(part.Filename)))
		for _, e := range s.extensions {
			if ext == e {
				return true
			}
		}
	}
	if part.Disposition != "" {
		disposition := strings.ToLower(part.Disposition)
		for _, e := range s.extensions {
			if strings.Contains(disposition, e) {
				return true
			}
		}
	}
	return false
}

func (s *AttachmentScanner) isGenericType(contentType string) bool {
	for _, t := range s.genericTypes {
		if contentType == t {
			return true
		}
	}
	return false
}
