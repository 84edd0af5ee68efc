package signals

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/finwatch/invoice-funnel/internal/core"
	"github.com/finwatch/invoice-funnel/internal/trusted"
	"github.com/finwatch/invoice-funnel/internal/utils"
)

// guardWindow is how far back (in bytes of folded text) the negative-context
// guard looks for a suppressing phrase before a keyword match.
const guardWindow = 32

// KeywordDetector matches any of a set of keywords in a field, with an
// optional negative-context guard: a match is suppressed when a guard phrase
// appears just before it ("request for an invoice", "no invoice attached").
type KeywordDetector struct {
	name     string
	weight   int
	format   string
	keywords []string
	guards   []string
}

// NewKeywordDetector creates a keyword detector. Keywords and guard phrases
// are accent-folded once at construction; format receives the matched
// keyword for the human-readable description.
func NewKeywordDetector(name string, weight int, format string, keywords, guards []string) *KeywordDetector {
	return &KeywordDetector{
		name:     name,
		weight:   weight,
		format:   format,
		keywords: foldAll(keywords),
		guards:   foldAll(guards),
	}
}

func (d *KeywordDetector) Name() string { return d.name }

// Detect scans the field for the first unguarded keyword occurrence.
func (d *KeywordDetector) Detect(value string) (core.MatchedSignal, bool) {
	if value == "" {
		return core.MatchedSignal{}, false
	}
	folded := utils.Fold(value)
	for _, kw := range d.keywords {
		idx := strings.Index(folded, kw)
		for idx >= 0 {
			if !d.guarded(folded, idx) {
				return core.MatchedSignal{
					Name:        d.name,
					Weight:      d.weight,
					Description: fmt.Sprintf(d.format, kw),
				}, true
			}
			next := strings.Index(folded[idx+len(kw):], kw)
			if next < 0 {
				break
			}
			idx += len(kw) + next
		}
	}
	return core.MatchedSignal{}, false
}

func (d *KeywordDetector) guarded(text string, idx int) bool {
	if len(d.guards) == 0 {
		return false
	}
	start := idx - guardWindow
	if start < 0 {
		start = 0
	}
	window := text[start:idx]
	for _, g := range d.guards {
		if strings.Contains(window, g) {
			return true
		}
	}
	return false
}

// TrustedSenderDetector matches the sender domain against the curated set
// of known billing senders.
type TrustedSenderDetector struct {
	weight int
	set    *trusted.Set
}

// NewTrustedSenderDetector creates a trusted-sender detector
func NewTrustedSenderDetector(weight int, set *trusted.Set) *TrustedSenderDetector {
	return &TrustedSenderDetector{weight: weight, set: set}
}

func (d *TrustedSenderDetector) Name() string { return SignalTrustedSender }

// Detect matches the value as a sender domain.
func (d *TrustedSenderDetector) Detect(value string) (core.MatchedSignal, bool) {
	if !d.set.Contains(value) {
		return core.MatchedSignal{}, false
	}
	return core.MatchedSignal{
		Name:        SignalTrustedSender,
		Weight:      d.weight,
		Description: fmt.Sprintf("sender domain %q is a known billing sender", value),
	}, true
}

// SizeBandDetector awards a modest bonus when an attachment's byte size
// falls inside the window plausible for a financial document. Sizes outside
// the band simply miss the bonus; this is not an exclusion.
type SizeBandDetector struct {
	weight   int
	minBytes int64
	maxBytes int64
}

// NewSizeBandDetector creates a size-band detector
func NewSizeBandDetector(weight int, minBytes, maxBytes int64) *SizeBandDetector {
	return &SizeBandDetector{weight: weight, minBytes: minBytes, maxBytes: maxBytes}
}

func (d *SizeBandDetector) Name() string { return SignalSizeBand }

// DetectSize checks the byte size against the band.
func (d *SizeBandDetector) DetectSize(size int64) (core.MatchedSignal, bool) {
	if size < d.minBytes || size > d.maxBytes {
		return core.MatchedSignal{}, false
	}
	return core.MatchedSignal{
		Name:        SignalSizeBand,
		Weight:      d.weight,
		Description: fmt.Sprintf("attachment size %d bytes is plausible for a financial document", size),
	}, true
}

// FilenameScorer grades a document candidate's filename: strong when it
// begins with a document keyword, medium when the keyword appears anywhere,
// weak when only the extension matches.
type FilenameScorer struct {
	keywords     []string
	extensions   []string
	strongWeight int
	mediumWeight int
	weakWeight   int
}

// NewFilenameScorer creates a filename scorer for attachment candidates
func NewFilenameScorer(keywords, extensions []string, strongWeight, mediumWeight, weakWeight int) *FilenameScorer {
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
	return &FilenameScorer{
		keywords:     foldAll(keywords),
		extensions:   exts,
		strongWeight: strongWeight,
		mediumWeight: mediumWeight,
		weakWeight:   weakWeight,
	}
}

// Score grades the filename. Returns false when the name carries no
// document evidence at all.
func (f *FilenameScorer) Score(filename string) (core.MatchedSignal, bool) {
	if filename == "" {
		return core.MatchedSignal{}, false
	}
	folded := utils.Fold(filename)
	for _, kw := range f.keywords {
		if strings.HasPrefix(folded, kw) {
			return core.MatchedSignal{
				Name:        SignalAttachmentStrong,
				Weight:      f.strongWeight,
				Description: fmt.Sprintf("attachment %q begins with document keyword %q", filename, kw),
			}, true
		}
	}
	for _, kw := range f.keywords {
		if strings.Contains(folded, kw) {
			return core.MatchedSignal{
				Name:        SignalAttachmentMedium,
				Weight:      f.mediumWeight,
				Description: fmt.Sprintf("attachment %q contains document keyword %q", filename, kw),
			}, true
		}
	}
	ext := strings.ToLower(filepath.Ext(folded))
	for _, e := range f.extensions {
		if ext == e {
			return core.MatchedSignal{
				Name:        SignalAttachmentWeak,
				Weight:      f.weakWeight,
				Description: fmt.Sprintf("attachment %q has document extension %q", filename, e),
			}, true
		}
	}
	return core.MatchedSignal{}, false
}

func foldAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		folded := utils.Fold(v)
		if folded != "" {
			out = append(out, folded)
		}
	}
	return out
}
