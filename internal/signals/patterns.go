package signals

import (
	"fmt"
	"regexp"

	"github.com/finwatch/invoice-funnel/internal/core"
)

// Default structured patterns. These fire almost exclusively inside
// financial documents, which is what makes them the strongest positive
// signals in the funnel. Operators can override them in configuration.
const (
	DefaultReferencePattern = `(?i)\b(invoice|receipt|facture|rechnung|fattura|reference|order|ref)\s*(number|no\.?|nr\.?)?\s*[#:]?\s*[A-Za-z]{0,4}[-/]?\d{3,}\b`
	DefaultAmountPattern    = `(?i)([€$£]\s?\d{1,3}(?:[.,\s]\d{3})*(?:[.,]\d{2})?|\d{1,3}(?:[.,\s]\d{3})*(?:[.,]\d{2})?\s?(?:€|\$|£|eur|usd|gbp|chf))`
	DefaultTaxPattern       = `(?i)\b(vat|tva|mwst|iva|gst|sales tax|tax)\b[^%\n]{0,15}?\d{1,2}(?:[.,]\d{1,2})?\s?%`
	DefaultDatePattern      = `(?i)\b(\d{1,2}[./-]\d{1,2}[./-]\d{2,4}|\d{4}-\d{2}-\d{2}|(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s\d{1,2},?\s\d{4})\b`
)

// PatternDetector matches one compiled regular expression against a field.
type PatternDetector struct {
	name   string
	weight int
	desc   string
	re     *regexp.Regexp
}

// NewPatternDetector compiles the pattern. A pattern that fails to compile
// is a configuration error and must abort startup.
func NewPatternDetector(name string, weight int, desc, pattern string) (*PatternDetector, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern for signal %s: %w", name, err)
	}
	return &PatternDetector{name: name, weight: weight, desc: desc, re: re}, nil
}

func (d *PatternDetector) Name() string { return d.name }

// Detect reports whether the pattern occurs in the field.
func (d *PatternDetector) Detect(value string) (core.MatchedSignal, bool) {
	if value == "" || !d.re.MatchString(value) {
		return core.MatchedSignal{}, false
	}
	return core.MatchedSignal{Name: d.name, Weight: d.weight, Description: d.desc}, true
}
