// Package query compiles the mailbox-provider search predicate that
// pre-filters which messages are fetched at all, before any scoring.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/finwatch/invoice-funnel/internal/trusted"
)

// DateRange bounds a search session. Zero values leave the corresponding
// side open.
type DateRange struct {
	After  time.Time
	Before time.Time
}

// Compiler builds Gmail-syntax search predicates from the static keyword
// and trusted-domain tables. It is a pure function of its inputs; the
// tables are loaded once and read-only.
type Compiler struct {
	keywords []string
	domains  []string
}

// NewCompiler creates a new query compiler
func NewCompiler(keywords []string, set *trusted.Set) *Compiler {
	kws := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	return &Compiler{
		keywords: kws,
		domains:  set.Domains(),
	}
}

// Compile produces the search predicate: the invoice-keyword disjunction
// OR'd with the trusted-sender disjunction, AND'd with the date range when
// one is supplied. Attachments are deliberately not required: many genuine
// invoices arrive as HTML body only, and a has:attachment term would
// exclude them systematically.
func (c *Compiler) Compile(dateRange *DateRange) string {
	var clauses []string

	if kw := c.keywordClause(); kw != "" {
		clauses = append(clauses, kw)
	}
	if dom := c.domainClause(); dom != "" {
		clauses = append(clauses, dom)
	}

	var b strings.Builder
	switch len(clauses) {
	case 0:
		return ""
	case 1:
		b.WriteString(clauses[0])
	default:
		b.WriteString("(" + strings.Join(clauses, " OR ") + ")")
	}

	if dateRange != nil {
		if !dateRange.After.IsZero() {
			fmt.Fprintf(&b, " after:%s", dateRange.After.Format("2006/01/02"))
		}
		if !dateRange.Before.IsZero() {
			fmt.Fprintf(&b, " before:%s", dateRange.Before.Format("2006/01/02"))
		}
	}

	return b.String()
}

func (c *Compiler) keywordClause() string {
	if len(c.keywords) == 0 {
		return ""
	}
	terms := make([]string, 0, len(c.keywords))
	for _, kw := range c.keywords {
		if strings.ContainsAny(kw, " \t") {
			terms = append(terms, fmt.Sprintf("%q", kw))
		} else {
			terms = append(terms, kw)
		}
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

func (c *Compiler) domainClause() string {
	if len(c.domains) == 0 {
		return ""
	}
	terms := make([]string, 0, len(c.domains))
	for _, d := range c.domains {
		terms = append(terms, "from:"+d)
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}
