package trusted

import (
	"strings"

	"go.uber.org/zap"
)

// Set holds the curated list of known billing sender domains. It is shared
// by the query compiler (from: clauses) and the trusted-sender detector,
// loaded once at startup and read-only afterwards.
type Set struct {
	domains []string
	logger  *zap.Logger
}

// NewSet creates a new trusted-domain set
func NewSet(domains []string, logger *zap.Logger) *Set {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized trusted billing senders", zap.Strings("domains", normalized))
	}

	return &Set{
		domains: normalized,
		logger:  logger,
	}
}

// Contains checks if the given sender domain is trusted. Subdomains of a
// trusted domain count, so mail.stripe.com matches stripe.com.
func (s *Set) Contains(domain string) bool {
	if len(s.domains) == 0 || domain == "" {
		return false
	}

	domain = strings.ToLower(strings.TrimSpace(domain))
	for _, trusted := range s.domains {
		if domain == trusted || strings.HasSuffix(domain, "."+trusted) {
			return true
		}
	}
	return false
}

// Domains returns the normalized domain list.
func (s *Set) Domains() []string {
	return s.domains
}
