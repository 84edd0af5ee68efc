package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *Config {
	return NewFromViper(NewEmptyViper())
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := defaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsEmptyStrongKeywords(t *testing.T) {
	v := NewEmptyViper()
	v.Set("funnel.keywords.strong", []string{})
	cfg := NewFromViper(v)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keywords.strong")
}

func TestValidateRejectsNonPositiveSignalWeights(t *testing.T) {
	v := NewEmptyViper()
	v.Set("funnel.weights.filename_strong", 0)
	cfg := NewFromViper(v)

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonNegativeExclusionWeight(t *testing.T) {
	v := NewEmptyViper()
	v.Set("funnel.weights.exclusion", 5)
	cfg := NewFromViper(v)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exclusion")
}

func TestValidateRejectsInvertedSizeBand(t *testing.T) {
	v := NewEmptyViper()
	v.Set("funnel.size_band.min_bytes", 5000)
	v.Set("funnel.size_band.max_bytes", 4000)
	cfg := NewFromViper(v)

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsInvertedClamp(t *testing.T) {
	v := NewEmptyViper()
	v.Set("funnel.clamps.content_min", 70)
	v.Set("funnel.clamps.content_max", 60)
	cfg := NewFromViper(v)

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBrokenPattern(t *testing.T) {
	v := NewEmptyViper()
	v.Set("funnel.patterns.reference", "([unclosed")
	cfg := NewFromViper(v)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "patterns.reference")
}

func TestValidateRejectsDisorderedThresholds(t *testing.T) {
	v := NewEmptyViper()
	v.Set("funnel.thresholds.metadata_floor", 60)
	v.Set("funnel.thresholds.metadata_ceiling", 50)
	cfg := NewFromViper(v)

	assert.Error(t, cfg.Validate())

	v = NewEmptyViper()
	v.Set("funnel.thresholds.verify_min", 80)
	v.Set("funnel.thresholds.accept_obvious", 60)
	cfg = NewFromViper(v)

	assert.Error(t, cfg.Validate())
}

func TestTypedSectionGetters(t *testing.T) {
	cfg := defaultConfig()

	funnel := cfg.GetFunnel()
	assert.NotEmpty(t, funnel.StrongKeywords)
	assert.Equal(t, "application/pdf", funnel.DocumentContentType)
	assert.Equal(t, int64(8192), funnel.SizeBandMin)
	assert.Negative(t, funnel.Weights.Exclusion)

	thresholds := cfg.GetThresholds()
	assert.Equal(t, 100, thresholds.MaxScore)
	assert.Less(t, thresholds.VerifyMin, thresholds.AcceptObvious)

	extractor := cfg.GetExtractor()
	assert.Equal(t, "openai", extractor.Provider)
	assert.Equal(t, "30s", extractor.Timeout)

	server := cfg.GetServer()
	assert.Equal(t, "smtp", server.FrontendType)
	assert.Equal(t, "X-Invoice-Status", server.StatusHeader)

	gmail := cfg.GetGmail()
	assert.Equal(t, "me", gmail.User)
	assert.Equal(t, int64(100), gmail.PageSize)
}

func TestGetDuration(t *testing.T) {
	cfg := defaultConfig()

	ttl, err := cfg.GetDuration("cache.ttl")
	require.NoError(t, err)
	assert.Equal(t, "24h0m0s", ttl.String())

	v := NewEmptyViper()
	v.Set("cache.ttl", "not-a-duration")
	_, err = NewFromViper(v).GetDuration("cache.ttl")
	assert.Error(t, err)
}
