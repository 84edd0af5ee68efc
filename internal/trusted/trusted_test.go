package trusted

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestContains(t *testing.T) {
	set := NewSet([]string{"stripe.com", " Paddle.COM ", ""}, zap.NewNop())

	assert.True(t, set.Contains("stripe.com"))
	assert.True(t, set.Contains("STRIPE.com"))
	assert.True(t, set.Contains("paddle.com"))
	assert.True(t, set.Contains("mail.stripe.com"), "subdomains count")
	assert.True(t, set.Contains("a.b.stripe.com"))

	assert.False(t, set.Contains("notstripe.com"), "suffix without dot boundary must not match")
	assert.False(t, set.Contains("stripe.com.evil.example"))
	assert.False(t, set.Contains(""))
}

func TestEmptySetMatchesNothing(t *testing.T) {
	set := NewSet(nil, zap.NewNop())
	assert.False(t, set.Contains("stripe.com"))
}

func TestDomainsAreNormalized(t *testing.T) {
	set := NewSet([]string{" Stripe.COM ", "", "paddle.com"}, zap.NewNop())
	assert.Equal(t, []string{"stripe.com", "paddle.com"}, set.Domains())
}
