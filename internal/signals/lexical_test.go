package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finwatch/invoice-funnel/internal/trusted"
)

func TestKeywordDetectorMatchesFoldedKeyword(t *testing.T) {
	d := NewKeywordDetector("sig", 15, "matched %q", []string{"recu", "facture"}, nil)

	m, ok := d.Detect("Votre Reçu du mois de mai")
	require.True(t, ok)
	assert.Equal(t, "sig", m.Name)
	assert.Equal(t, 15, m.Weight)
	assert.Equal(t, `matched "recu"`, m.Description)
}

func TestKeywordDetectorNoMatch(t *testing.T) {
	d := NewKeywordDetector("sig", 15, "matched %q", []string{"invoice"}, nil)

	_, ok := d.Detect("weekly team notes")
	assert.False(t, ok)

	_, ok = d.Detect("")
	assert.False(t, ok)
}

func TestKeywordDetectorMatchesSubstringNotStem(t *testing.T) {
	d := NewKeywordDetector("sig", 15, "matched %q", []string{"invoice"}, nil)

	// Contains matching covers plural forms but not other derivations.
	_, ok := d.Detect("All invoices for April")
	assert.True(t, ok)

	_, ok = d.Detect("Monthly newsletter: invoicing tips for 2025")
	assert.False(t, ok)
}

func TestKeywordDetectorGuardSuppressesMatch(t *testing.T) {
	guards := []string{"request for", "no "}
	d := NewKeywordDetector("sig", 15, "matched %q", []string{"invoice"}, guards)

	_, ok := d.Detect("Request for invoice")
	assert.False(t, ok, "guarded occurrence must not match")

	_, ok = d.Detect("There is no invoice attached")
	assert.False(t, ok)
}

func TestKeywordDetectorGuardOnlySuppressesNearbyOccurrence(t *testing.T) {
	d := NewKeywordDetector("sig", 15, "matched %q", []string{"invoice"}, []string{"no "})

	// The first occurrence is guarded; the second, far past the guard
	// window, should still match.
	value := "no invoice yet for March billing period, but please find the final invoice attached"
	m, ok := d.Detect(value)
	require.True(t, ok)
	assert.Equal(t, "sig", m.Name)
}

func TestKeywordDetectorGuardOutsideWindowDoesNotSuppress(t *testing.T) {
	d := NewKeywordDetector("sig", 15, "matched %q", []string{"invoice"}, []string{"no "})

	// The guard phrase appears far before the keyword, outside the lookback
	// window, so the match stands.
	value := "no rush at all on this, the accounting team already received the invoice"
	_, ok := d.Detect(value)
	assert.True(t, ok)
}

func TestTrustedSenderDetector(t *testing.T) {
	set := trusted.NewSet([]string{"stripe.com", "Paddle.com"}, zap.NewNop())
	d := NewTrustedSenderDetector(12, set)

	m, ok := d.Detect("stripe.com")
	require.True(t, ok)
	assert.Equal(t, SignalTrustedSender, m.Name)
	assert.Equal(t, 12, m.Weight)

	_, ok = d.Detect("mail.stripe.com")
	assert.True(t, ok, "subdomains of a trusted domain count")

	_, ok = d.Detect("paddle.com")
	assert.True(t, ok)

	_, ok = d.Detect("notstripe.com")
	assert.False(t, ok)

	_, ok = d.Detect("")
	assert.False(t, ok)
}

func TestSizeBandDetector(t *testing.T) {
	d := NewSizeBandDetector(5, 8192, 2097152)

	_, ok := d.DetectSize(8191)
	assert.False(t, ok)

	m, ok := d.DetectSize(8192)
	require.True(t, ok)
	assert.Equal(t, SignalSizeBand, m.Name)

	_, ok = d.DetectSize(2097152)
	assert.True(t, ok)

	_, ok = d.DetectSize(2097153)
	assert.False(t, ok)
}

func TestFilenameScorerGrades(t *testing.T) {
	f := NewFilenameScorer([]string{"invoice", "facture"}, []string{".pdf"}, 15, 8, 4)

	m, ok := f.Score("invoice_2024_0042.pdf")
	require.True(t, ok)
	assert.Equal(t, SignalAttachmentStrong, m.Name)
	assert.Equal(t, 15, m.Weight)

	m, ok = f.Score("acme_invoice.pdf")
	require.True(t, ok)
	assert.Equal(t, SignalAttachmentMedium, m.Name)

	m, ok = f.Score("document.pdf")
	require.True(t, ok)
	assert.Equal(t, SignalAttachmentWeak, m.Name)

	_, ok = f.Score("photo.jpg")
	assert.False(t, ok)

	_, ok = f.Score("")
	assert.False(t, ok)
}

func TestFilenameScorerFoldsAccents(t *testing.T) {
	f := NewFilenameScorer([]string{"facture"}, []string{".pdf"}, 15, 8, 4)

	m, ok := f.Score("Fàcture_avril.pdf")
	require.True(t, ok)
	assert.Equal(t, SignalAttachmentStrong, m.Name)
}

func TestHardAndCorroboratingClassification(t *testing.T) {
	assert.True(t, IsHard(SignalSubjectReference))
	assert.True(t, IsHard(SignalContentReference))
	assert.False(t, IsHard(SignalContentAmount))

	assert.True(t, IsCorroborating(SignalContentAmount))
	assert.True(t, IsCorroborating(SignalContentTax))
	assert.True(t, IsCorroborating(SignalContentPayment))
	assert.False(t, IsCorroborating(SignalSubjectReference))
}
