package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "recu", Fold("Reçu"))
	assert.Equal(t, "facture", Fold("FÀCTURE"))
	assert.Equal(t, "rechnung", Fold("Rechnung"))
	assert.Equal(t, "invoice #42", Fold("Invoice #42"))
	assert.Equal(t, "", Fold(""))
}

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	short := "short text"
	assert.Equal(t, short, tp.TruncateText(short, 100))
	assert.Equal(t, short, tp.TruncateText(short, 0))

	long := strings.Repeat("a", 100)
	truncated := tp.TruncateText(long, 10)
	assert.True(t, strings.HasPrefix(truncated, "aaaaaaaaaa"))
	assert.Contains(t, truncated, "truncated")
}

func TestTruncateTextPreservesValidUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	// Cut in the middle of a multi-byte rune; the result must stay valid.
	text := "prix: 42€ TTC"
	truncated := tp.TruncateText(text, 10)
	assert.True(t, utf8.ValidString(truncated))
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	valid := "montant: 49,00€"
	assert.Equal(t, valid, tp.SanitizeUTF8(valid))

	invalid := "abc\xff\xfedef"
	sanitized := tp.SanitizeUTF8(invalid)
	assert.True(t, utf8.ValidString(sanitized))
	assert.Contains(t, sanitized, "abc")
	assert.Contains(t, sanitized, "def")
}
