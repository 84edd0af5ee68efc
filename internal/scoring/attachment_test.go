package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finwatch/invoice-funnel/internal/core"
	"github.com/finwatch/invoice-funnel/internal/signals"
)

func newDefaultScanner(t *testing.T) *AttachmentScanner {
	t.Helper()
	registry, funnel := defaultRegistry(t)
	return NewAttachmentScanner(
		registry,
		funnel.DocumentContentType,
		funnel.GenericContentTypes,
		funnel.DocumentExtensions,
		funnel.Clamps.AttachmentMin,
		funnel.Clamps.AttachmentMax,
		zap.NewNop(),
	)
}

func TestScanFindsDeclaredPDF(t *testing.T) {
	s := newDefaultScanner(t)

	result := s.Scan([]core.AttachmentDescriptor{
		{Filename: "invoice_42.pdf", ContentType: "application/pdf"},
	})

	require.Len(t, result.Documents, 1)
	assert.Equal(t, "invoice_42.pdf", result.Documents[0].Filename)
	require.Len(t, result.Matched, 1)
	assert.Equal(t, signals.SignalAttachmentStrong, result.Matched[0].Name)
	assert.Equal(t, 15, result.Score)
}

func TestScanAcceptsContentTypeWithParameters(t *testing.T) {
	s := newDefaultScanner(t)

	result := s.Scan([]core.AttachmentDescriptor{
		{Filename: "doc.pdf", ContentType: "application/pdf; name=doc.pdf"},
	})

	assert.Len(t, result.Documents, 1)
}

func TestScanFallsBackToRawTypeForGenericDeclared(t *testing.T) {
	s := newDefaultScanner(t)

	result := s.Scan([]core.AttachmentDescriptor{
		{Filename: "scan0001", ContentType: "application/octet-stream", RawContentType: "application/pdf"},
	})

	require.Len(t, result.Documents, 1)
	// No filename evidence, so the candidate scores nothing.
	assert.Empty(t, result.Matched)
	assert.Equal(t, 0, result.Score)
}

func TestScanFallsBackToExtension(t *testing.T) {
	s := newDefaultScanner(t)

	result := s.Scan([]core.AttachmentDescriptor{
		{Filename: "Facture_avril.PDF", ContentType: "application/octet-stream"},
	})

	require.Len(t, result.Documents, 1)
	require.Len(t, result.Matched, 1)
	assert.Equal(t, signals.SignalAttachmentStrong, result.Matched[0].Name)
}

func TestScanFallsBackToDisposition(t *testing.T) {
	s := newDefaultScanner(t)

	result := s.Scan([]core.AttachmentDescriptor{
		{ContentType: "binary", Disposition: `attachment; filename="statement.pdf"`},
	})

	assert.Len(t, result.Documents, 1)
}

func TestScanIgnoresNonDocuments(t *testing.T) {
	s := newDefaultScanner(t)

	result := s.Scan([]core.AttachmentDescriptor{
		{Filename: "logo.png", ContentType: "image/png"},
		{Filename: "notes.txt", ContentType: "text/plain"},
	})

	assert.Empty(t, result.Documents)
	assert.Equal(t, 0, result.Score)
}

func TestScanWalksNestedForwardedMessage(t *testing.T) {
	s := newDefaultScanner(t)

	tree := []core.AttachmentDescriptor{
		{
			ContentType: "multipart/mixed",
			Parts: []core.AttachmentDescriptor{
				{ContentType: "text/plain"},
				{
					ContentType: "message/rfc822",
					Parts: []core.AttachmentDescriptor{
						{Filename: "rechnung_88.pdf", ContentType: "application/pdf"},
					},
				},
			},
		},
	}

	result := s.Scan(tree)

	require.Len(t, result.Documents, 1)
	assert.Equal(t, "rechnung_88.pdf", result.Documents[0].Filename)
}

func TestScanScoreClampedToStageMax(t *testing.T) {
	s := newDefaultScanner(t)

	result := s.Scan([]core.AttachmentDescriptor{
		{Filename: "invoice_1.pdf", ContentType: "application/pdf"},
		{Filename: "invoice_2.pdf", ContentType: "application/pdf"},
		{Filename: "invoice_3.pdf", ContentType: "application/pdf"},
	})

	assert.Len(t, result.Documents, 3)
	assert.Equal(t, 20, result.Score)
}
