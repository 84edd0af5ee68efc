package smtpd

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseSimpleTextMessage(t *testing.T) {
	raw := crlf(`From: Acme Billing <billing@acme.example>
To: ap@corp.example
Subject: Invoice for April
Message-ID: <abc-123@acme.example>
Date: Mon, 01 Apr 2024 10:00:00 +0000
Content-Type: text/plain; charset=utf-8

Your invoice #48213 is attached.
`)

	msg, err := ParseMessage(raw)
	require.NoError(t, err)

	assert.Equal(t, "abc-123@acme.example", msg.ID)
	assert.Equal(t, "Acme Billing <billing@acme.example>", msg.From)
	assert.Equal(t, "acme.example", msg.Domain)
	assert.Equal(t, "Invoice for April", msg.Subject)
	assert.Contains(t, msg.BodyText, "invoice #48213")
	assert.Empty(t, msg.Attachments)
	assert.Equal(t, 2024, msg.Received.Year())
}

func TestParseMultipartWithBase64Attachment(t *testing.T) {
	pdfBytes := []byte("%PDF-1.4 fake document body")
	encoded := base64.StdEncoding.EncodeToString(pdfBytes)

	raw := crlf(`From: billing@acme.example
Subject: Invoice
Content-Type: multipart/mixed; boundary="BOUNDARY"

--BOUNDARY
Content-Type: text/plain; charset=utf-8

Please find the invoice attached.
--BOUNDARY
Content-Type: application/pdf; name="invoice_48213.pdf"
Content-Disposition: attachment; filename="invoice_48213.pdf"
Content-Transfer-Encoding: base64

` + encoded + `
--BOUNDARY--
`)

	msg, err := ParseMessage(raw)
	require.NoError(t, err)

	assert.Contains(t, msg.BodyText, "invoice attached")
	require.Len(t, msg.Attachments, 1)

	att := msg.Attachments[0]
	assert.Equal(t, "invoice_48213.pdf", att.Filename)
	assert.Equal(t, "application/pdf", att.ContentType)

	require.NotNil(t, att.Content)
	data, err := att.Content(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, data)
}

func TestParseQuotedPrintableBody(t *testing.T) {
	raw := crlf(`From: billing@acme.example
Subject: =?utf-8?Q?Re=C3=A7u_de_paiement?=
Content-Type: text/plain; charset=utf-8
Content-Transfer-Encoding: quoted-printable

Montant: 49,00=E2=82=AC
`)

	msg, err := ParseMessage(raw)
	require.NoError(t, err)

	assert.Equal(t, "Reçu de paiement", msg.Subject)
	assert.Contains(t, msg.BodyText, "Montant: 49,00€")
}

func TestParseNestedForwardedMessage(t *testing.T) {
	raw := crlf(`From: colleague@corp.example
Subject: FW: invoice
Content-Type: multipart/mixed; boundary="OUTER"

--OUTER
Content-Type: text/plain

forwarding this for payment
--OUTER
Content-Type: message/rfc822

From: vendor@shop.example
Subject: Original invoice
Content-Type: multipart/mixed; boundary="INNER"

--INNER
Content-Type: text/plain

invoice inside a forward
--INNER
Content-Type: application/pdf
Content-Disposition: attachment; filename="facture.pdf"

%PDF-1.4
--INNER--
--OUTER--
`)

	msg, err := ParseMessage(raw)
	require.NoError(t, err)

	require.Len(t, msg.Attachments, 1)
	forwarded := msg.Attachments[0]
	assert.Equal(t, "message/rfc822", forwarded.ContentType)

	require.Len(t, forwarded.Parts, 1)
	assert.Equal(t, "facture.pdf", forwarded.Parts[0].Filename)
	assert.Equal(t, "application/pdf", forwarded.Parts[0].ContentType)
}

func TestParseAlternativeBodiesCollectBoth(t *testing.T) {
	raw := crlf(`From: billing@acme.example
Subject: Receipt
Content-Type: multipart/alternative; boundary="ALT"

--ALT
Content-Type: text/plain

plain receipt body
--ALT
Content-Type: text/html

<p>html receipt body</p>
--ALT--
`)

	msg, err := ParseMessage(raw)
	require.NoError(t, err)

	assert.Contains(t, msg.BodyText, "plain receipt body")
	assert.Contains(t, msg.BodyHTML, "html receipt body")
	assert.Empty(t, msg.Attachments)
}

func TestParseMissingHeadersDegradeGracefully(t *testing.T) {
	raw := crlf(`Content-Type: text/plain

body only
`)

	msg, err := ParseMessage(raw)
	require.NoError(t, err)

	assert.Equal(t, "", msg.From)
	assert.Equal(t, "", msg.Domain)
	assert.Equal(t, "", msg.Subject)
	assert.Contains(t, msg.BodyText, "body only")
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := ParseMessage([]byte("not an email at all"))
	assert.Error(t, err)
}
