package smtpd

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"github.com/finwatch/invoice-funnel/internal/core"
)

// headerGetter abstracts mail.Header and textproto.MIMEHeader so the part
// walk can treat the top-level message and nested parts uniformly.
type headerGetter interface {
	Get(key string) string
}

// ParseMessage parses a raw RFC 5322 message into a candidate message. The
// part tree is walked recursively so attachments nested inside forwarded
// messages and multipart containers are preserved.
func ParseMessage(raw []byte) (*core.CandidateMessage, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	dec := new(mime.WordDecoder)
	from := decodeHeader(dec, msg.Header.Get("From"))
	subject := decodeHeader(dec, msg.Header.Get("Subject"))
	id := strings.Trim(msg.Header.Get("Message-ID"), "<> \t")

	received := time.Now()
	if d, err := msg.Header.Date(); err == nil {
		received = d
	}

	text, html, attachments, err := walkPart(msg.Header, msg.Body)
	if err != nil {
		return nil, err
	}

	return core.NewCandidateMessage(id, from, subject, text, html, received, attachments), nil
}

// walkPart consumes one MIME entity. Inline text bodies flow up as text and
// html; everything else becomes an attachment descriptor, with container
// parts keeping their children.
func walkPart(h headerGetter, body io.Reader) (text, html string, attachments []core.AttachmentDescriptor, err error) {
	contentType := h.Get("Content-Type")
	mediaType, params, parseErr := mime.ParseMediaType(contentType)
	if parseErr != nil || contentType == "" {
		// Untyped entities default to plain text per RFC 2045.
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return "", "", nil, fmt.Errorf("multipart entity without boundary")
		}
		return walkMultipart(body, boundary)
	}

	data, err := decodeBody(body, h.Get("Content-Transfer-Encoding"))
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to decode part body: %w", err)
	}

	filename := partFilename(h, params)
	disposition := h.Get("Content-Disposition")

	if filename == "" && !strings.HasPrefix(strings.ToLower(disposition), "attachment") {
		switch {
		case strings.HasPrefix(mediaType, "text/plain"):
			return string(data), "", nil, nil
		case strings.HasPrefix(mediaType, "text/html"):
			return "", string(data), nil, nil
		}
	}

	if mediaType == "message/rfc822" {
		return "", "", []core.AttachmentDescriptor{embeddedMessage(data, filename, disposition)}, nil
	}

	desc := core.AttachmentDescriptor{
		Filename:       filename,
		ContentType:    mediaType,
		RawContentType: mediaType,
		Disposition:    disposition,
		Size:           int64(len(data)),
		Content:        staticOpener(data),
	}
	return "", "", []core.AttachmentDescriptor{desc}, nil
}

func walkMultipart(body io.Reader, boundary string) (text, html string, attachments []core.AttachmentDescriptor, err error) {
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A truncated epilogue should not discard what was already
			// collected.
			return text, html, attachments, nil
		}

		childText, childHTML, childAtts, err := walkPart(part.Header, part)
		if err != nil {
			continue
		}
		text += childText
		html += childHTML
		attachments = append(attachments, childAtts...)
	}
	return text, html, attachments, nil
}

// embeddedMessage turns a forwarded message/rfc822 part into a container
// descriptor whose children are the forwarded message's own parts.
func embeddedMessage(data []byte, filename, disposition string) core.AttachmentDescriptor {
	desc := core.AttachmentDescriptor{
		Filename:       filename,
		ContentType:    "message/rfc822",
		RawContentType: "message/rfc822",
		Disposition:    disposition,
		Size:           int64(len(data)),
		Content:        staticOpener(data),
	}
	if inner, err := mail.ReadMessage(bytes.NewReader(data)); err == nil {
		if _, _, parts, err := walkPart(inner.Header, inner.Body); err == nil {
			desc.Parts = parts
		}
	}
	return desc
}

func staticOpener(data []byte) core.ContentOpener {
	return func(context.Context) ([]byte, error) {
		return data, nil
	}
}

// decodeBody applies the part's transfer encoding. The multipart reader
// already strips quoted-printable, but the top-level body and base64 parts
// arrive encoded.
func decodeBody(r io.Reader, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return io.ReadAll(base64.NewDecoder(base64.StdEncoding, r))
	case "quoted-printable":
		return io.ReadAll(quotedprintable.NewReader(r))
	default:
		return io.ReadAll(r)
	}
}

// partFilename prefers the Content-Disposition filename over the deprecated
// Content-Type name parameter.
func partFilename(h headerGetter, typeParams map[string]string) string {
	if disposition := h.Get("Content-Disposition"); disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name, ok := params["filename"]; ok {
				return name
			}
		}
	}
	return typeParams["name"]
}

func decodeHeader(dec *mime.WordDecoder, value string) string {
	decoded, err := dec.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}
