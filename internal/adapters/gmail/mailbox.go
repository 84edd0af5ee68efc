// Package gmail adapts the Gmail API as the funnel's mailbox provider.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/finwatch/invoice-funnel/internal/config"
	"github.com/finwatch/invoice-funnel/internal/core"
)

// Mailbox implements the MailboxProvider port against the Gmail API.
type Mailbox struct {
	svc    *gmail.Service
	user   string
	logger *zap.Logger
}

// NewMailbox creates a Gmail mailbox provider from an offline refresh
// token. Token acquisition (the consent flow) is out of scope; the token is
// injected through configuration.
func NewMailbox(ctx context.Context, cfg config.GmailConfig, logger *zap.Logger) (*Mailbox, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("gmail credentials are not configured")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Mailbox{
		svc:    svc,
		user:   cfg.User,
		logger: logger,
	}, nil
}

// Search returns the identifiers of messages matching the compiled
// predicate. A single page is returned; pagination belongs to the caller.
func (m *Mailbox) Search(ctx context.Context, query string, limit int64) ([]string, error) {
	call := m.svc.Users.Messages.List(m.user).Context(ctx)
	if query != "" {
		call = call.Q(query)
	}
	if limit > 0 {
		call = call.MaxResults(limit)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		ids = append(ids, msg.Id)
	}

	m.logger.Debug("Mailbox search completed",
		zap.String("query", query),
		zap.Int("matches", len(ids)))

	return ids, nil
}

// Fetch returns the full message structure for one identifier, mapped into
// the funnel's candidate message model.
func (m *Mailbox) Fetch(ctx context.Context, id string) (*core.CandidateMessage, error) {
	msg, err := m.svc.Users.Messages.Get(m.user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", id, err)
	}
	if msg.Payload == nil {
		return nil, fmt.Errorf("message %s has no payload", id)
	}

	from := headerValue(msg.Payload.Headers, "From")
	subject := headerValue(msg.Payload.Headers, "Subject")
	received := time.UnixMilli(msg.InternalDate)

	bodyText, bodyHTML := m.collectBodies(msg.Payload)
	attachments := m.mapParts(id, msg.Payload.Parts)

	return core.NewCandidateMessage(id, from, subject, bodyText, bodyHTML, received, attachments), nil
}

// collectBodies gathers the inline text/plain and text/html bodies from the
// part tree.
func (m *Mailbox) collectBodies(part *gmail.MessagePart) (text, html string) {
	if part == nil {
		return "", ""
	}
	if part.Filename == "" && part.Body != nil && part.Body.Data != "" {
		decoded, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err == nil {
			switch {
			case strings.HasPrefix(part.MimeType, "text/plain"):
				text += string(decoded)
			case strings.HasPrefix(part.MimeType, "text/html"):
				html += string(decoded)
			}
		}
	}
	for _, child := range part.Parts {
		t, h := m.collectBodies(child)
		text += t
		html += h
	}
	return text, html
}

// mapParts converts the Gmail part tree into attachment descriptors,
// preserving the nesting so the attachment scanner can walk forwarded
// messages. Attachment bytes stay behind a lazy opener.
func (m *Mailbox) mapParts(messageID string, parts []*gmail.MessagePart) []core.AttachmentDescriptor {
	if len(parts) == 0 {
		return nil
	}
	out := make([]core.AttachmentDescriptor, 0, len(parts))
	for _, part := range parts {
		if part == nil {
			continue
		}
		desc := core.AttachmentDescriptor{
			Filename:       part.Filename,
			ContentType:    part.MimeType,
			RawContentType: mediaType(headerValue(part.Headers, "Content-Type")),
			Disposition:    headerValue(part.Headers, "Content-Disposition"),
			Parts:          m.mapParts(messageID, part.Parts),
		}
		if part.Body != nil {
			desc.Size = part.Body.Size
			desc.Content = m.opener(messageID, part.Body)
		}
		out = append(out, desc)
	}
	return out
}

// opener returns a lazy loader for one part's bytes: inline data is decoded
// in place, detached attachments are fetched on demand.
func (m *Mailbox) opener(messageID string, body *gmail.MessagePartBody) core.ContentOpener {
	if body.Data != "" {
		data := body.Data
		return func(context.Context) ([]byte, error) {
			return base64.URLEncoding.DecodeString(data)
		}
	}
	if body.AttachmentId == "" {
		return nil
	}
	attachmentID := body.AttachmentId
	return func(ctx context.Context) ([]byte, error) {
		att, err := m.svc.Users.Messages.Attachments.Get(m.user, messageID, attachmentID).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch attachment: %w", err)
		}
		return base64.URLEncoding.DecodeString(att.Data)
	}
}

func headerValue(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// mediaType strips parameters from a raw Content-Type header value.
func mediaType(value string) string {
	if i := strings.Index(value, ";"); i >= 0 {
		value = value[:i]
	}
	return strings.ToLower(strings.TrimSpace(value))
}
