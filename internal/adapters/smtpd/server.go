// Package smtpd runs the funnel as an SMTP content filter: messages are
// classified in-line and handed back to the MTA with decision headers
// stamped on.
package smtpd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/finwatch/invoice-funnel/internal/config"
	"github.com/finwatch/invoice-funnel/internal/core"
)

// Server accepts messages over SMTP, classifies them and relays them back
// to the MTA with the decision stamped in headers.
type Server struct {
	service      *core.ClassifierService
	logger       *zap.Logger
	listenAddr   string
	statusHeader string
	scoreHeader  string
	reasonHeader string
	relayEnabled bool
	relayAddr    string
	relayPort    int
	server       *smtp.Server
}

// NewServer creates an SMTP frontend from the server configuration.
func NewServer(service *core.ClassifierService, logger *zap.Logger, cfg config.ServerConfig) *Server {
	return &Server{
		service:      service,
		logger:       logger,
		listenAddr:   cfg.ListenAddress,
		statusHeader: cfg.StatusHeader,
		scoreHeader:  cfg.ScoreHeader,
		reasonHeader: cfg.ReasonHeader,
		relayEnabled: cfg.RelayEnabled,
		relayAddr:    cfg.RelayAddress,
		relayPort:    cfg.RelayPort,
	}
}

// Start begins listening for SMTP connections.
func (s *Server) Start() error {
	s.server = smtp.NewServer(&smtpBackend{frontend: s})

	s.server.Addr = s.listenAddr
	s.server.Domain = "localhost"
	s.server.ReadTimeout = 30 * time.Second
	s.server.WriteTimeout = 30 * time.Second
	s.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	s.server.MaxRecipients = 50
	s.server.AllowInsecureAuth = true

	s.logger.Info("SMTP frontend starting", zap.String("address", s.listenAddr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				s.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop shuts the SMTP server down.
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// ProcessMessage classifies a single parsed message. Used for testing and
// direct calls.
func (s *Server) ProcessMessage(ctx context.Context, msg *core.CandidateMessage) (*core.Decision, error) {
	return s.service.Classify(ctx, msg), nil
}

// sendToRelay hands the stamped message back to the MTA using go-smtp.
func (s *Server) sendToRelay(sender string, recipients []string, data []byte) error {
	relayAddr := fmt.Sprintf("%s:%d", s.relayAddr, s.relayPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", relayAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			s.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		s.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	frontend *Server
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		frontend:   b.frontend,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	frontend   *Server
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for the funnel)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data classifies the message and relays it with decision headers added.
// Classification never blocks delivery: a failed parse or classification is
// stamped as NEEDS_VERIFICATION so a human sees the message anyway.
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.frontend.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var decision *core.Decision
	msg, parseErr := ParseMessage(rawData)
	if parseErr != nil {
		s.frontend.logger.Error("Failed to parse message", zap.Error(parseErr))
		decision = &core.Decision{
			Category:  core.CategoryNeedsVerification,
			Reasons:   []string{fmt.Sprintf("parse failure: %v", parseErr)},
			DecidedAt: time.Now(),
		}
	} else {
		if msg.From == "" {
			// Fall back to the envelope sender so the trusted-sender
			// signal still sees a domain.
			msg = core.NewCandidateMessage(msg.ID, s.sender, msg.Subject,
				msg.BodyText, msg.BodyHTML, msg.Received, msg.Attachments)
		}
		decision = s.frontend.service.Classify(ctx, msg)
	}

	stamped := s.stampHeaders(rawData, decision)

	if s.frontend.relayEnabled {
		if err := s.frontend.sendToRelay(s.sender, s.recipients, stamped); err != nil {
			s.frontend.logger.Error("Failed to relay message",
				zap.Error(err),
				zap.String("sender", s.sender))
			return err
		}
	} else {
		s.frontend.logger.Warn("Relay disabled, message classified but not forwarded")
	}

	s.frontend.logger.Info("Processed message",
		zap.String("sender", s.sender),
		zap.String("category", string(decision.Category)),
		zap.Int("score", decision.Breakdown.TotalScore),
		zap.Int("confidence", decision.Confidence))

	return nil
}

// stampHeaders prepends the decision headers to the raw message, leaving
// the original headers and body untouched.
func (s *smtpSession) stampHeaders(rawData []byte, decision *core.Decision) []byte {
	var out bytes.Buffer
	fmt.Fprintf(&out, "%s: %s\r\n", s.frontend.statusHeader, decision.Category)
	fmt.Fprintf(&out, "%s: %d\r\n", s.frontend.scoreHeader, decision.Breakdown.TotalScore)
	fmt.Fprintf(&out, "%s: %s\r\n", s.frontend.reasonHeader, strings.Join(decision.Reasons, "; "))
	out.Write(rawData)
	return out.Bytes()
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
