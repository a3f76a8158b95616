// Package smtp implements the plain-SMTP mail backend. It is the fallback
// when Graph credentials are absent: sends are fire-and-forget, with no
// message tracking and no conversation reads.
package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"outreach_server/core/port/out"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds the SMTP server settings. User/Password are optional; without
// them the client skips AUTH, which suits local relay setups.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string

	// TLSMode is "starttls" (default), "smtps", or "none".
	TLSMode string
}

// Complete reports whether the minimum settings for a send are present.
func (c *Config) Complete() bool {
	return c.Host != "" && c.Port > 0 && c.From != ""
}

// Sender implements out.MailSender over net/smtp. A fresh connection is
// dialed per send; outreach volume never justifies pooling.
type Sender struct {
	cfg *Config
	log zerolog.Logger
}

func NewSender(cfg *Config, log zerolog.Logger) *Sender {
	return &Sender{cfg: cfg, log: log.With().Str("component", "smtp_client").Logger()}
}

// BackendName implements out.MailSender.
func (s *Sender) BackendName() string { return "smtp" }

// Send implements out.MailSender. SMTP assigns no retrievable ids, so the
// result never carries tracking fields.
func (s *Sender) Send(ctx context.Context, req *out.SendRequest) *out.DeliveryResult {
	if err := ctx.Err(); err != nil {
		return &out.DeliveryResult{Status: out.DeliveryError, Message: err.Error()}
	}

	message, err := s.buildMessage(req)
	if err != nil {
		return &out.DeliveryResult{Status: out.DeliveryError, Message: fmt.Sprintf("failed to build message: %v", err)}
	}

	if err := s.deliver(req, message); err != nil {
		return &out.DeliveryResult{Status: out.DeliveryError, Message: fmt.Sprintf("failed to send email: %v", err)}
	}

	s.log.Info().Str("recipient", req.To).Str("subject", req.Subject).Msg("email sent via smtp")
	return &out.DeliveryResult{Status: out.DeliverySuccess, Message: "Email sent successfully"}
}

func (s *Sender) deliver(req *out.SendRequest, message []byte) error {
	client, err := s.dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if s.cfg.User != "" && s.cfg.Password != "" {
		auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	for _, rcpt := range s.recipients(req) {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("initiate data transfer: %w", err)
	}
	if _, err := w.Write(message); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data transfer: %w", err)
	}
	return client.Quit()
}

func (s *Sender) recipients(req *out.SendRequest) []string {
	rcpts := []string{req.To}
	rcpts = append(rcpts, req.Cc...)
	rcpts = append(rcpts, req.Bcc...)
	return rcpts
}

func (s *Sender) dial() (*smtp.Client, error) {
	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	tlsConfig := &tls.Config{ServerName: s.cfg.Host}

	mode := s.cfg.TLSMode
	if mode == "" {
		mode = "starttls"
	}

	switch mode {
	case "smtps":
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("connect via smtps: %w", err)
		}
		client, err := smtp.NewClient(conn, s.cfg.Host)
		if err != nil {
			return nil, fmt.Errorf("create smtp client: %w", err)
		}
		return client, nil
	default:
		client, err := smtp.Dial(addr)
		if err != nil {
			return nil, fmt.Errorf("connect to smtp server: %w", err)
		}
		if mode == "starttls" {
			if ok, _ := client.Extension("STARTTLS"); ok {
				if err := client.StartTLS(tlsConfig); err != nil {
					client.Close()
					return nil, fmt.Errorf("start tls: %w", err)
				}
			}
		}
		return client, nil
	}
}

// buildMessage assembles the RFC 5322 message. With attachments it becomes a
// multipart/mixed document; the body part stays text or HTML based on
// content sniffing, matching the Graph backend.
func (s *Sender) buildMessage(req *out.SendRequest) ([]byte, error) {
	bodyType := "text/plain"
	lower := strings.ToLower(req.Body)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<body") {
		bodyType = "text/html"
	}

	var buf bytes.Buffer
	writeHeader := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }

	writeHeader("From", s.cfg.From)
	writeHeader("To", req.To)
	if len(req.Cc) > 0 {
		writeHeader("Cc", strings.Join(req.Cc, ", "))
	}
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", req.Subject))
	writeHeader("MIME-Version", "1.0")

	attachments := s.loadAttachments(req.AttachmentPaths)
	if len(attachments) == 0 {
		writeHeader("Content-Type", bodyType+"; charset=UTF-8")
		buf.WriteString("\r\n")
		buf.WriteString(req.Body)
		return buf.Bytes(), nil
	}

	boundary := "outreach-" + uuid.NewString()
	writeHeader("Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", boundary))
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: %s; charset=UTF-8\r\n\r\n", bodyType)
	buf.WriteString(req.Body)
	buf.WriteString("\r\n")

	for _, att := range attachments {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s\r\n", att.contentType)
		fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n", att.name)
		buf.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
		writeBase64Wrapped(&buf, att.data)
		buf.WriteString("\r\n")
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes(), nil
}

type attachment struct {
	name        string
	contentType string
	data        []byte
}

// loadAttachments mirrors the Graph backend: a missing file is skipped with
// a warning, never a failed send.
func (s *Sender) loadAttachments(paths []string) []attachment {
	var attachments []attachment
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn().Str("path", path).Err(err).Msg("skipping unreadable attachment")
			continue
		}
		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		attachments = append(attachments, attachment{
			name:        filepath.Base(path),
			contentType: contentType,
			data:        data,
		})
	}
	return attachments
}

// writeBase64Wrapped emits base64 data in 76-char lines per RFC 2045.
func writeBase64Wrapped(buf *bytes.Buffer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	if len(encoded) > 0 {
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}
}

var _ out.MailSender = (*Sender)(nil)
