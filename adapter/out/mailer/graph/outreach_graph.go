// Package graph implements the Microsoft Graph mail backend: OAuth2
// client-credentials auth, outbound send with tracking capture, and
// conversation reads for reply detection.
package graph

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"outreach_server/core/domain"
	"outreach_server/core/port/out"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

const (
	defaultBaseURL = "https://graph.microsoft.com/v1.0"

	requestTimeout = 10 * time.Second

	// maxAttempts bounds retries for transient transport failures.
	// Auth failures and 4xx responses are never retried.
	maxAttempts = 3

	// sentLookupPageSize bounds the sent-items page scanned to recover the
	// message/conversation ids of a just-sent mail.
	sentLookupPageSize = 10
)

// Config is the credential set required by the Graph backend. All four
// values must be present.
type Config struct {
	ClientID     string
	ClientSecret string
	TenantID     string
	UserEmail    string

	// BaseURL overrides the Graph endpoint, used by tests.
	BaseURL string
}

// Complete reports whether every required credential is set.
func (c *Config) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.TenantID != "" && c.UserEmail != ""
}

// Client talks to the Graph API for one configured mailbox. It implements
// both out.MailSender and out.ConversationSource.
type Client struct {
	http    *http.Client
	tokens  *TokenCache
	email   string
	baseURL string
	cb      *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewClient validates the credential set and binds the client. Incomplete
// credentials are a construction-time failure; there is no per-call
// fallback to another backend.
func NewClient(cfg *Config, log zerolog.Logger) (*Client, error) {
	if !cfg.Complete() {
		return nil, fmt.Errorf("graph backend: %w", domain.ErrMissingCredentials)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	clog := log.With().Str("component", "graph_client").Logger()
	cbSettings := gobreaker.Settings{
		Name:        "graph-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			clog.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &Client{
		http:    &http.Client{Timeout: requestTimeout},
		tokens:  NewTokenCache(cfg.ClientID, cfg.ClientSecret, cfg.TenantID),
		email:   cfg.UserEmail,
		baseURL: baseURL,
		cb:      gobreaker.NewCircuitBreaker(cbSettings),
		log:     clog,
	}, nil
}

// BackendName implements out.MailSender.
func (c *Client) BackendName() string { return "graph" }

// MailboxEmail implements out.ConversationSource.
func (c *Client) MailboxEmail() string { return c.email }

// =============================================================================
// Send
// =============================================================================

// Send implements out.MailSender. Failures come back as an error-status
// result with a human-readable message, never as a raised error.
func (c *Client) Send(ctx context.Context, req *out.SendRequest) *out.DeliveryResult {
	msg := c.buildMessage(req)

	body := struct {
		Message         graphMessage `json:"message"`
		SaveToSentItems bool         `json:"saveToSentItems"`
	}{
		Message:         msg,
		SaveToSentItems: true,
	}

	err := c.post(ctx, fmt.Sprintf("/users/%s/sendMail", url.PathEscape(c.email)), body, nil)
	if err != nil {
		return &out.DeliveryResult{
			Status:  out.DeliveryError,
			Message: fmt.Sprintf("failed to send email: %v", err),
		}
	}

	result := &out.DeliveryResult{
		Status:  out.DeliverySuccess,
		Message: "Email sent successfully",
	}

	// sendMail returns 202 with no body; recover the provider-assigned ids
	// from the sent folder. Lookup failure degrades to an untracked send.
	if messageID, conversationID, ok := c.lookupSentMessage(ctx, req.Subject, req.To); ok {
		result.MessageID = messageID
		result.ConversationID = conversationID
	}

	return result
}

func (c *Client) buildMessage(req *out.SendRequest) graphMessage {
	contentType := "text"
	lower := strings.ToLower(req.Body)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<body") {
		contentType = "html"
	}

	importance := req.Importance
	if importance == "" {
		importance = "normal"
	}

	msg := graphMessage{
		Subject:    req.Subject,
		Importance: importance,
		Body: graphBody{
			ContentType: contentType,
			Content:     req.Body,
		},
		ToRecipients: []graphRecipient{{EmailAddress: graphEmailAddress{Address: req.To}}},
	}
	for _, addr := range req.Cc {
		msg.CcRecipients = append(msg.CcRecipients, graphRecipient{EmailAddress: graphEmailAddress{Address: addr}})
	}
	for _, addr := range req.Bcc {
		msg.BccRecipients = append(msg.BccRecipients, graphRecipient{EmailAddress: graphEmailAddress{Address: addr}})
	}
	msg.Attachments = c.buildAttachments(req.AttachmentPaths)

	return msg
}

// buildAttachments reads and base64-encodes attachment files. A missing file
// is skipped with a warning; it never aborts the send.
func (c *Client) buildAttachments(paths []string) []graphAttachment {
	var attachments []graphAttachment
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			c.log.Warn().Str("path", path).Err(err).Msg("skipping unreadable attachment")
			continue
		}
		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		attachments = append(attachments, graphAttachment{
			ODataType:    "#microsoft.graph.fileAttachment",
			Name:         filepath.Base(path),
			ContentType:  contentType,
			ContentBytes: base64.StdEncoding.EncodeToString(data),
		})
	}
	return attachments
}

// lookupSentMessage scans the newest sent items for the message just sent,
// matched on subject and recipient.
func (c *Client) lookupSentMessage(ctx context.Context, subject, recipient string) (messageID, conversationID string, ok bool) {
	params := url.Values{}
	params.Set("$select", "id,conversationId,subject,toRecipients,sentDateTime")
	params.Set("$orderby", "sentDateTime desc")
	params.Set("$top", fmt.Sprintf("%d", sentLookupPageSize))

	var resp struct {
		Value []graphMessage `json:"value"`
	}
	path := fmt.Sprintf("/users/%s/mailFolders/sentitems/messages?%s", url.PathEscape(c.email), params.Encode())
	if err := c.get(ctx, path, &resp); err != nil {
		c.log.Warn().Err(err).Msg("sent-items lookup failed, send is untracked")
		return "", "", false
	}

	for _, m := range resp.Value {
		if m.Subject != subject {
			continue
		}
		for _, r := range m.ToRecipients {
			if strings.EqualFold(r.EmailAddress.Address, recipient) {
				return m.ID, m.ConversationID, true
			}
		}
	}
	return "", "", false
}

// =============================================================================
// Conversation reads
// =============================================================================

// ListConversationMessages implements out.ConversationSource. The mailbox's
// newest messages are fetched and filtered to the conversation client-side;
// $filter on conversationId is not reliably orderable server-side.
func (c *Client) ListConversationMessages(ctx context.Context, conversationID string, pageSize int) ([]*out.ConversationMessage, error) {
	params := url.Values{}
	params.Set("$select", "id,subject,from,receivedDateTime,conversationId")
	params.Set("$orderby", "receivedDateTime desc")
	params.Set("$top", fmt.Sprintf("%d", pageSize))

	var resp struct {
		Value []graphMessage `json:"value"`
	}
	path := fmt.Sprintf("/users/%s/messages?%s", url.PathEscape(c.email), params.Encode())
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}

	var messages []*out.ConversationMessage
	for _, m := range resp.Value {
		if m.ConversationID != conversationID {
			continue
		}
		receivedAt, err := time.Parse(time.RFC3339, m.ReceivedDateTime)
		if err != nil {
			c.log.Warn().Str("message_id", m.ID).Str("received", m.ReceivedDateTime).Msg("unparseable receivedDateTime, skipping")
			continue
		}
		messages = append(messages, &out.ConversationMessage{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			Subject:        m.Subject,
			SenderEmail:    m.From.EmailAddress.Address,
			ReceivedAt:     receivedAt.UTC(),
		})
	}
	return messages, nil
}

// GetMessageBody implements out.ConversationSource.
func (c *Client) GetMessageBody(ctx context.Context, messageID string) (*out.MessageBody, error) {
	var msg graphMessage
	path := fmt.Sprintf("/users/%s/messages/%s?$select=body,bodyPreview",
		url.PathEscape(c.email), url.PathEscape(messageID))
	if err := c.get(ctx, path, &msg); err != nil {
		return nil, err
	}
	return &out.MessageBody{
		ContentType: msg.Body.ContentType,
		Content:     msg.Body.Content,
		Preview:     msg.BodyPreview,
	}, nil
}

// =============================================================================
// HTTP plumbing
// =============================================================================

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, data, result)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, result interface{}) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := c.doOnce(ctx, method, path, body, result)
		if err == nil {
			return nil
		}
		lastErr = err

		var terr *domain.TransportError
		if !errors.As(err, &terr) || !terr.Temporary {
			return err
		}
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, method, path string, body []byte, result interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	_, cbErr := c.cb.Execute(func() (interface{}, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, &domain.TransportError{Op: method + " " + path, Temporary: isTransient(err), Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return nil, classifyStatus(resp, method+" "+path)
		}
		if result != nil && resp.StatusCode != http.StatusNoContent {
			return nil, json.NewDecoder(resp.Body).Decode(result)
		}
		return nil, nil
	})
	return cbErr
}

// classifyStatus maps Graph error responses onto the domain error taxonomy.
func classifyStatus(resp *http.Response, op string) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &domain.AuthError{Reason: fmt.Sprintf("graph rejected request (%d)", resp.StatusCode)}
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	default:
		return &domain.TransportError{
			Op:        op,
			Temporary: false,
			Err:       fmt.Errorf("graph API error: %d - %s", resp.StatusCode, string(payload)),
		}
	}
}

// isTransient reports whether a request error is worth retrying. Only
// connection-level timeouts qualify.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// =============================================================================
// Graph wire types
// =============================================================================

type graphMessage struct {
	ID               string            `json:"id,omitempty"`
	ConversationID   string            `json:"conversationId,omitempty"`
	Subject          string            `json:"subject"`
	Importance       string            `json:"importance,omitempty"`
	BodyPreview      string            `json:"bodyPreview,omitempty"`
	Body             graphBody         `json:"body"`
	From             graphRecipient    `json:"from,omitempty"`
	ToRecipients     []graphRecipient  `json:"toRecipients,omitempty"`
	CcRecipients     []graphRecipient  `json:"ccRecipients,omitempty"`
	BccRecipients    []graphRecipient  `json:"bccRecipients,omitempty"`
	Attachments      []graphAttachment `json:"attachments,omitempty"`
	ReceivedDateTime string            `json:"receivedDateTime,omitempty"`
	SentDateTime     string            `json:"sentDateTime,omitempty"`
}

type graphBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphRecipient struct {
	EmailAddress graphEmailAddress `json:"emailAddress"`
}

type graphEmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

type graphAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	ContentBytes string `json:"contentBytes"`
}

var (
	_ out.MailSender         = (*Client)(nil)
	_ out.ConversationSource = (*Client)(nil)
)
