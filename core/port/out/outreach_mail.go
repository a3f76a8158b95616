package out

import (
	"context"
	"time"
)

// =============================================================================
// Mail Transport
// =============================================================================

type DeliveryStatus string

const (
	DeliverySuccess DeliveryStatus = "success"
	DeliveryError   DeliveryStatus = "error"
)

// SendRequest describes one outbound email. AttachmentPaths are read by the
// backend; a missing file degrades the send to fewer attachments.
type SendRequest struct {
	Subject         string
	Body            string
	To              string
	Cc              []string
	Bcc             []string
	Importance      string
	AttachmentPaths []string
}

// DeliveryResult is the outcome of a send. Callers branch on Status; a send
// never raises past the transport boundary. MessageID and ConversationID are
// populated only by the Graph backend, and only when the post-send lookup in
// the sent folder succeeds.
type DeliveryResult struct {
	Status         DeliveryStatus
	Message        string
	MessageID      string
	ConversationID string
}

// MailSender is the uniform send operation over the configured backend. The
// backend is bound once at startup and never re-decided per call.
type MailSender interface {
	Send(ctx context.Context, req *SendRequest) *DeliveryResult
	BackendName() string
}

// =============================================================================
// Conversation Store
// =============================================================================

// ConversationMessage is one message of a remote conversation, as returned
// by the mailbox provider. ReceivedAt is always UTC.
type ConversationMessage struct {
	ID             string
	ConversationID string
	Subject        string
	SenderEmail    string
	ReceivedAt     time.Time
}

// MessageBody is a message's full body plus the provider's short preview.
type MessageBody struct {
	ContentType string // "html" or "text"
	Content     string
	Preview     string
}

// ConversationSource reads messages back out of the remote mailbox. Only the
// Graph backend implements it; SMTP sends are fire-and-forget.
type ConversationSource interface {
	// ListConversationMessages returns up to pageSize of the mailbox's most
	// recent messages belonging to conversationID, newest first. The bounded
	// page is a deliberate recency window, not a full-history guarantee.
	ListConversationMessages(ctx context.Context, conversationID string, pageSize int) ([]*ConversationMessage, error)
	GetMessageBody(ctx context.Context, messageID string) (*MessageBody, error)
	MailboxEmail() string
}

// =============================================================================
// Sweep Lock
// =============================================================================

// SweepLock serializes reply sweeps across triggers (cron, manual button).
type SweepLock interface {
	// TryAcquire returns a release func when the lock was taken, or false
	// when another sweep holds it.
	TryAcquire(ctx context.Context, ttl time.Duration) (release func(), acquired bool, err error)
}
