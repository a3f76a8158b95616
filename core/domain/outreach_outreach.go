package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Outreach Record
// =============================================================================

type OutreachMethod string

const (
	MethodEmail OutreachMethod = "email"
	MethodPhone OutreachMethod = "phone"
	MethodOther OutreachMethod = "other"
)

type OutreachType string

const (
	OutreachCold     OutreachType = "cold"
	OutreachFollowUp OutreachType = "follow_up"
)

type OutreachStatus string

const (
	OutreachPending   OutreachStatus = "pending"
	OutreachSent      OutreachStatus = "sent"
	OutreachCompleted OutreachStatus = "completed"
)

// ReplyStatus tracks what we know about inbound replies to one outreach.
// Transitions only move forward: none -> unread -> read -> responded. A new
// reply arriving after responded re-enters unread, since a fresh inbound
// message always needs triage again.
type ReplyStatus string

const (
	ReplyNone      ReplyStatus = "none"
	ReplyUnread    ReplyStatus = "unread"
	ReplyRead      ReplyStatus = "read"
	ReplyResponded ReplyStatus = "responded"
)

// ReplyPreviewMaxLen caps the stored reply preview. Longer previews are cut
// to exactly this many characters plus an ellipsis.
const ReplyPreviewMaxLen = 200

// OutreachRecord is one outreach attempt to a provider contact.
type OutreachRecord struct {
	ID         string `json:"id"`
	ProviderID string `json:"provider_id"`
	ContactID  string `json:"contact_id,omitempty"`

	Method OutreachMethod `json:"method"`
	Type   OutreachType   `json:"type"`
	Notes  string         `json:"notes,omitempty"`
	Status OutreachStatus `json:"status"`

	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`

	// Provider-assigned identifiers, populated only when the send went
	// through the Graph backend and tracking lookup succeeded.
	MessageID      string `json:"message_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`

	// Reply tracking. ReplyCount never decreases; LastReplyDate is the
	// checkpoint that keeps sweeps idempotent.
	ReplyReceived    bool        `json:"reply_received"`
	ReplyCount       int         `json:"reply_count"`
	ReplyStatus      ReplyStatus `json:"reply_status"`
	LastReplyDate    time.Time   `json:"last_reply_date,omitempty"`
	ReplySenderEmail string      `json:"reply_sender_email,omitempty"`
	ReplyPreview     string      `json:"reply_preview,omitempty"`
}

// NewOutreachRecord creates a record in its initial state.
func NewOutreachRecord(providerID, contactID string, method OutreachMethod, typ OutreachType, notes string) *OutreachRecord {
	return &OutreachRecord{
		ID:          uuid.NewString(),
		ProviderID:  providerID,
		ContactID:   contactID,
		Method:      method,
		Type:        typ,
		Notes:       notes,
		Status:      OutreachPending,
		CreatedAt:   time.Now().UTC(),
		ReplyStatus: ReplyNone,
	}
}

// SetEmailTracking stores the provider-assigned identifiers of the sent mail.
func (o *OutreachRecord) SetEmailTracking(messageID, conversationID string) {
	o.MessageID = messageID
	o.ConversationID = conversationID
}

// EligibleForReplyCheck reports whether a sweep should look at this record.
// Records without a conversation id were never tracked sends.
func (o *OutreachRecord) EligibleForReplyCheck() bool {
	return o.Method == MethodEmail && o.ConversationID != ""
}

// MarkReplyReceived merges one detected reply into the record. Allowed from
// any state; a reply after responded drops the record back to unread.
func (o *OutreachRecord) MarkReplyReceived(senderEmail, preview string, receivedAt time.Time) {
	o.ReplyReceived = true
	o.ReplyCount++
	o.ReplyStatus = ReplyUnread
	if receivedAt.After(o.LastReplyDate) {
		o.LastReplyDate = receivedAt.UTC()
	}
	o.ReplySenderEmail = senderEmail
	o.ReplyPreview = TruncatePreview(preview)
}

// AddReplyCount accounts for additional replies found in the same sweep
// beyond the one consumed by MarkReplyReceived.
func (o *OutreachRecord) AddReplyCount(n int) {
	if n > 0 {
		o.ReplyCount += n
	}
}

// MarkRead moves unread to read. Any other state is rejected unchanged.
func (o *OutreachRecord) MarkRead() error {
	if o.ReplyStatus != ReplyUnread {
		return ErrInvalidTransition
	}
	o.ReplyStatus = ReplyRead
	return nil
}

// MarkResponded closes out the reply. Requires that a reply was actually
// received; calling it again on a responded record is a no-op.
func (o *OutreachRecord) MarkResponded() error {
	if !o.ReplyReceived {
		return ErrInvalidTransition
	}
	o.ReplyStatus = ReplyResponded
	return nil
}

// TruncatePreview cuts s to ReplyPreviewMaxLen characters plus "..." when it
// is longer, counting characters rather than bytes.
func TruncatePreview(s string) string {
	runes := []rune(s)
	if len(runes) <= ReplyPreviewMaxLen {
		return s
	}
	return string(runes[:ReplyPreviewMaxLen]) + "..."
}
