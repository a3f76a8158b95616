package in

import (
	"context"
	"time"

	"outreach_server/core/port/out"
)

// SweepResult summarizes one reply-sync sweep. A sweep always reports counts,
// even when individual records failed.
type SweepResult struct {
	RecordsChecked int `json:"records_checked"`
	RecordsUpdated int `json:"records_updated"`
	RecordsFailed  int `json:"records_failed"`
}

// ReplySync is the synchronous entry point for reply reconciliation.
type ReplySync interface {
	// RunSweep checks all eligible outreach created within lookback and
	// merges new replies. It returns an error only when the record store
	// itself is unreachable; per-record failures are counted and logged.
	RunSweep(ctx context.Context, lookback time.Duration) (*SweepResult, error)
	MarkRead(ctx context.Context, outreachID string) error
	MarkResponded(ctx context.Context, outreachID string) error
}

// SendOutreachInput identifies what to send and to whom. ContactID is
// required; the service never guesses a contact.
type SendOutreachInput struct {
	ProviderID      string   `json:"provider_id"`
	ContactID       string   `json:"contact_id"`
	TemplateName    string   `json:"template_name"`
	AttachmentPaths []string `json:"attachment_paths,omitempty"`
}

// SendOutcome reports the transport result and, on success, the created
// outreach record id.
type SendOutcome struct {
	OutreachID string              `json:"outreach_id,omitempty"`
	Result     *out.DeliveryResult `json:"result"`
}

// OutreachMail is the outbound send path.
type OutreachMail interface {
	Send(ctx context.Context, input *SendOutreachInput) (*SendOutcome, error)
}
