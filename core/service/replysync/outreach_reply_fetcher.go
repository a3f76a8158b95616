// Package replysync implements reply detection and reconciliation for
// tracked outreach email.
package replysync

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"outreach_server/core/domain"
	"outreach_server/core/port/out"

	"github.com/rs/zerolog"
)

// ConversationPageSize bounds how much conversation history one fetch looks
// at. Anything older than the newest page is outside the recency window.
const ConversationPageSize = 100

// systemSenderPatterns match relay/directory artifacts that are never real
// replies: Exchange directory addresses and bounce daemons.
var systemSenderPatterns = []string{
	"/o=exchangelabs/",
	"mailer-daemon",
	"postmaster@",
	"microsoftexchange",
}

// ReplyFetcher pulls candidate messages for one conversation and keeps only
// genuinely new inbound replies.
type ReplyFetcher struct {
	source out.ConversationSource
	log    zerolog.Logger
}

func NewReplyFetcher(source out.ConversationSource, log zerolog.Logger) *ReplyFetcher {
	return &ReplyFetcher{
		source: source,
		log:    log.With().Str("component", "reply_fetcher").Logger(),
	}
}

// FetchNewReplies returns the new inbound replies for conversationID, oldest
// first. A message counts as new when it arrived after the outreach was
// created and after the last reply already processed. All comparisons happen
// in UTC; naive local timestamps are treated as UTC.
func (f *ReplyFetcher) FetchNewReplies(ctx context.Context, conversationID string, outreachCreatedAt, lastReplySeen time.Time) ([]*out.ConversationMessage, error) {
	createdAt := asUTC(outreachCreatedAt)
	checkpoint := asUTC(lastReplySeen)
	mailbox := f.source.MailboxEmail()

	messages, err := f.source.ListConversationMessages(ctx, conversationID, ConversationPageSize)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Conversation no longer exists remotely: zero replies, not a failure.
			f.log.Debug().Str("conversation_id", conversationID).Msg("conversation not found, treating as empty")
			return nil, nil
		}
		return nil, err
	}

	var replies []*out.ConversationMessage
	for _, msg := range messages {
		sender := strings.ToLower(strings.TrimSpace(msg.SenderEmail))
		switch {
		case sender == "" || strings.EqualFold(sender, mailbox):
			// Our own outbound copy.
		case isSystemSender(sender):
		case !msg.ReceivedAt.After(createdAt):
			// Predates the outreach.
		case !checkpoint.IsZero() && !msg.ReceivedAt.After(checkpoint):
			// Already processed in a prior sweep.
		default:
			replies = append(replies, msg)
		}
	}

	sort.Slice(replies, func(i, j int) bool {
		return replies[i].ReceivedAt.Before(replies[j].ReceivedAt)
	})

	return replies, nil
}

func isSystemSender(sender string) bool {
	for _, pattern := range systemSenderPatterns {
		if strings.Contains(sender, pattern) {
			return true
		}
	}
	return false
}

// asUTC normalizes to UTC so stored timestamps compare correctly against
// the provider's UTC-qualified receivedDateTime values.
func asUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
