// Package mailer binds the mail backend at startup. Graph wins when its
// credentials are complete; otherwise SMTP; otherwise startup fails. The
// choice is made once and never re-decided per send.
package mailer

import (
	"fmt"

	"outreach_server/adapter/out/mailer/graph"
	"outreach_server/adapter/out/mailer/smtp"
	"outreach_server/core/domain"
	"outreach_server/core/port/out"

	"github.com/rs/zerolog"
)

// Backend is the bound mail transport. Conversations is nil for SMTP;
// reply sync is unavailable without it.
type Backend struct {
	Sender        out.MailSender
	Conversations out.ConversationSource
}

// Bind selects and constructs the backend from the available credentials.
func Bind(graphCfg *graph.Config, smtpCfg *smtp.Config, log zerolog.Logger) (*Backend, error) {
	switch {
	case graphCfg.Complete():
		client, err := graph.NewClient(graphCfg, log)
		if err != nil {
			return nil, err
		}
		log.Info().Str("backend", client.BackendName()).Str("mailbox", client.MailboxEmail()).Msg("mail backend bound")
		return &Backend{Sender: client, Conversations: client}, nil

	case smtpCfg.Complete():
		sender := smtp.NewSender(smtpCfg, log)
		log.Info().Str("backend", sender.BackendName()).Msg("mail backend bound, reply sync unavailable")
		return &Backend{Sender: sender}, nil

	default:
		return nil, fmt.Errorf("no mail backend configured: %w", domain.ErrMissingCredentials)
	}
}

// ReplySyncAvailable reports whether the bound backend supports reading
// conversations back.
func (b *Backend) ReplySyncAvailable() bool { return b.Conversations != nil }
