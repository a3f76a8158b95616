// Package outreachmail implements the outbound send path: template
// rendering, delivery through the bound backend, and outreach record
// creation with tracking capture.
package outreachmail

import (
	"context"
	"fmt"

	"outreach_server/core/domain"
	portin "outreach_server/core/port/in"
	"outreach_server/core/port/out"
	"outreach_server/core/service/templates"

	"github.com/rs/zerolog"
)

const defaultTemplate = "provider_outreach_cold"

// Service sends outreach email to a specific provider contact.
type Service struct {
	providerRepo out.ProviderRepository
	contactRepo  out.ContactRepository
	outreachRepo out.OutreachRepository
	sender       out.MailSender
	templates    *templates.Registry
	log          zerolog.Logger
}

func NewService(
	providerRepo out.ProviderRepository,
	contactRepo out.ContactRepository,
	outreachRepo out.OutreachRepository,
	sender out.MailSender,
	reg *templates.Registry,
	log zerolog.Logger,
) *Service {
	return &Service{
		providerRepo: providerRepo,
		contactRepo:  contactRepo,
		outreachRepo: outreachRepo,
		sender:       sender,
		templates:    reg,
		log:          log.With().Str("component", "outreach_mail").Logger(),
	}
}

// Send implements portin.OutreachMail. The contact id is required; the
// service never picks a contact on the caller's behalf. A transport failure
// comes back inside the outcome's DeliveryResult, not as an error.
func (s *Service) Send(ctx context.Context, input *portin.SendOutreachInput) (*portin.SendOutcome, error) {
	if input.ProviderID == "" {
		return nil, fmt.Errorf("provider id is required")
	}
	if input.ContactID == "" {
		return nil, fmt.Errorf("contact id is required")
	}
	templateName := input.TemplateName
	if templateName == "" {
		templateName = defaultTemplate
	}

	provider, err := s.providerRepo.GetByID(ctx, input.ProviderID)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("provider %s: %w", input.ProviderID, domain.ErrNotFound)
	}

	contact, err := s.contactRepo.GetByID(ctx, input.ContactID)
	if err != nil {
		return nil, err
	}
	if contact == nil || contact.ProviderID != provider.ID {
		return nil, fmt.Errorf("contact %s for provider %s: %w", input.ContactID, input.ProviderID, domain.ErrNotFound)
	}
	if contact.Email == "" {
		return nil, fmt.Errorf("contact %s has no email address", contact.ID)
	}

	subject, body, typ, err := s.templates.Render(templateName, provider, contact)
	if err != nil {
		return nil, err
	}

	result := s.sender.Send(ctx, &out.SendRequest{
		Subject:         subject,
		Body:            body,
		To:              contact.Email,
		AttachmentPaths: input.AttachmentPaths,
	})
	if result.Status != out.DeliverySuccess {
		s.log.Error().
			Str("provider_id", provider.ID).
			Str("recipient", contact.Email).
			Str("reason", result.Message).
			Msg("outreach send failed")
		return &portin.SendOutcome{Result: result}, nil
	}

	if err := s.providerRepo.UpdateStatus(ctx, provider.ID, domain.ProviderOutreach); err != nil {
		s.log.Warn().Err(err).Str("provider_id", provider.ID).Msg("failed to update provider status")
	}

	rec := domain.NewOutreachRecord(provider.ID, contact.ID, domain.MethodEmail, typ,
		fmt.Sprintf("Sent %s email to %s", templateName, contact.Email))
	rec.Status = domain.OutreachSent
	if result.MessageID != "" && result.ConversationID != "" {
		rec.SetEmailTracking(result.MessageID, result.ConversationID)
	}

	if err := s.outreachRepo.Create(ctx, rec); err != nil {
		// The mail is already out; surface the persistence failure.
		return &portin.SendOutcome{Result: result}, err
	}

	s.log.Info().
		Str("outreach_id", rec.ID).
		Str("recipient", contact.Email).
		Str("backend", s.sender.BackendName()).
		Bool("tracked", rec.ConversationID != "").
		Msg("outreach email sent")

	return &portin.SendOutcome{OutreachID: rec.ID, Result: result}, nil
}

var _ portin.OutreachMail = (*Service)(nil)
