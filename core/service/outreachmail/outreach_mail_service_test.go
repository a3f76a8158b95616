package outreachmail

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"outreach_server/core/domain"
	portin "outreach_server/core/port/in"
	"outreach_server/core/port/out"
	"outreach_server/core/service/templates"

	"github.com/rs/zerolog"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeProviderRepo struct {
	mu        sync.Mutex
	providers map[string]*domain.Provider
	statuses  map[string]domain.ProviderStatus
}

func (r *fakeProviderRepo) Create(_ context.Context, p *domain.Provider) error {
	r.providers[p.ID] = p
	return nil
}

func (r *fakeProviderRepo) GetByID(_ context.Context, id string) (*domain.Provider, error) {
	return r.providers[id], nil
}

func (r *fakeProviderRepo) List(_ context.Context) ([]*domain.Provider, error) { return nil, nil }

func (r *fakeProviderRepo) UpdateStatus(_ context.Context, id string, status domain.ProviderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[id] = status
	return nil
}

func (r *fakeProviderRepo) Delete(_ context.Context, _ string) error { return nil }

type fakeContactRepo struct {
	contacts map[string]*domain.Contact
}

func (r *fakeContactRepo) Create(_ context.Context, c *domain.Contact) error {
	r.contacts[c.ID] = c
	return nil
}

func (r *fakeContactRepo) GetByID(_ context.Context, id string) (*domain.Contact, error) {
	return r.contacts[id], nil
}

func (r *fakeContactRepo) ListByProvider(_ context.Context, _ string) ([]*domain.Contact, error) {
	return nil, nil
}

func (r *fakeContactRepo) Delete(_ context.Context, _ string) error { return nil }

type fakeOutreachRepo struct {
	created []*domain.OutreachRecord
}

func (r *fakeOutreachRepo) Create(_ context.Context, rec *domain.OutreachRecord) error {
	r.created = append(r.created, rec)
	return nil
}

func (r *fakeOutreachRepo) Update(_ context.Context, _ *domain.OutreachRecord) error { return nil }

func (r *fakeOutreachRepo) GetByID(_ context.Context, _ string) (*domain.OutreachRecord, error) {
	return nil, nil
}

func (r *fakeOutreachRepo) List(_ context.Context, _ out.OutreachFilter) ([]*domain.OutreachRecord, error) {
	return nil, nil
}

func (r *fakeOutreachRepo) Delete(_ context.Context, _ string) error { return nil }

type fakeSender struct {
	lastReq *out.SendRequest
	result  *out.DeliveryResult
}

func (s *fakeSender) Send(_ context.Context, req *out.SendRequest) *out.DeliveryResult {
	s.lastReq = req
	if s.result != nil {
		return s.result
	}
	return &out.DeliveryResult{Status: out.DeliverySuccess, Message: "Email sent successfully"}
}

func (s *fakeSender) BackendName() string { return "fake" }

// =============================================================================
// Setup
// =============================================================================

type fixture struct {
	svc       *Service
	providers *fakeProviderRepo
	contacts  *fakeContactRepo
	outreach  *fakeOutreachRepo
	sender    *fakeSender
	provider  *domain.Provider
	contact   *domain.Contact
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	provider := domain.NewProvider("Lakeside Imaging")
	provider.Specialty = "Radiology"
	contact := domain.NewContact(provider.ID, "Dr. Jones")
	contact.Email = "dr.jones@clinic.example"

	providers := &fakeProviderRepo{
		providers: map[string]*domain.Provider{provider.ID: provider},
		statuses:  make(map[string]domain.ProviderStatus),
	}
	contacts := &fakeContactRepo{contacts: map[string]*domain.Contact{contact.ID: contact}}
	outreach := &fakeOutreachRepo{}
	sender := &fakeSender{}

	reg, err := templates.Load("")
	if err != nil {
		t.Fatal(err)
	}

	return &fixture{
		svc:       NewService(providers, contacts, outreach, sender, reg, zerolog.Nop()),
		providers: providers,
		contacts:  contacts,
		outreach:  outreach,
		sender:    sender,
		provider:  provider,
		contact:   contact,
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestSendSuccess(t *testing.T) {
	f := newFixture(t)
	f.sender.result = &out.DeliveryResult{
		Status:         out.DeliverySuccess,
		Message:        "Email sent successfully",
		MessageID:      "msg-1",
		ConversationID: "conv-1",
	}

	outcome, err := f.svc.Send(context.Background(), &portin.SendOutreachInput{
		ProviderID: f.provider.ID,
		ContactID:  f.contact.ID,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if outcome.OutreachID == "" {
		t.Error("expected outreach record id")
	}

	if f.sender.lastReq.To != "dr.jones@clinic.example" {
		t.Errorf("recipient = %s", f.sender.lastReq.To)
	}
	if !strings.Contains(f.sender.lastReq.Subject, "Lakeside Imaging") {
		t.Errorf("subject = %q", f.sender.lastReq.Subject)
	}

	if len(f.outreach.created) != 1 {
		t.Fatalf("created %d records, want 1", len(f.outreach.created))
	}
	rec := f.outreach.created[0]
	if rec.Status != domain.OutreachSent {
		t.Errorf("status = %s, want sent", rec.Status)
	}
	if rec.MessageID != "msg-1" || rec.ConversationID != "conv-1" {
		t.Errorf("tracking = (%s, %s)", rec.MessageID, rec.ConversationID)
	}
	if f.providers.statuses[f.provider.ID] != domain.ProviderOutreach {
		t.Error("provider status not advanced to outreach")
	}
}

func TestSendWithoutTrackingIDs(t *testing.T) {
	f := newFixture(t)
	// Backend succeeded but the sent-items lookup did not recover ids.
	f.sender.result = &out.DeliveryResult{Status: out.DeliverySuccess, Message: "Email sent successfully"}

	if _, err := f.svc.Send(context.Background(), &portin.SendOutreachInput{
		ProviderID: f.provider.ID,
		ContactID:  f.contact.ID,
	}); err != nil {
		t.Fatal(err)
	}

	rec := f.outreach.created[0]
	if rec.ConversationID != "" || rec.MessageID != "" {
		t.Error("untracked send must not store tracking ids")
	}
	if rec.EligibleForReplyCheck() {
		t.Error("untracked record must not be sweep-eligible")
	}
}

func TestSendDeliveryFailure(t *testing.T) {
	f := newFixture(t)
	f.sender.result = &out.DeliveryResult{Status: out.DeliveryError, Message: "failed to send email: 503"}

	outcome, err := f.svc.Send(context.Background(), &portin.SendOutreachInput{
		ProviderID: f.provider.ID,
		ContactID:  f.contact.ID,
	})
	if err != nil {
		t.Fatalf("transport failure must not be an error: %v", err)
	}
	if outcome.Result.Status != out.DeliveryError {
		t.Error("expected error result")
	}
	if outcome.OutreachID != "" {
		t.Error("failed send must not create an outreach record")
	}
	if len(f.outreach.created) != 0 {
		t.Error("failed send persisted a record")
	}
	if _, ok := f.providers.statuses[f.provider.ID]; ok {
		t.Error("failed send must not advance provider status")
	}
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		input *portin.SendOutreachInput
	}{
		{"missing provider id", &portin.SendOutreachInput{ContactID: f.contact.ID}},
		{"missing contact id", &portin.SendOutreachInput{ProviderID: f.provider.ID}},
		{"unknown provider", &portin.SendOutreachInput{ProviderID: "nope", ContactID: f.contact.ID}},
		{"unknown contact", &portin.SendOutreachInput{ProviderID: f.provider.ID, ContactID: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Send(context.Background(), tt.input); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSendRejectsForeignContact(t *testing.T) {
	f := newFixture(t)
	other := domain.NewContact("other-provider", "Dr. Smith")
	other.Email = "dr.smith@elsewhere.example"
	f.contacts.contacts[other.ID] = other

	_, err := f.svc.Send(context.Background(), &portin.SendOutreachInput{
		ProviderID: f.provider.ID,
		ContactID:  other.ID,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Send = %v, want ErrNotFound for contact of another provider", err)
	}
}

func TestSendRequiresContactEmail(t *testing.T) {
	f := newFixture(t)
	f.contact.Email = ""

	if _, err := f.svc.Send(context.Background(), &portin.SendOutreachInput{
		ProviderID: f.provider.ID,
		ContactID:  f.contact.ID,
	}); err == nil {
		t.Error("expected error for contact without email")
	}
}
