package out

import (
	"context"
	"time"

	"outreach_server/core/domain"
)

// OutreachFilter selects outreach records for listing and sweeps.
type OutreachFilter struct {
	Method            domain.OutreachMethod
	HasConversationID bool
	CreatedAfter      time.Time
	Limit             int
}

// OutreachRepository persists outreach records.
type OutreachRepository interface {
	Create(ctx context.Context, rec *domain.OutreachRecord) error
	Update(ctx context.Context, rec *domain.OutreachRecord) error
	GetByID(ctx context.Context, id string) (*domain.OutreachRecord, error)
	List(ctx context.Context, filter OutreachFilter) ([]*domain.OutreachRecord, error)
	Delete(ctx context.Context, id string) error
}

// ProviderRepository persists providers.
type ProviderRepository interface {
	Create(ctx context.Context, p *domain.Provider) error
	GetByID(ctx context.Context, id string) (*domain.Provider, error)
	List(ctx context.Context) ([]*domain.Provider, error)
	UpdateStatus(ctx context.Context, id string, status domain.ProviderStatus) error
	Delete(ctx context.Context, id string) error
}

// ContactRepository persists provider contacts.
type ContactRepository interface {
	Create(ctx context.Context, c *domain.Contact) error
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	ListByProvider(ctx context.Context, providerID string) ([]*domain.Contact, error)
	Delete(ctx context.Context, id string) error
}
