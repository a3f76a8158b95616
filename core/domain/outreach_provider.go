package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Provider & Contact
// =============================================================================

type ProviderStatus string

const (
	ProviderPending    ProviderStatus = "pending"
	ProviderOutreach   ProviderStatus = "outreach"
	ProviderContracted ProviderStatus = "contracted"
	ProviderDeclined   ProviderStatus = "declined"
)

// Provider is a healthcare provider organization being recruited.
type Provider struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	DBAName          string         `json:"dba_name,omitempty"`
	Address          string         `json:"address,omitempty"`
	ProviderType     string         `json:"provider_type,omitempty"` // imaging, EMG, ...
	StatesInContract string         `json:"states_in_contract,omitempty"`
	NPI              string         `json:"npi,omitempty"`
	Specialty        string         `json:"specialty,omitempty"`
	Status           ProviderStatus `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
}

// NewProvider creates a provider in pending status.
func NewProvider(name string) *Provider {
	return &Provider{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    ProviderPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Contact is one person at a provider.
type Contact struct {
	ID                     string    `json:"id"`
	ProviderID             string    `json:"provider_id"`
	Name                   string    `json:"name"`
	Email                  string    `json:"email,omitempty"`
	Phone                  string    `json:"phone,omitempty"`
	Title                  string    `json:"title,omitempty"`
	PreferredContactMethod string    `json:"preferred_contact_method,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}

// NewContact creates a contact for a provider.
func NewContact(providerID, name string) *Contact {
	return &Contact{
		ID:         uuid.NewString(),
		ProviderID: providerID,
		Name:       name,
		CreatedAt:  time.Now().UTC(),
	}
}
