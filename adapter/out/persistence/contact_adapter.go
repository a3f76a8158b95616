package persistence

import (
	"context"
	"database/sql"
	"time"

	"outreach_server/core/domain"
	"outreach_server/core/port/out"

	"github.com/jmoiron/sqlx"
)

// =============================================================================
// ContactAdapter
// =============================================================================

type ContactAdapter struct {
	db *sqlx.DB
}

func NewContactAdapter(db *sqlx.DB) *ContactAdapter {
	return &ContactAdapter{db: db}
}

// =============================================================================
// Entity
// =============================================================================

type contactEntity struct {
	ID                     string         `db:"id"`
	ProviderID             string         `db:"provider_id"`
	Name                   string         `db:"name"`
	Email                  sql.NullString `db:"email"`
	Phone                  sql.NullString `db:"phone"`
	Title                  sql.NullString `db:"title"`
	PreferredContactMethod sql.NullString `db:"preferred_contact_method"`
	CreatedAt              time.Time      `db:"created_at"`
}

func (e *contactEntity) toDomain() *domain.Contact {
	c := &domain.Contact{
		ID:         e.ID,
		ProviderID: e.ProviderID,
		Name:       e.Name,
		CreatedAt:  e.CreatedAt.UTC(),
	}
	if e.Email.Valid {
		c.Email = e.Email.String
	}
	if e.Phone.Valid {
		c.Phone = e.Phone.String
	}
	if e.Title.Valid {
		c.Title = e.Title.String
	}
	if e.PreferredContactMethod.Valid {
		c.PreferredContactMethod = e.PreferredContactMethod.String
	}
	return c
}

// =============================================================================
// CRUD
// =============================================================================

func (a *ContactAdapter) Create(ctx context.Context, c *domain.Contact) error {
	query := `
		INSERT INTO contacts (
			id, provider_id, name, email, phone, title,
			preferred_contact_method, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := a.db.ExecContext(ctx, query,
		c.ID,
		c.ProviderID,
		c.Name,
		toNullableString(c.Email),
		toNullableString(c.Phone),
		toNullableString(c.Title),
		toNullableString(c.PreferredContactMethod),
		c.CreatedAt,
	)
	return err
}

func (a *ContactAdapter) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	var entity contactEntity
	query := `SELECT * FROM contacts WHERE id = $1`
	if err := a.db.GetContext(ctx, &entity, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return entity.toDomain(), nil
}

func (a *ContactAdapter) ListByProvider(ctx context.Context, providerID string) ([]*domain.Contact, error) {
	var entities []contactEntity
	query := `SELECT * FROM contacts WHERE provider_id = $1 ORDER BY created_at ASC`
	if err := a.db.SelectContext(ctx, &entities, query, providerID); err != nil {
		return nil, err
	}

	contacts := make([]*domain.Contact, len(entities))
	for i := range entities {
		contacts[i] = entities[i].toDomain()
	}
	return contacts, nil
}

func (a *ContactAdapter) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM contacts WHERE id = $1`
	_, err := a.db.ExecContext(ctx, query, id)
	return err
}

var _ out.ContactRepository = (*ContactAdapter)(nil)
