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
// ProviderAdapter
// =============================================================================

type ProviderAdapter struct {
	db *sqlx.DB
}

func NewProviderAdapter(db *sqlx.DB) *ProviderAdapter {
	return &ProviderAdapter{db: db}
}

// =============================================================================
// Entity
// =============================================================================

type providerEntity struct {
	ID               string         `db:"id"`
	Name             string         `db:"name"`
	DBAName          sql.NullString `db:"dba_name"`
	Address          sql.NullString `db:"address"`
	ProviderType     sql.NullString `db:"provider_type"`
	StatesInContract sql.NullString `db:"states_in_contract"`
	NPI              sql.NullString `db:"npi"`
	Specialty        sql.NullString `db:"specialty"`
	Status           string         `db:"status"`
	CreatedAt        time.Time      `db:"created_at"`
}

func (e *providerEntity) toDomain() *domain.Provider {
	p := &domain.Provider{
		ID:        e.ID,
		Name:      e.Name,
		Status:    domain.ProviderStatus(e.Status),
		CreatedAt: e.CreatedAt.UTC(),
	}
	if e.DBAName.Valid {
		p.DBAName = e.DBAName.String
	}
	if e.Address.Valid {
		p.Address = e.Address.String
	}
	if e.ProviderType.Valid {
		p.ProviderType = e.ProviderType.String
	}
	if e.StatesInContract.Valid {
		p.StatesInContract = e.StatesInContract.String
	}
	if e.NPI.Valid {
		p.NPI = e.NPI.String
	}
	if e.Specialty.Valid {
		p.Specialty = e.Specialty.String
	}
	return p
}

// =============================================================================
// CRUD
// =============================================================================

func (a *ProviderAdapter) Create(ctx context.Context, p *domain.Provider) error {
	query := `
		INSERT INTO providers (
			id, name, dba_name, address, provider_type,
			states_in_contract, npi, specialty, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := a.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		toNullableString(p.DBAName),
		toNullableString(p.Address),
		toNullableString(p.ProviderType),
		toNullableString(p.StatesInContract),
		toNullableString(p.NPI),
		toNullableString(p.Specialty),
		string(p.Status),
		p.CreatedAt,
	)
	return err
}

func (a *ProviderAdapter) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	var entity providerEntity
	query := `SELECT * FROM providers WHERE id = $1`
	if err := a.db.GetContext(ctx, &entity, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return entity.toDomain(), nil
}

func (a *ProviderAdapter) List(ctx context.Context) ([]*domain.Provider, error) {
	var entities []providerEntity
	query := `SELECT * FROM providers ORDER BY created_at DESC`
	if err := a.db.SelectContext(ctx, &entities, query); err != nil {
		return nil, err
	}

	providers := make([]*domain.Provider, len(entities))
	for i := range entities {
		providers[i] = entities[i].toDomain()
	}
	return providers, nil
}

func (a *ProviderAdapter) UpdateStatus(ctx context.Context, id string, status domain.ProviderStatus) error {
	query := `UPDATE providers SET status = $1 WHERE id = $2`
	_, err := a.db.ExecContext(ctx, query, string(status), id)
	return err
}

func (a *ProviderAdapter) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM providers WHERE id = $1`
	_, err := a.db.ExecContext(ctx, query, id)
	return err
}

var _ out.ProviderRepository = (*ProviderAdapter)(nil)
