package persistence

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"outreach_server/core/domain"
	"outreach_server/core/port/out"

	"github.com/jmoiron/sqlx"
)

// =============================================================================
// OutreachAdapter
// =============================================================================

type OutreachAdapter struct {
	db *sqlx.DB
}

func NewOutreachAdapter(db *sqlx.DB) *OutreachAdapter {
	return &OutreachAdapter{db: db}
}

// =============================================================================
// Entity
// =============================================================================

type outreachEntity struct {
	ID         string         `db:"id"`
	ProviderID string         `db:"provider_id"`
	ContactID  sql.NullString `db:"contact_id"`

	Method string         `db:"method"`
	Type   string         `db:"type"`
	Notes  sql.NullString `db:"notes"`
	Status string         `db:"status"`

	CreatedAt   time.Time    `db:"created_at"`
	CompletedAt sql.NullTime `db:"completed_at"`

	MessageID      sql.NullString `db:"message_id"`
	ConversationID sql.NullString `db:"conversation_id"`

	ReplyReceived    bool           `db:"reply_received"`
	ReplyCount       int            `db:"reply_count"`
	ReplyStatus      string         `db:"reply_status"`
	LastReplyDate    sql.NullTime   `db:"last_reply_date"`
	ReplySenderEmail sql.NullString `db:"reply_sender_email"`
	ReplyPreview     sql.NullString `db:"reply_preview"`
}

func (e *outreachEntity) toDomain() *domain.OutreachRecord {
	rec := &domain.OutreachRecord{
		ID:            e.ID,
		ProviderID:    e.ProviderID,
		Method:        domain.OutreachMethod(e.Method),
		Type:          domain.OutreachType(e.Type),
		Status:        domain.OutreachStatus(e.Status),
		CreatedAt:     e.CreatedAt.UTC(),
		ReplyReceived: e.ReplyReceived,
		ReplyCount:    e.ReplyCount,
		ReplyStatus:   domain.ReplyStatus(e.ReplyStatus),
	}

	if e.ContactID.Valid {
		rec.ContactID = e.ContactID.String
	}
	if e.Notes.Valid {
		rec.Notes = e.Notes.String
	}
	if e.CompletedAt.Valid {
		rec.CompletedAt = e.CompletedAt.Time.UTC()
	}
	if e.MessageID.Valid {
		rec.MessageID = e.MessageID.String
	}
	if e.ConversationID.Valid {
		rec.ConversationID = e.ConversationID.String
	}
	if e.LastReplyDate.Valid {
		rec.LastReplyDate = e.LastReplyDate.Time.UTC()
	}
	if e.ReplySenderEmail.Valid {
		rec.ReplySenderEmail = e.ReplySenderEmail.String
	}
	if e.ReplyPreview.Valid {
		rec.ReplyPreview = e.ReplyPreview.String
	}

	return rec
}

// =============================================================================
// CRUD
// =============================================================================

func (a *OutreachAdapter) Create(ctx context.Context, rec *domain.OutreachRecord) error {
	query := `
		INSERT INTO outreach (
			id, provider_id, contact_id, method, type, notes, status,
			created_at, message_id, conversation_id,
			reply_received, reply_count, reply_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := a.db.ExecContext(ctx, query,
		rec.ID,
		rec.ProviderID,
		toNullableString(rec.ContactID),
		string(rec.Method),
		string(rec.Type),
		toNullableString(rec.Notes),
		string(rec.Status),
		rec.CreatedAt,
		toNullableString(rec.MessageID),
		toNullableString(rec.ConversationID),
		rec.ReplyReceived,
		rec.ReplyCount,
		string(rec.ReplyStatus),
	)
	return err
}

func (a *OutreachAdapter) Update(ctx context.Context, rec *domain.OutreachRecord) error {
	query := `
		UPDATE outreach SET
			status = $1,
			notes = $2,
			completed_at = $3,
			message_id = $4,
			conversation_id = $5,
			reply_received = $6,
			reply_count = $7,
			reply_status = $8,
			last_reply_date = $9,
			reply_sender_email = $10,
			reply_preview = $11
		WHERE id = $12
	`
	_, err := a.db.ExecContext(ctx, query,
		string(rec.Status),
		toNullableString(rec.Notes),
		toNullableTime(rec.CompletedAt),
		toNullableString(rec.MessageID),
		toNullableString(rec.ConversationID),
		rec.ReplyReceived,
		rec.ReplyCount,
		string(rec.ReplyStatus),
		toNullableTime(rec.LastReplyDate),
		toNullableString(rec.ReplySenderEmail),
		toNullableString(rec.ReplyPreview),
		rec.ID,
	)
	return err
}

func (a *OutreachAdapter) GetByID(ctx context.Context, id string) (*domain.OutreachRecord, error) {
	var entity outreachEntity
	query := `SELECT * FROM outreach WHERE id = $1`
	if err := a.db.GetContext(ctx, &entity, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return entity.toDomain(), nil
}

func (a *OutreachAdapter) List(ctx context.Context, filter out.OutreachFilter) ([]*domain.OutreachRecord, error) {
	query := `SELECT * FROM outreach WHERE 1=1`
	args := []interface{}{}

	if filter.Method != "" {
		args = append(args, string(filter.Method))
		query += ` AND method = $` + strconv.Itoa(len(args))
	}
	if filter.HasConversationID {
		query += ` AND conversation_id IS NOT NULL AND conversation_id != ''`
	}
	if !filter.CreatedAfter.IsZero() {
		args = append(args, filter.CreatedAfter)
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	var entities []outreachEntity
	if err := a.db.SelectContext(ctx, &entities, query, args...); err != nil {
		return nil, err
	}

	records := make([]*domain.OutreachRecord, len(entities))
	for i := range entities {
		records[i] = entities[i].toDomain()
	}
	return records, nil
}

func (a *OutreachAdapter) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM outreach WHERE id = $1`
	_, err := a.db.ExecContext(ctx, query, id)
	return err
}

var _ out.OutreachRepository = (*OutreachAdapter)(nil)
