// Package store is the client-local offline cache: the last committed read
// model per negotiation plus the confirmed chat log, kept in sqlite through
// bun. Everything here is best-effort; the engine never blocks on it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/handoffapp/handoff/handoff/negotiation"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// NewDB opens (or creates) the local cache database.
func NewDB(path string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

type SnapshotRepository interface {
	InitializeTables(ctx context.Context) error
	SaveSnapshot(ctx context.Context, rm negotiation.ReadModel) error
	LoadSnapshot(ctx context.Context, negotiationID string) (*negotiation.ReadModel, error)
	SaveMessages(ctx context.Context, listingID string, msgs []*negotiation.Message) error
	LoadMessages(ctx context.Context, listingID string) ([]*negotiation.Message, error)
}

type snapshotRepository struct {
	db *bun.DB
}

func NewSnapshotRepository(db *bun.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) InitializeTables(ctx context.Context) error {
	if _, err := r.db.NewCreateTable().
		Model((*NegotiationSnapshot)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create snapshots table: %w", err)
	}

	if _, err := r.db.NewCreateTable().
		Model((*CachedMessage)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create messages table: %w", err)
	}

	if _, err := r.db.NewCreateIndex().
		Model((*CachedMessage)(nil)).
		Index("idx_cached_messages_listing_id").
		Column("listing_id").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create listing_id index: %w", err)
	}

	return nil
}

func (r *snapshotRepository) SaveSnapshot(ctx context.Context, rm negotiation.ReadModel) error {
	payload, err := json.Marshal(rm)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	snapshot := &NegotiationSnapshot{
		NegotiationID: rm.NegotiationID,
		ListingID:     rm.ListingID,
		Status:        string(rm.Status),
		Payload:       payload,
		UpdatedAt:     time.Now(),
	}

	_, err = r.db.NewInsert().
		Model(snapshot).
		On("CONFLICT (negotiation_id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepository) LoadSnapshot(ctx context.Context, negotiationID string) (*negotiation.ReadModel, error) {
	snapshot := new(NegotiationSnapshot)
	err := r.db.NewSelect().
		Model(snapshot).
		Where("negotiation_id = ?", negotiationID).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var rm negotiation.ReadModel
	if err := json.Unmarshal(snapshot.Payload, &rm); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &rm, nil
}

func (r *snapshotRepository) SaveMessages(ctx context.Context, listingID string, msgs []*negotiation.Message) error {
	rows := make([]*CachedMessage, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Delivery != negotiation.DeliveryNone {
			continue
		}
		rows = append(rows, &CachedMessage{
			ID:         msg.ID,
			ListingID:  listingID,
			Text:       msg.Text,
			SentAt:     msg.SentAt,
			IsFromUser: msg.IsFromUser,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	_, err := r.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("text = EXCLUDED.text").
		Set("sent_at = EXCLUDED.sent_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to cache messages: %w", err)
	}
	return nil
}

func (r *snapshotRepository) LoadMessages(ctx context.Context, listingID string) ([]*negotiation.Message, error) {
	var rows []*CachedMessage
	err := r.db.NewSelect().
		Model(&rows).
		Where("listing_id = ?", listingID).
		Order("sent_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cached messages: %w", err)
	}

	msgs := make([]*negotiation.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, &negotiation.Message{
			ID:         row.ID,
			Text:       row.Text,
			SentAt:     row.SentAt,
			IsFromUser: row.IsFromUser,
		})
	}
	return msgs, nil
}
