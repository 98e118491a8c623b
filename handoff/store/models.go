package store

import (
	"time"

	"github.com/uptrace/bun"
)

// NegotiationSnapshot is the last-known-good read model for one negotiation,
// serialized so a re-opened view can render before the first poll lands.
type NegotiationSnapshot struct {
	bun.BaseModel `bun:"table:negotiation_snapshots,alias:ns"`

	ID            int64     `bun:"id,pk,autoincrement"`
	NegotiationID string    `bun:"negotiation_id,notnull,unique"`
	ListingID     string    `bun:"listing_id,notnull"`
	Status        string    `bun:"status,notnull"`
	Payload       []byte    `bun:"payload,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

// CachedMessage is one confirmed chat message kept for offline display.
// Optimistic messages (sending/failed) are never cached.
type CachedMessage struct {
	bun.BaseModel `bun:"table:cached_messages,alias:cm"`

	ID         string    `bun:"id,pk"`
	ListingID  string    `bun:"listing_id,notnull"`
	Text       string    `bun:"text,notnull"`
	SentAt     time.Time `bun:"sent_at,notnull"`
	IsFromUser bool      `bun:"is_from_user,notnull"`
}
