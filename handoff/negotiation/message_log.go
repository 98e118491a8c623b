package negotiation

import (
	"crypto/rand"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const localIDPrefix = "local-"

// newProposalID mints a time-ordered client-side id for optimistic
// proposals and messages.
func newProposalID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}

// DefaultConfirmWindow bounds how long an optimistic message may stay in
// "sending" before it is demoted to failed.
const DefaultConfirmWindow = 30 * time.Second

// MessageLog is the append-only per-conversation chat log with the transient
// delivery-status overlay. Locally created messages carry a temporary
// time-ordered id until the authoritative feed returns the server copy.
type MessageLog struct {
	mu            sync.Mutex
	messages      []*Message
	pendingSince  map[string]time.Time
	confirmWindow time.Duration
}

func NewMessageLog(confirmWindow time.Duration) *MessageLog {
	if confirmWindow <= 0 {
		confirmWindow = DefaultConfirmWindow
	}
	return &MessageLog{
		pendingSince:  make(map[string]time.Time),
		confirmWindow: confirmWindow,
	}
}

// Append adds an optimistic local message in "sending" state and returns it.
func (l *MessageLog) Append(text string, now time.Time) *Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := &Message{
		ID:         localIDPrefix + ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Text:       text,
		SentAt:     now,
		IsFromUser: true,
		Delivery:   DeliverySending,
	}
	l.messages = append(l.messages, msg)
	l.pendingSince[msg.ID] = now
	return msg
}

// MarkFailed demotes a message after a failed send. Failed messages stay in
// the log for user visibility and are excluded from auto-retry; the user
// resends explicitly, producing a new message with a new temporary id.
func (l *MessageLog) MarkFailed(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, msg := range l.messages {
		if msg.ID == id {
			msg.Delivery = DeliveryFailed
			delete(l.pendingSince, id)
			return
		}
	}
}

// Merge reconciles the authoritative feed into the log. Remote messages are
// deduplicated by id and their timestamps win. A local "sending" message is
// replaced by its server copy when one matches (same text, same direction);
// otherwise it stays in flight until the confirmation window elapses, at
// which point it flips to failed.
func (l *MessageLog) Merge(remote []*Message, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	byID := make(map[string]*Message, len(l.messages))
	for _, msg := range l.messages {
		byID[msg.ID] = msg
	}

	claimed := make(map[string]bool)
	for _, rm := range remote {
		if existing, ok := byID[rm.ID]; ok {
			existing.Text = rm.Text
			existing.SentAt = rm.SentAt
			existing.IsFromUser = rm.IsFromUser
			existing.Delivery = DeliveryNone
			delete(l.pendingSince, rm.ID)
			continue
		}

		if local := l.matchPending(rm, claimed); local != nil {
			claimed[local.ID] = true
			delete(l.pendingSince, local.ID)
			local.ID = rm.ID
			local.SentAt = rm.SentAt
			local.Delivery = DeliveryNone
			byID[rm.ID] = local
			continue
		}

		msg := &Message{
			ID:         rm.ID,
			Text:       rm.Text,
			SentAt:     rm.SentAt,
			IsFromUser: rm.IsFromUser,
			Delivery:   DeliveryNone,
		}
		l.messages = append(l.messages, msg)
		byID[msg.ID] = msg
	}

	for id, since := range l.pendingSince {
		if now.Sub(since) > l.confirmWindow {
			if msg := byID[id]; msg != nil {
				msg.Delivery = DeliveryFailed
			}
			delete(l.pendingSince, id)
		}
	}

	l.sortLocked()
}

// matchPending finds an unconfirmed local message that the remote copy
// plausibly is: same direction, same text, not already claimed this merge.
func (l *MessageLog) matchPending(rm *Message, claimed map[string]bool) *Message {
	if !rm.IsFromUser {
		return nil
	}
	for _, msg := range l.messages {
		if claimed[msg.ID] {
			continue
		}
		if _, pending := l.pendingSince[msg.ID]; !pending {
			continue
		}
		if msg.IsFromUser && msg.Text == rm.Text {
			return msg
		}
	}
	return nil
}

// Messages returns the log ordered by sentAt ascending, ties broken by
// arrival order.
func (l *MessageLog) Messages() []*Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*Message, len(l.messages))
	for i, msg := range l.messages {
		copied := *msg
		out[i] = &copied
	}
	return out
}

func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

func (l *MessageLog) sortLocked() {
	sort.SliceStable(l.messages, func(i, j int) bool {
		return l.messages[i].SentAt.Before(l.messages[j].SentAt)
	})
}
