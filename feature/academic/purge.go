package academic

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"records-manager/core/reconcile"

	"github.com/google/uuid"
)

var (
	// ErrPurgeNotFound is returned for unknown, used or expired purge tokens.
	ErrPurgeNotFound = errors.New("purge request not found or expired")
	// ErrPurgeNotConfirmable is returned when a purge request exists but may not be
	// confirmed yet, or not by this actor.
	ErrPurgeNotConfirmable = errors.New("purge request cannot be confirmed")
)

// PurgeTicket is a pending request to delete every record of one kind.
type PurgeTicket struct {
	Token         string               `json:"token"`
	Kind          reconcile.EntityKind `json:"kind"`
	Count         int64                `json:"count"`
	RequestedBy   string               `json:"requested_by"`
	RequestedAt   time.Time            `json:"requested_at"`
	ConfirmableAt time.Time            `json:"confirmable_at"`
	ExpiresAt     time.Time            `json:"expires_at"`
}

// PurgeGuard enforces the two-person rule on purges: one actor requests, a
// different actor confirms with the issued token once the cooldown has passed
// and before the request expires. Tokens are single use.
type PurgeGuard struct {
	cooldown time.Duration
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	tickets map[string]PurgeTicket
}

// NewPurgeGuard creates a guard. A non-positive ttl defaults to ten minutes.
func NewPurgeGuard(cooldown, ttl time.Duration) *PurgeGuard {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if cooldown < 0 {
		cooldown = 0
	}
	return &PurgeGuard{
		cooldown: cooldown,
		ttl:      ttl,
		now:      time.Now,
		tickets:  make(map[string]PurgeTicket),
	}
}

// Request issues a ticket for purging kind.
func (g *PurgeGuard) Request(kind reconcile.EntityKind, actor string, count int64) PurgeTicket {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.expireLocked(now)
	t := PurgeTicket{
		Token:         uuid.NewString(),
		Kind:          kind,
		Count:         count,
		RequestedBy:   actor,
		RequestedAt:   now,
		ConfirmableAt: now.Add(g.cooldown),
		ExpiresAt:     now.Add(g.ttl),
	}
	g.tickets[t.Token] = t
	return t
}

// Confirm redeems token for actor. A refused confirmation leaves the ticket in place.
func (g *PurgeGuard) Confirm(token, actor string) (PurgeTicket, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.expireLocked(now)
	t, ok := g.tickets[token]
	if !ok {
		return PurgeTicket{}, ErrPurgeNotFound
	}
	if actor == t.RequestedBy {
		return PurgeTicket{}, fmt.Errorf("%w: it must be confirmed by someone other than %s", ErrPurgeNotConfirmable, t.RequestedBy)
	}
	if now.Before(t.ConfirmableAt) {
		return PurgeTicket{}, fmt.Errorf("%w: wait %s before confirming", ErrPurgeNotConfirmable, t.ConfirmableAt.Sub(now).Round(time.Second))
	}
	delete(g.tickets, token)
	return t, nil
}

// Pending returns the open tickets, oldest first.
func (g *PurgeGuard) Pending() []PurgeTicket {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.expireLocked(g.now())
	out := make([]PurgeTicket, 0, len(g.tickets))
	for _, t := range g.tickets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out
}

func (g *PurgeGuard) expireLocked(now time.Time) {
	for token, t := range g.tickets {
		if !now.Before(t.ExpiresAt) {
			delete(g.tickets, token)
		}
	}
}
