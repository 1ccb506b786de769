package listing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/beacon-bot/beacon/internal/gateway"
	"github.com/beacon-bot/beacon/internal/profile"
)

var (
	// ErrConflict is returned when the operator already holds a live listing.
	ErrConflict = errors.New("an active listing already exists")
	ErrNotFound = errors.New("listing not found")
)

// Listing is one published, time-bounded broadcast of a profile.
type Listing struct {
	UserID     string        `json:"user_id"`
	MessageRef string        `json:"message_ref"`
	CreatedAt  time.Time     `json:"created_at"`
	ExpiresAt  time.Time     `json:"expires_at"`
	Duration   time.Duration `json:"duration"`
}

// Registry holds at most one active listing per operator. The scheduler is
// the primary retraction path; Active additionally evicts anything already
// past its deadline as a defensive double-cleanup.
type Registry struct {
	mu       sync.Mutex
	listings map[string]Listing
	outbound gateway.Outbound
	channel  string
	now      func() time.Time
}

func NewRegistry(outbound gateway.Outbound, channel string) *Registry {
	return &Registry{
		listings: make(map[string]Listing),
		outbound: outbound,
		channel:  channel,
		now:      time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Publish renders the profile, sends it to the broadcast channel and stores
// the resulting listing. Nothing is stored when the send fails. A still-live
// listing for the same operator yields ErrConflict.
func (r *Registry) Publish(ctx context.Context, p profile.Profile, d time.Duration) (Listing, error) {
	r.mu.Lock()
	now := r.now()
	if existing, ok := r.listings[p.UserID]; ok {
		if existing.ExpiresAt.After(now) {
			r.mu.Unlock()
			return Listing{}, ErrConflict
		}
		// Expired but not yet retracted; evict so the new publish proceeds.
		delete(r.listings, p.UserID)
	}
	r.mu.Unlock()

	createdAt := now
	expiresAt := createdAt.Add(d)
	content := FormatListing(p, createdAt, expiresAt)

	ref, err := r.outbound.Send(ctx, r.channel, content)
	if err != nil {
		return Listing{}, fmt.Errorf("%w: %v", gateway.ErrDelivery, err)
	}

	l := Listing{
		UserID:     p.UserID,
		MessageRef: ref,
		CreatedAt:  createdAt,
		ExpiresAt:  expiresAt,
		Duration:   d,
	}
	r.mu.Lock()
	r.listings[p.UserID] = l
	r.mu.Unlock()
	return l, nil
}

// Active returns every listing still inside its validity window, ordered by
// creation time. Listings at or past their deadline are lazily evicted.
func (r *Registry) Active(now time.Time) []Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Listing, 0, len(r.listings))
	for userID, l := range r.listings {
		if l.ExpiresAt.After(now) {
			out = append(out, l)
		} else {
			delete(r.listings, userID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Get returns the operator's listing regardless of expiry.
func (r *Registry) Get(userID string) (Listing, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[userID]
	return l, ok
}

// Remove drops the operator's listing entry. It does not touch the broadcast
// message; the caller decides whether a retraction was already attempted.
func (r *Registry) Remove(userID string) (Listing, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[userID]
	if ok {
		delete(r.listings, userID)
	}
	return l, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listings)
}
