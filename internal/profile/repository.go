package profile

import (
	"context"
	"errors"
	"log"
	"sync"
)

var ErrNotFound = errors.New("profile not found")

// Store is the optional persistence hook behind the repository. A nil store
// keeps the repository purely in-memory.
type Store interface {
	SaveProfile(ctx context.Context, p Profile) error
	DeleteProfile(ctx context.Context, userID string) error
	ListProfiles(ctx context.Context) ([]Profile, error)
	Close()
}

// Repository holds at most one committed profile per operator. Save
// overwrites, Delete removes. The in-memory map is the source of truth;
// store failures are logged and do not fail the operation.
type Repository struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	store    Store
}

func NewRepository(store Store) *Repository {
	return &Repository{
		profiles: make(map[string]Profile),
		store:    store,
	}
}

// Hydrate loads previously persisted profiles, when a store is configured.
func (r *Repository) Hydrate(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	loaded, err := r.store.ListProfiles(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range loaded {
		r.profiles[p.UserID] = p.Clone()
	}
	return nil
}

func (r *Repository) Save(ctx context.Context, p Profile) {
	r.mu.Lock()
	r.profiles[p.UserID] = p.Clone()
	store := r.store
	r.mu.Unlock()

	if store != nil {
		if err := store.SaveProfile(ctx, p); err != nil {
			log.Printf("profile store save failed for %s: %v", p.UserID, err)
		}
	}
}

func (r *Repository) Get(userID string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p.Clone(), nil
}

func (r *Repository) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	_, ok := r.profiles[userID]
	if ok {
		delete(r.profiles, userID)
	}
	store := r.store
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	if store != nil {
		if err := store.DeleteProfile(ctx, userID); err != nil {
			log.Printf("profile store delete failed for %s: %v", userID, err)
		}
	}
	return nil
}

func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}
