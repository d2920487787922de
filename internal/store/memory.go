package store

import (
	"context"
	"sync"
	"time"

	"github.com/iurnickita/clarsix/internal/store/config"
)

type memoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]Session
}

func newMemoryStore(cfg config.Config) *memoryStore {
	return &memoryStore{
		ttl:      cfg.SessionTTL,
		sessions: make(map[string]Session),
	}
}

func (store *memoryStore) SessionPut(_ context.Context, session Session) error {
	if err := validate(session); err != nil {
		return err
	}
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = time.Now().Add(store.ttl)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	store.sessions[session.ID] = session
	return nil
}

func (store *memoryStore) SessionGet(_ context.Context, id string) (Session, error) {
	store.mu.RLock()
	session, ok := store.sessions[id]
	store.mu.RUnlock()
	if !ok {
		return Session{}, ErrNoRows
	}
	if session.expired(time.Now()) {
		store.mu.Lock()
		delete(store.sessions, id)
		store.mu.Unlock()
		return Session{}, ErrNoRows
	}
	return session, nil
}

func (store *memoryStore) SessionDelete(_ context.Context, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.sessions, id)
	return nil
}

func (store *memoryStore) Close() error {
	return nil
}
