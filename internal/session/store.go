// Package session owns the client's credential and identity. It keeps the
// in-memory copy, the durable slots and every subscriber in step.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wolfeidau/storefront/internal/logger"
	"github.com/wolfeidau/storefront/internal/models"
	"github.com/wolfeidau/storefront/internal/storage"
)

// ErrEmptyCredential is returned when a session is set without a credential.
var ErrEmptyCredential = errors.New("session: empty credential")

// Listener is notified with a copy of the session after every change.
type Listener func(models.Session)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// Store is the reactive credential store.
type Store struct {
	durable storage.Storage
	log     zerolog.Logger

	mu      sync.RWMutex
	current models.Session

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

// New creates a store persisting to durable. A nil durable storage behaves
// like storage.Unavailable.
func New(durable storage.Storage, opts ...Option) *Store {
	if durable == nil {
		durable = storage.Unavailable{}
	}

	s := &Store{
		durable:   durable,
		log:       zerolog.Nop(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Durable returns the storage backing the store.
func (s *Store) Durable() storage.Storage {
	return s.durable
}

// SetSession replaces the identity and credential, persists them and notifies
// listeners. Persistence failures are logged and otherwise ignored, the
// session then only lives until the process exits.
func (s *Store) SetSession(user *models.User, token string) error {
	if token == "" {
		return ErrEmptyCredential
	}
	if err := user.Validate(); err != nil {
		return err
	}

	next := models.Session{User: user.Clone(), Token: token}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.persist(next)

	s.log.Debug().
		Str("user_id", user.ID).
		Str("role", user.Role).
		Str("credential", logger.Fingerprint(token)).
		Msg("session set")

	s.notify(next)
	return nil
}

// ClearSession removes identity and credential from memory and from every
// durable slot, then notifies listeners. It completes before returning.
func (s *Store) ClearSession() {
	s.mu.Lock()
	s.current = models.Session{}
	s.mu.Unlock()

	for _, key := range []string{storage.KeyToken, storage.KeyUser, storage.KeyAuthState} {
		if err := s.durable.Remove(key); err != nil {
			s.log.Debug().Err(err).Str("key", key).Msg("failed to remove durable slot")
		}
	}

	s.log.Debug().Msg("session cleared")

	s.notify(models.Session{})
}

// Credential returns the in-memory credential.
func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// User returns a copy of the in-memory identity.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.User.Clone()
}

// Snapshot returns a copy of the in-memory session.
func (s *Store) Snapshot() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Session{User: s.current.User.Clone(), Token: s.current.Token}
}

// IsAuthenticated reports whether the in-memory session holds a credential.
func (s *Store) IsAuthenticated() bool {
	return s.Snapshot().IsAuthenticated()
}

// Rehydrate loads the session from durable storage into memory and notifies
// listeners. The envelope is read first. When only the token slot holds a
// credential the identity is recovered from the identity slot. If nothing
// durable holds a credential the in-memory session is kept.
func (s *Store) Rehydrate() models.Session {
	restored := s.readDurable()

	if restored.IsAuthenticated() {
		s.mu.Lock()
		s.current = restored
		s.mu.Unlock()

		s.log.Debug().
			Str("credential", logger.Fingerprint(restored.Token)).
			Bool("identity", restored.User != nil).
			Msg("session rehydrated")
	}

	current := s.Snapshot()
	s.notify(current)
	return current
}

// Subscribe registers fn for every change and returns a function removing it.
func (s *Store) Subscribe(fn Listener) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

// ResolveCredential returns the credential to attach to API calls: the
// durable token slot first, then memory, then the persisted envelope.
func (s *Store) ResolveCredential() string {
	if token := storage.Lookup(s.durable, storage.KeyToken); token != "" {
		return token
	}
	if token := s.Credential(); token != "" {
		return token
	}
	if state, ok := s.readEnvelope(); ok {
		return state.State.Token
	}
	return ""
}

func (s *Store) persist(sess models.Session) {
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		s.log.Debug().Err(err).Msg("failed to encode identity")
		return
	}

	envelope, err := json.Marshal(models.NewPersistedState(sess))
	if err != nil {
		s.log.Debug().Err(err).Msg("failed to encode session envelope")
		return
	}

	slots := []struct{ key, value string }{
		{storage.KeyToken, sess.Token},
		{storage.KeyUser, string(userJSON)},
		{storage.KeyAuthState, string(envelope)},
	}
	for _, slot := range slots {
		if err := s.durable.Set(slot.key, slot.value); err != nil {
			s.log.Debug().Err(err).Str("key", slot.key).Msg("failed to persist durable slot")
		}
	}
}

func (s *Store) readDurable() models.Session {
	var restored models.Session

	if state, ok := s.readEnvelope(); ok {
		restored = state.Session()
	}

	if !restored.IsAuthenticated() {
		restored = models.Session{Token: storage.Lookup(s.durable, storage.KeyToken)}
	}

	if restored.IsAuthenticated() && restored.User == nil {
		if raw := storage.Lookup(s.durable, storage.KeyUser); raw != "" {
			u, err := models.UnmarshalUser([]byte(raw))
			if err != nil {
				s.log.Debug().Err(err).Msg("ignoring unreadable identity slot")
			}
			restored.User = u
		}
	}

	return restored
}

func (s *Store) readEnvelope() (models.PersistedState, bool) {
	raw := storage.Lookup(s.durable, storage.KeyAuthState)
	if raw == "" {
		return models.PersistedState{}, false
	}

	var state models.PersistedState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		s.log.Debug().Err(fmt.Errorf("decode %s: %w", storage.KeyAuthState, err)).Msg("ignoring unreadable session envelope")
		return models.PersistedState{}, false
	}

	return state, state.State.Token != ""
}

func (s *Store) notify(sess models.Session) {
	s.listenersMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(models.Session{User: sess.User.Clone(), Token: sess.Token})
	}
}
