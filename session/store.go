package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrIncompleteSession is returned when SetAuthenticated is called with
// a missing identity or token. The store never holds one without the
// other.
var ErrIncompleteSession = errors.New("session requires both identity and token")

// ErrPersist wraps storage failures. The in-memory session is updated
// regardless; the caller decides whether a lost persisted copy matters.
var ErrPersist = errors.New("session persistence failed")

// Subscriber receives the new session value on every change. Calls are
// synchronous and in registration order; the mutating call does not
// return until every subscriber has observed the new state.
type Subscriber func(Session)

type subscription struct {
	id int
	fn Subscriber
}

// Store owns the current session. It is safe for concurrent use; all
// mutation goes through SetAuthenticated, Clear, and Load.
type Store struct {
	mu      sync.Mutex
	current Session
	storage TokenStorage
	subs    []subscription
	nextSub int
}

// NewStore creates an anonymous store persisting through storage.
// A nil storage is allowed; the session then lives only in memory.
func NewStore(storage TokenStorage) *Store {
	return &Store{storage: storage}
}

// Current returns a copy of the session. Never fails, no side effects.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.clone()
}

// Subscribe registers fn for change notification and returns a cancel
// func. Cancel is idempotent.
func (s *Store) Subscribe(fn Subscriber) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// SetAuthenticated replaces the session atomically and persists the
// token so a page reload does not silently log the user out. Identity
// and token are both required. Subscribers are notified before return.
func (s *Store) SetAuthenticated(ctx context.Context, identity Identity, token string, expiry time.Time) error {
	if identity.UserID == "" || token == "" {
		return ErrIncompleteSession
	}

	id := identity
	next := Session{Identity: &id, Token: token, Expiry: expiry}

	s.mu.Lock()
	s.current = next
	subs := append([]subscription(nil), s.subs...)
	s.mu.Unlock()

	s.notify(subs, next)

	if s.storage != nil {
		if err := s.storage.Write(ctx, Record{
			Token:    token,
			Expiry:   expiry,
			Identity: identity,
		}); err != nil {
			return fmt.Errorf("%w: %v", ErrPersist, err)
		}
	}
	return nil
}

// Clear resets to anonymous and removes the persisted token. Idempotent:
// clearing an already-anonymous session is a no-op apart from
// re-notifying subscribers.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.current = Session{}
	subs := append([]subscription(nil), s.subs...)
	s.mu.Unlock()

	s.notify(subs, Session{})

	if s.storage != nil {
		if err := s.storage.Delete(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrPersist, err)
		}
	}
	return nil
}

// Load repopulates the session from storage at process start. A missing
// record leaves the store anonymous; a locally expired record is
// deleted and not restored. Local expiry uses the stored expiry when
// present, else the token's JWT exp claim as a hint. The token stays
// opaque and the service remains authoritative either way.
func (s *Store) Load(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}

	rec, err := s.storage.Read(ctx)
	if errors.Is(err, ErrNoRecord) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	expiry := rec.Expiry
	if expiry.IsZero() {
		if hint, ok := tokenExpiryHint(rec.Token); ok {
			expiry = hint
		}
	}
	if rec.Token == "" || rec.Identity.UserID == "" || (!expiry.IsZero() && time.Now().After(expiry)) {
		_ = s.storage.Delete(ctx)
		return nil
	}

	return s.SetAuthenticated(ctx, rec.Identity, rec.Token, expiry)
}

func (s *Store) notify(subs []subscription, sess Session) {
	for _, sub := range subs {
		sub.fn(sess.clone())
	}
}

// tokenExpiryHint reads the exp claim without verifying the signature.
// The client holds no keys; this is a hint for discarding stale tokens
// locally, never an authorization decision.
func tokenExpiryHint(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
