package guard

import "sync"

// NavigationIntent remembers where an anonymous user was trying to go
// before being redirected to authenticate.
type NavigationIntent struct {
	TargetPath       string
	OriginatingRoute string
}

// IntentStore holds at most one pending NavigationIntent. It is set
// only when the guard redirects an anonymous user away from a protected
// route, and consumed exactly once, immediately after the next
// successful login.
type IntentStore struct {
	mu     sync.Mutex
	intent *NavigationIntent
}

// NewIntentStore returns an empty store.
func NewIntentStore() *IntentStore {
	return &IntentStore{}
}

// Capture records the intent, replacing any pending one.
func (s *IntentStore) Capture(target, origin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intent = &NavigationIntent{TargetPath: target, OriginatingRoute: origin}
}

// Consume returns the pending intent and clears it. A second call
// reports no intent; the captured target never redirects twice.
func (s *IntentStore) Consume() (NavigationIntent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.intent == nil {
		return NavigationIntent{}, false
	}
	intent := *s.intent
	s.intent = nil
	return intent, true
}

// Discard drops any pending intent without consuming it. The guard
// calls this when the user voluntarily navigates somewhere other than
// the login page before authenticating.
func (s *IntentStore) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intent = nil
}

// Pending reports whether an intent is waiting, without consuming it.
func (s *IntentStore) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intent != nil
}
