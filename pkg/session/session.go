package session

import "sync"

// Session is the authentication context the agent acts under: the WebID of
// the controlling identity plus the access token presented to pod servers.
// State-change observers fire on every activation transition; the caches
// built on top of the remote graph hook the inactive transition to drop
// everything they have memoized.
type Session struct {
	mu        sync.Mutex
	webID     string
	token     string
	active    bool
	observers []func(active bool)
}

func New() *Session { return &Session{} }

// Activate marks the session active under the given identity.
func (s *Session) Activate(webID, token string) {
	s.transition(true, webID, token)
}

// Deactivate clears the identity and notifies observers. Fired on logout
// and on token expiration.
func (s *Session) Deactivate() {
	s.transition(false, "", "")
}

func (s *Session) transition(active bool, webID, token string) {
	s.mu.Lock()
	changed := s.active != active
	s.active, s.webID, s.token = active, webID, token
	observers := s.observers
	s.mu.Unlock()
	if !changed {
		return
	}
	for _, observe := range observers {
		observe(active)
	}
}

// Active reports whether the session currently holds an identity.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// WebID returns the identity of the session, or false when inactive.
func (s *Session) WebID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.webID, s.active
}

// AccessToken implements pod.TokenSource.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// OnStateChange registers an observer for activation transitions.
func (s *Session) OnStateChange(observe func(active bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observe)
}
