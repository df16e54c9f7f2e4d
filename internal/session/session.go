// Package session carries the signed-in user and their display preferences
// explicitly instead of through package-level state.
package session

import (
	"context"
	"sync"
)

// Scheme is a colour scheme for rendered output.
type Scheme string

const (
	SchemeDark  Scheme = "dark"
	SchemeLight Scheme = "light"
	SchemeAuto  Scheme = "auto"
)

// Valid reports whether s is a known scheme.
func (s Scheme) Valid() bool {
	return s == SchemeDark || s == SchemeLight || s == SchemeAuto
}

// Reader is the read-only view handed to reports and handlers.
type Reader interface {
	User() string
	Privacy() bool
	Scheme() Scheme
	Active() bool
}

// Writer toggles the user's preferences.
type Writer interface {
	Reader
	SetPrivacy(on bool)
	TogglePrivacy() bool
	SetScheme(s Scheme)
	End()
}

// Session is created once at sign-in and ended at sign-out. It is safe for
// concurrent use.
type Session struct {
	mu      sync.RWMutex
	user    string
	privacy bool
	scheme  Scheme
}

var _ Writer = (*Session)(nil)

// New starts a session for user. An invalid scheme becomes SchemeAuto.
func New(user string, privacy bool, scheme Scheme) *Session {
	if !scheme.Valid() {
		scheme = SchemeAuto
	}
	return &Session{user: user, privacy: privacy, scheme: scheme}
}

func (s *Session) User() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Privacy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.privacy
}

func (s *Session) Scheme() Scheme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scheme
}

// Active reports whether the session has not been ended.
func (s *Session) Active() bool {
	return s.User() != ""
}

func (s *Session) SetPrivacy(on bool) {
	s.mu.Lock()
	s.privacy = on
	s.mu.Unlock()
}

// TogglePrivacy flips privacy mode and returns the new value.
func (s *Session) TogglePrivacy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.privacy = !s.privacy
	return s.privacy
}

func (s *Session) SetScheme(sc Scheme) {
	if !sc.Valid() {
		return
	}
	s.mu.Lock()
	s.scheme = sc
	s.mu.Unlock()
}

// End clears the user and resets preferences.
func (s *Session) End() {
	s.mu.Lock()
	s.user = ""
	s.privacy = false
	s.scheme = SchemeAuto
	s.mu.Unlock()
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying r.
func NewContext(ctx context.Context, r Reader) context.Context {
	return context.WithValue(ctx, ctxKey{}, r)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (Reader, bool) {
	r, ok := ctx.Value(ctxKey{}).(Reader)
	return r, ok
}
