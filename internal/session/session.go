// Package session tracks what a single view knows about the browser's session.
//
// Every view mount starts out loading and settles exactly once per fetch into
// authenticated or unauthenticated. A failed fetch is indistinguishable from
// being signed out.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jdholdren/porch/internal/backend"
)

type Status uint8

const (
	Loading Status = iota
	Authenticated
	Unauthenticated
)

func (s Status) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "loading"
	}
}

// State is a holder's current value. Session is only meaningful when
// Status is Authenticated.
type State struct {
	Status  Status
	Session backend.Session
}

func (s State) Resolved() bool {
	return s.Status != Loading
}

func (s State) Authenticated() bool {
	return s.Status == Authenticated
}

// Fetcher is the one backend call a holder needs.
type Fetcher interface {
	FetchSession(ctx context.Context, creds backend.Credentials) (backend.Session, error)
}

// Ticket identifies one fetch. Only the latest ticket handed out may resolve.
type Ticket uint64

// Holder is the session state for one view mount. The zero value is loading.
type Holder struct {
	mu     sync.Mutex
	latest Ticket
	state  State
}

// Begin marks the start of a fetch. Any earlier fetch still in flight is
// now stale.
func (h *Holder) Begin() Ticket {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest++
	return h.latest
}

// Resolve applies a fetch outcome if t is still the latest ticket. apply, if
// given, runs with the new state before the holder is unlocked, so anything
// derived from it moves in lockstep.
func (h *Holder) Resolve(t Ticket, sess backend.Session, err error, apply func(State)) (State, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if t != h.latest {
		return h.state, false
	}

	h.state = resolved(sess, err)
	if apply != nil {
		apply(h.state)
	}

	return h.state, true
}

// State is the holder's current value.
func (h *Holder) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.state
}

// Fetch runs one whole fetch against f and resolves it. The bool reports
// whether this fetch's outcome was applied or dropped as stale.
func (h *Holder) Fetch(ctx context.Context, f Fetcher, creds backend.Credentials, apply func(State)) (State, bool) {
	t := h.Begin()
	sess, err := f.FetchSession(ctx, creds)
	if err != nil {
		slog.DebugContext(ctx, "session fetch failed, treating as signed out", "err", err)
	}

	st, applied := h.Resolve(t, sess, err, apply)
	if !applied {
		slog.DebugContext(ctx, "dropped stale session fetch", "ticket", t)
	}

	return st, applied
}

// Load is a one-shot fetch for views that only render once per mount.
func Load(ctx context.Context, f Fetcher, creds backend.Credentials) State {
	var h Holder
	st, _ := h.Fetch(ctx, f, creds, nil)
	return st
}

func resolved(sess backend.Session, err error) State {
	if err != nil || !sess.Authenticated {
		return State{Status: Unauthenticated}
	}

	return State{Status: Authenticated, Session: sess}
}
