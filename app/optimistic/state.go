// Package optimistic applies local updates before the server confirms them
// and settles them once it answers.
//
// A State keeps the last server-confirmed value (the base) and the mutations
// still in flight. The visible value is the base with every pending mutation
// applied in issue order. Each mutation gets a sequence number; a successful
// response is only reconciled into the base when its number is higher than
// the one that produced the current base, so a slow response to an older
// request can never overwrite a newer answer.
package optimistic

import (
	"context"
	"slices"
	"sync"
)

// Outcome describes what happened to a mutation.
type Outcome string

const (
	// Applied is reported when the optimistic projection becomes visible.
	Applied Outcome = "applied"
	// Reconciled is reported when the server response replaced the base.
	Reconciled Outcome = "reconciled"
	// Stale is reported when a response arrived after a newer one.
	Stale Outcome = "stale"
	// RolledBack is reported when the request failed and the projection was
	// withdrawn.
	RolledBack Outcome = "rolled_back"
)

// Event is delivered to observers for every outcome.
type Event struct {
	Seq     uint64
	Kind    string
	Outcome Outcome
	Err     error
}

// Observer receives events. It is called with the state lock released.
type Observer func(Event)

// Option configures a State.
type Option func(*options)

type options struct {
	observers []Observer
}

// WithObserver registers fn for every event of the state.
func WithObserver(fn Observer) Option {
	return func(o *options) {
		if fn != nil {
			o.observers = append(o.observers, fn)
		}
	}
}

type pending[T any] struct {
	seq   uint64
	apply func(T) T
}

// State is a value of type T with optimistic mutations layered on top.
// T should be treated as immutable: Apply and Reconcile return new values.
type State[T any] struct {
	mu      sync.Mutex
	base    T
	baseSeq uint64
	issued  uint64
	pending []pending[T]
	opts    options
}

// New returns a state whose confirmed value is initial.
func New[T any](initial T, opts ...Option) *State[T] {
	s := &State[T]{base: initial}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

// View returns the value as it should be shown right now.
func (s *State[T]) View() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Base returns the last server-confirmed value.
func (s *State[T]) Base() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base
}

// Pending returns the number of mutations still waiting for the server.
func (s *State[T]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Set replaces the confirmed value, for example after a full refetch. Every
// response still in flight becomes stale.
func (s *State[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = v
	s.baseSeq = s.issued
	s.pending = nil
}

// Refresh replaces the confirmed value with v when no mutation is in flight
// and returns the visible value. While mutations are pending the fresh value
// is ignored; their responses settle the state instead.
func (s *State[T]) Refresh(v T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		s.base = v
		s.baseSeq = s.issued
	}
	return s.viewLocked()
}

// Update rewrites the confirmed value with fn. It is meant for changes that
// were confirmed outside this state, such as a reply the server already
// accepted. Pending mutations stay layered on top.
func (s *State[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = fn(s.base)
	return s.viewLocked()
}

func (s *State[T]) viewLocked() T {
	v := s.base
	for _, p := range s.pending {
		v = p.apply(v)
	}
	return v
}

func (s *State[T]) emit(e Event) {
	for _, fn := range s.opts.observers {
		fn(e)
	}
}

// Mutation describes one optimistic change. R is the server response type.
type Mutation[T, R any] struct {
	// Kind labels the events of this mutation, e.g. "post_like".
	Kind string
	// Apply projects the change locally.
	Apply func(T) T
	// Commit performs the request.
	Commit func(ctx context.Context) (R, error)
	// Reconcile folds the authoritative response into the confirmed value.
	// A nil Reconcile applies the projection to the base instead.
	Reconcile func(T, R) T
}

// Do applies m immediately, sends it, and settles the state with the result.
// It returns the visible value after settlement and the commit error, if any.
func Do[T, R any](ctx context.Context, s *State[T], m Mutation[T, R]) (T, error) {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.pending = append(s.pending, pending[T]{seq: seq, apply: m.Apply})
	s.mu.Unlock()
	s.emit(Event{Seq: seq, Kind: m.Kind, Outcome: Applied})

	resp, err := m.Commit(ctx)

	s.mu.Lock()
	var outcome Outcome
	switch {
	case err != nil:
		n := len(s.pending)
		s.pending = slices.DeleteFunc(s.pending, func(p pending[T]) bool { return p.seq == seq })
		outcome = RolledBack
		if len(s.pending) == n {
			// Already superseded by a newer confirmed response.
			outcome = Stale
		}
	case seq > s.baseSeq:
		if m.Reconcile != nil {
			s.base = m.Reconcile(s.base, resp)
		} else {
			s.base = m.Apply(s.base)
		}
		s.baseSeq = seq
		s.pending = slices.DeleteFunc(s.pending, func(p pending[T]) bool { return p.seq <= seq })
		outcome = Reconciled
	default:
		s.pending = slices.DeleteFunc(s.pending, func(p pending[T]) bool { return p.seq == seq })
		outcome = Stale
	}
	v := s.viewLocked()
	s.mu.Unlock()
	s.emit(Event{Seq: seq, Kind: m.Kind, Outcome: outcome, Err: err})

	return v, err
}
