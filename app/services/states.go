package services

import (
	"sync"

	"pressroom/app/metrics"
	"pressroom/app/optimistic"

	"go.uber.org/zap"
)

// states holds one optimistic state per key, created on first use.
type states[T any] struct {
	mu      sync.Mutex
	byKey   map[string]*optimistic.State[T]
	logger  *zap.Logger
	metrics *metrics.Metrics
	field   string
}

func newStates[T any](logger *zap.Logger, m *metrics.Metrics, field string) *states[T] {
	return &states[T]{byKey: map[string]*optimistic.State[T]{}, logger: logger, metrics: m, field: field}
}

// get returns the state of key, creating it from initial when missing.
// created reports whether initial was used.
func (s *states[T]) get(key string, initial T) (st *optimistic.State[T], created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.byKey[key]; ok {
		return st, false
	}
	st = optimistic.New(initial, optimistic.WithObserver(s.observer(key)))
	s.byKey[key] = st
	return st, true
}

func (s *states[T]) lookup(key string) (*optimistic.State[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.byKey[key]
	return st, ok
}

func (s *states[T]) observer(key string) optimistic.Observer {
	return func(e optimistic.Event) {
		s.metrics.Optimistic(e.Kind, string(e.Outcome))
		fields := []zap.Field{
			zap.String(s.field, key),
			zap.String("kind", e.Kind),
			zap.Uint64("seq", e.Seq),
			zap.String("outcome", string(e.Outcome)),
		}
		switch e.Outcome {
		case optimistic.RolledBack:
			s.logger.Warn("optimistic update rolled back", append(fields, zap.Error(e.Err))...)
		case optimistic.Stale:
			s.logger.Debug("stale response dropped", fields...)
		}
	}
}
