package observability

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Emitter receives the named signals the gate publishes (eval.scored,
// eval.sample.completed, eval.run.done). Implementations must tolerate
// concurrent Emit calls.
type Emitter interface {
	Emit(ctx context.Context, name string, attrs map[string]any)
}

// NopEmitter discards all signals.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, map[string]any) {}

// LogEmitter forwards signals to a Logger at debug level.
type LogEmitter struct {
	Logger *Logger
}

func (e *LogEmitter) Emit(ctx context.Context, name string, attrs map[string]any) {
	if e.Logger == nil {
		return
	}
	args := make([]any, 0, 2*len(attrs)+2)
	args = append(args, "signal", name)
	for k, v := range attrs {
		args = append(args, k, v)
	}
	e.Logger.Debug(ctx, "signal emitted", args...)
}

// MultiEmitter fans signals out to several sinks, serializing delivery per
// sink so individual sinks never see concurrent calls.
type MultiEmitter struct {
	sinks []*guardedSink
}

type guardedSink struct {
	mu   sync.Mutex
	sink Emitter
}

// NewMultiEmitter builds a fan-out emitter over the given sinks.
func NewMultiEmitter(sinks ...Emitter) *MultiEmitter {
	m := &MultiEmitter{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, &guardedSink{sink: s})
		}
	}
	return m
}

func (m *MultiEmitter) Emit(ctx context.Context, name string, attrs map[string]any) {
	for _, gs := range m.sinks {
		gs.mu.Lock()
		gs.sink.Emit(ctx, name, attrs)
		gs.mu.Unlock()
	}
}

// Signal is one recorded emission.
type Signal struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Time  time.Time      `json:"time"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// SignalStore is a bounded in-memory recorder of recent signals, used by
// tests and the CLI's verbose summary. When full, the oldest signals are
// dropped.
type SignalStore struct {
	mu      sync.Mutex
	signals []Signal
	maxSize int
}

// NewSignalStore creates a recorder holding at most maxSize signals.
func NewSignalStore(maxSize int) *SignalStore {
	if maxSize <= 0 {
		maxSize = 4096
	}
	return &SignalStore{maxSize: maxSize}
}

// Emit implements Emitter.
func (s *SignalStore) Emit(_ context.Context, name string, attrs map[string]any) {
	copied := make(map[string]any, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	sig := Signal{
		ID:    uuid.NewString(),
		Name:  name,
		Time:  time.Now(),
		Attrs: copied,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.signals) >= s.maxSize {
		s.signals = s.signals[1:]
	}
	s.signals = append(s.signals, sig)
}

// ByName returns the recorded signals with the given name, oldest first.
func (s *SignalStore) ByName(name string) []Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Signal
	for _, sig := range s.signals {
		if sig.Name == name {
			out = append(out, sig)
		}
	}
	return out
}

// Len reports how many signals are currently held.
func (s *SignalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.signals)
}
