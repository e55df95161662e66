package metrics

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Event records a single call into a RecordingLogger, in call order.
type Event struct {
	Kind  string // "Begin", "End", "CancelBegin", "Increment", "Add"
	Tag   string
	Token Token
	Value int64 // only populated for "Add"
}

// RecordingLogger is an in-memory MetricLogger that records every call it
// receives, for use in tests asserting spec invariant I2 ("exactly one of
// End or CancelBegin per Begin") and the gauge-reporting scenarios of spec
// §8. It is the Coordinator's equivalent of torua's in-memory MemoryStore:
// a simple, thread-safe, test-oriented implementation of a production
// interface.
type RecordingLogger struct {
	mu     sync.Mutex
	events []Event
	open   map[Token]string // token -> tag, removed on End/CancelBegin
}

// NewRecordingLogger creates an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{open: make(map[Token]string)}
}

func (r *RecordingLogger) Begin(tag string) (Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := Token(uuid.New())
	r.open[id] = tag
	r.events = append(r.events, Event{Kind: "Begin", Tag: tag, Token: id})
	return id, nil
}

func (r *RecordingLogger) End(id Token, tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.open, id)
	r.events = append(r.events, Event{Kind: "End", Tag: tag, Token: id})
}

func (r *RecordingLogger) CancelBegin(id Token, tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.open, id)
	r.events = append(r.events, Event{Kind: "CancelBegin", Tag: tag, Token: id})
}

func (r *RecordingLogger) Increment(tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: "Increment", Tag: tag})
}

func (r *RecordingLogger) Add(tag string, n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: "Add", Tag: tag, Value: n})
}

// Events returns a copy of every call recorded so far, in order.
func (r *RecordingLogger) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OpenCount returns the number of tokens currently awaiting End/CancelBegin.
// A well-behaved caller always returns this to zero by the time a public
// operation returns (spec invariant I2).
func (r *RecordingLogger) OpenCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.open)
}

// AssertNoLeakedTokens returns an error describing any token that was never
// closed with End or CancelBegin.
func (r *RecordingLogger) AssertNoLeakedTokens() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.open) == 0 {
		return nil
	}
	return fmt.Errorf("%d metric token(s) never closed with End/CancelBegin", len(r.open))
}
