package testutil

import (
	"slices"
	"strings"
	"sync"
)

// Recorder is an ordered, concurrency-safe event log.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Add appends an event. A nil recorder ignores the call.
func (r *Recorder) Add(event string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of every recorded event.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Filter returns the recorded events that start with prefix.
func (r *Recorder) Filter(prefix string) []string {
	var out []string
	for _, e := range r.Events() {
		if strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many times event was recorded.
func (r *Recorder) Count(event string) int {
	n := 0
	for _, e := range r.Events() {
		if e == event {
			n++
		}
	}
	return n
}

// Index returns the position of the first occurrence of event, or -1.
func (r *Recorder) Index(event string) int {
	return slices.Index(r.Events(), event)
}
