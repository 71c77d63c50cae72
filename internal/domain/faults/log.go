package faults

import (
	"sync"
	"time"
)

// logCapacity bounds the diagnostic log; older entries are evicted.
const logCapacity = 20

// Entry is one recorded fault.
type Entry struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Stack     string    `json:"stack,omitempty"`
	State     string    `json:"state,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is a fixed-capacity ring of fault entries, newest last.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	start   int
	count   int
}

// NewLog creates an empty fault log.
func NewLog() *Log {
	return &Log{entries: make([]Entry, logCapacity)}
}

// Record appends an entry, evicting the oldest when full.
func (l *Log) Record(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := (l.start + l.count) % logCapacity
	l.entries[idx] = e
	if l.count < logCapacity {
		l.count++
	} else {
		l.start = (l.start + 1) % logCapacity
	}
}

// Entries returns the retained faults in chronological order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, l.count)
	for i := 0; i < l.count; i++ {
		out[i] = l.entries[(l.start+i)%logCapacity]
	}
	return out
}

// Len returns the number of retained faults.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
