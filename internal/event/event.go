package event

import (
	"sync"
	"time"
)

// Type identifies the kind of operation an event records.
type Type int

const (
	Scan Type = iota + 1
	Mkdir
	Copy
	Rename
	Overwrite
	Skip
	DeleteFile
	DeleteDir
	Verify
	SetAttributes
)

var typeNames = [...]string{
	Scan:          "scan",
	Mkdir:         "mkdir",
	Copy:          "copy",
	Rename:        "rename",
	Overwrite:     "overwrite",
	Skip:          "skip",
	DeleteFile:    "delete-file",
	DeleteDir:     "delete-dir",
	Verify:        "verify",
	SetAttributes: "set-attributes",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// Event is one entry of a request's operation log.
type Event struct {
	Timestamp time.Time
	Error     error
	Path      string
	Message   string
	Type      Type
}

// Failed reports whether the event records a failure.
func (e Event) Failed() bool { return e.Error != nil }

// Log collects the events of one request in the order they happened.
type Log struct {
	mu     sync.Mutex
	events []Event
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Add appends an event, stamping it if needed.
func (l *Log) Add(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

// Record is shorthand for Add with a type, path, and optional error.
func (l *Log) Record(t Type, path string, err error) {
	e := Event{Type: t, Path: path, Error: err}
	if err != nil {
		e.Message = err.Error()
	}
	l.Add(e)
}

// Events returns a copy of all events.
func (l *Log) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// Len returns the number of events.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// ByType groups the events by operation kind, preserving order within each
// kind.
func (l *Log) ByType() map[Type][]Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[Type][]Event)
	for _, e := range l.events {
		out[e.Type] = append(out[e.Type], e)
	}
	return out
}

// Failures returns only the events that carry an error.
func (l *Log) Failures() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, e := range l.events {
		if e.Failed() {
			out = append(out, e)
		}
	}
	return out
}
