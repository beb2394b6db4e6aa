// Package status holds the user-visible status queue (spec.md §7): a ring
// buffer of timestamped, severity-tagged messages ("Relay x timed out;
// excluded for 60 s", "posted to <relay>") that the UI polls.
package status

import (
	"sync"
	"time"
)

func unixNow() int64 { return time.Now().Unix() }

const bufSize = 500

// Severity classifies a status message for UI display.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "info"
}

// Message is one entry in the status queue.
type Message struct {
	At       int64
	Severity Severity
	Text     string
}

// Q is a bounded, subscribable queue of status messages.
type Q struct {
	mu   sync.Mutex
	buf  []Message
	subs []chan Message
	now  func() int64
}

// New returns an empty status queue. now, when non-nil, overrides the
// message timestamp source (used by tests).
func New(now func() int64) *Q {
	if now == nil {
		now = unixNow
	}
	return &Q{buf: make([]Message, 0, bufSize), now: now}
}

// Post appends a message at the given severity, trimming the ring buffer
// and fanning the message out to subscribers.
func (q *Q) Post(sev Severity, text string) Message {
	m := Message{At: q.now(), Severity: sev, Text: text}
	q.mu.Lock()
	q.buf = append(q.buf, m)
	if len(q.buf) > bufSize {
		q.buf = q.buf[len(q.buf)-bufSize:]
	}
	for _, ch := range q.subs {
		select {
		case ch <- m:
		default: // slow consumer: drop rather than block
		}
	}
	q.mu.Unlock()
	return m
}

// Infof posts an Info-severity message.
func (q *Q) Infof(text string) Message { return q.Post(Info, text) }

// Warnf posts a Warning-severity message.
func (q *Q) Warnf(text string) Message { return q.Post(Warning, text) }

// Errorf posts an Error-severity message.
func (q *Q) Errorf(text string) Message { return q.Post(Error, text) }

// Recent returns a snapshot of the buffered messages. No subscription is
// created; this is what a UI poll loop calls.
func (q *Q) Recent() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Message, len(q.buf))
	copy(out, q.buf)
	return out
}

// Subscribe returns a snapshot of recent messages, a channel of new ones,
// and a cancel func that must be called when the subscriber is done.
func (q *Q) Subscribe() (history []Message, ch <-chan Message, cancel func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	history = make([]Message, len(q.buf))
	copy(history, q.buf)
	c := make(chan Message, 128)
	q.subs = append(q.subs, c)
	cancel = func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		for i, s := range q.subs {
			if s == c {
				q.subs = append(q.subs[:i], q.subs[i+1:]...)
				break
			}
		}
		close(c)
	}
	return history, c, cancel
}
