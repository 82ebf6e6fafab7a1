package audit

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Severity ranks an event. Warn covers degraded-but-working conditions such
// as cache fallback; Error covers failed writes the caller papered over.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one structured audit record. Meta holds event-specific fields;
// values placed there must already be redacted by the producer.
type Event struct {
	Time     time.Time      `json:"time"`
	Type     string         `json:"type"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// Sink receives audit events. Implementations must be safe for concurrent
// use; delivery and storage beyond the sink are the embedder's concern.
type Sink interface {
	Write(event Event)
}

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Write(Event) {}

// ChannelSink forwards events to a channel, dropping when full. Useful for
// tests and for embedders that run their own consumer loop.
type ChannelSink struct {
	C chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelSink{C: make(chan Event, buffer)}
}

func (s *ChannelSink) Write(event Event) {
	select {
	case s.C <- event:
	default:
	}
}

// JSONWriterSink renders each event as one JSON line.
type JSONWriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{w: w}
}

func (s *JSONWriterSink) Write(event Event) {
	line, err := json.Marshal(struct {
		Time     string         `json:"time"`
		Type     string         `json:"type"`
		Severity string         `json:"severity"`
		Message  string         `json:"message"`
		Meta     map[string]any `json:"meta,omitempty"`
	}{
		Time:     event.Time.UTC().Format(time.RFC3339Nano),
		Type:     event.Type,
		Severity: event.Severity.String(),
		Message:  event.Message,
		Meta:     event.Meta,
	})
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Write(append(line, '\n'))
}
