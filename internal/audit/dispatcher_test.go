package audit

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := NewChannelSink(16)
	d := NewDispatcher(sink, 16)

	d.Emit(Event{Type: "a"})
	d.Emit(Event{Type: "b"})
	d.Close()

	for _, want := range []string{"a", "b"} {
		select {
		case event := <-sink.C:
			if event.Type != want {
				t.Fatalf("event type = %q, want %q", event.Type, want)
			}
			if event.Time.IsZero() {
				t.Fatal("event time not stamped")
			}
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

type blockingSink struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingSink) Write(Event) {
	s.once.Do(func() { close(s.started) })
	<-s.release
}

func TestDispatcherDropsUnderPressure(t *testing.T) {
	sink := &blockingSink{started: make(chan struct{}), release: make(chan struct{})}
	d := NewDispatcher(sink, 2)

	// First event occupies the consumer; the next two fill the buffer.
	d.Emit(Event{Type: "consume"})
	<-sink.started
	d.Emit(Event{Type: "buffered-1"})
	d.Emit(Event{Type: "buffered-2"})

	d.Emit(Event{Type: "dropped"})
	if d.Dropped() == 0 {
		t.Fatal("overflow event not counted as dropped")
	}

	close(sink.release)
	d.Close()
}

func TestNilSinkDefaultsToNoOp(t *testing.T) {
	d := NewDispatcher(nil, 4)
	d.Emit(Event{Type: "a"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatalf("dropped = %d, want 0", d.Dropped())
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Write(Event{
		Time:     time.Unix(0, 0),
		Type:     "auth.login",
		Severity: SeverityWarn,
		Message:  "login failed",
		Meta:     map[string]any{"detail": "credential mismatch"},
	})

	line := buf.String()
	if !strings.HasSuffix(line, "\n") {
		t.Fatalf("not line-delimited: %q", line)
	}
	for _, want := range []string{`"type":"auth.login"`, `"severity":"warn"`, `"detail":"credential mismatch"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
}
