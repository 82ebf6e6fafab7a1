package audit

import (
	"sync"
	"sync/atomic"
	"time"
)

// Dispatcher decouples event producers from the sink. Writes never block the
// caller: when the buffer is full the event is dropped and counted, which
// keeps audit pressure from backing up the auth hot path.
type Dispatcher struct {
	sink    Sink
	events  chan Event
	dropped atomic.Uint64

	closeOnce sync.Once
	done      chan struct{}
}

// NewDispatcher starts the consumer goroutine. buffer <= 0 selects 256.
func NewDispatcher(sink Sink, buffer int) *Dispatcher {
	if sink == nil {
		sink = NoOpSink{}
	}
	if buffer <= 0 {
		buffer = 256
	}
	d := &Dispatcher{
		sink:   sink,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.events {
		d.sink.Write(event)
	}
}

// Emit enqueues an event, stamping the time if unset. Drops when full.
func (d *Dispatcher) Emit(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	select {
	case d.events <- event:
	default:
		d.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded under pressure.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Close drains buffered events and stops the consumer. Emit after Close
// panics; callers stop producing first.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.events)
		<-d.done
	})
}
