package tts

import (
	"sync"

	"github.com/charmbracelet/log"
)

// EventRelay hands engine events to a single sink from one consumer
// goroutine, in the order they were delivered. Deliver never blocks the
// calling goroutine and never drops an accepted event.
type EventRelay struct {
	sink   Sink
	logger *log.Logger

	mu        sync.Mutex
	cond      *sync.Cond
	queue     []CallbackEvent
	seq       uint64
	closed    bool
	discarded uint64

	done chan struct{}
}

// NewRelay creates a relay and starts its consumer goroutine.
func NewRelay(sink Sink, logger *log.Logger) *EventRelay {
	if sink == nil {
		sink = Discard
	}
	if logger == nil {
		logger = log.Default()
	}
	r := &EventRelay{
		sink:   sink,
		logger: logger,
		done:   make(chan struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	go r.run()
	return r
}

// Deliver enqueues ev. It is safe to call from any goroutine. Events
// delivered after Close are discarded.
func (r *EventRelay) Deliver(ev CallbackEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		r.discarded++
		r.logger.Debug("Event after relay close", "type", ev.Type, "utterance", ev.Utterance)
		return
	}

	r.seq++
	ev.Seq = r.seq
	r.queue = append(r.queue, ev)
	r.cond.Signal()
}

// Close stops accepting events. Events already accepted are still delivered;
// Done is closed once they have been. Close does not wait, so a sink may call
// it from inside Deliver.
func (r *EventRelay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.cond.Signal()
}

// Done is closed after Close once every accepted event has been delivered.
func (r *EventRelay) Done() <-chan struct{} {
	return r.done
}

// Pending returns the number of accepted events not yet delivered.
func (r *EventRelay) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Discarded returns how many events arrived after Close.
func (r *EventRelay) Discarded() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.discarded
}

func (r *EventRelay) run() {
	defer close(r.done)

	for {
		r.mu.Lock()
		for len(r.queue) == 0 && !r.closed {
			r.cond.Wait()
		}
		if len(r.queue) == 0 && r.closed {
			r.mu.Unlock()
			return
		}
		batch := r.queue
		r.queue = nil
		r.mu.Unlock()

		for _, ev := range batch {
			r.dispatch(ev)
		}
	}
}

// dispatch delivers one event. A panicking sink is logged and the loop goes
// on with the next event.
func (r *EventRelay) dispatch(ev CallbackEvent) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Event sink panicked", "type", ev.Type, "seq", ev.Seq, "panic", p)
		}
	}()
	r.sink.Deliver(ev)
}
