package batch

import (
	"context"
	"time"
)

// eventQueueSize bounds the events buffered per notifier.
const eventQueueSize = 256

type sink struct {
	notifier Notifier
	events   chan Event
	done     chan struct{}
}

// dispatcher delivers events to each notifier on its own goroutine, so a
// slow sink never holds up dispatch or cancellation. Events reach a given
// notifier in the order they were sent.
type dispatcher struct {
	sinks  []*sink
	ctx    context.Context
	cancel context.CancelFunc
	log    Logger
}

// newDispatcher starts one delivery goroutine per notifier. Sinks see a
// context that outlives the batch ctx; it is cancelled by finish.
func newDispatcher(ctx context.Context, notifiers []Notifier, log Logger) *dispatcher {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d := &dispatcher{ctx: ctx, cancel: cancel, log: log}
	for _, n := range notifiers {
		s := &sink{
			notifier: n,
			events:   make(chan Event, eventQueueSize),
			done:     make(chan struct{}),
		}
		d.sinks = append(d.sinks, s)
		go d.serve(s)
	}
	return d
}

func (d *dispatcher) serve(s *sink) {
	defer close(s.done)
	for ev := range s.events {
		if err := s.notifier.Notify(d.ctx, ev); err != nil {
			d.log.Warn("notify %s: %v", ev.Type, err)
		}
	}
}

// send queues ev for every notifier. When a queue is full it waits for room
// until stop is closed, then drops the event for that notifier.
func (d *dispatcher) send(stop <-chan struct{}, ev Event) {
	for _, s := range d.sinks {
		select {
		case s.events <- ev:
			continue
		default:
		}
		select {
		case s.events <- ev:
		case <-stop:
			d.log.Warn("dropping %s event: notifier queue full", ev.Type)
		}
	}
}

// finish closes the queues and waits for the notifiers to drain them. Once
// stop is closed the notifiers get grace to catch up; after that their
// context is cancelled and finish returns without them.
func (d *dispatcher) finish(stop <-chan struct{}, grace time.Duration) {
	defer d.cancel()
	for _, s := range d.sinks {
		close(s.events)
	}

	drained := make(chan struct{})
	go func() {
		for _, s := range d.sinks {
			<-s.done
		}
		close(drained)
	}()

	select {
	case <-drained:
		return
	case <-stop:
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-drained:
	case <-timer.C:
		d.log.Warn("event notifiers still busy %s after cancel, not waiting for them", grace)
	}
}
