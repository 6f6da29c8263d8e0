package logging

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Sink receives routed events. Write is called from the router's dispatch
// goroutine; implementations do not need their own synchronization.
type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

// Router fans events out to the enabled sinks through a bounded queue.
// Publishing never blocks: when the queue is full the event is dropped and
// accounted for, with a rate-limited warning on the fallback logger.
type Router struct {
	cfg      Config
	queue    chan Event
	done     chan struct{}
	sinks    []namedSink
	fallback *log.Logger
	closed   atomic.Bool
	wg       sync.WaitGroup

	eventsTotal  atomic.Uint64
	droppedTotal atomic.Uint64
	lastDropLog  atomic.Int64
}

type namedSink struct {
	name string
	sink Sink
}

// RouterStats reports routing counters since construction.
type RouterStats struct {
	EventsTotal  uint64
	DroppedTotal uint64
}

// NewRouter validates the configuration against the available sinks and
// starts the dispatch goroutine.
func NewRouter(cfg Config, fallback *log.Logger, available map[string]Sink) (*Router, error) {
	if fallback == nil {
		fallback = log.Default()
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultConfig().BufferSize
	}

	enabled := make([]namedSink, 0, len(cfg.EnabledSinks))
	for _, name := range cfg.EnabledSinks {
		sink, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("logging: enabled sink %q is not available", name)
		}
		enabled = append(enabled, namedSink{name: name, sink: sink})
	}

	r := &Router{
		cfg:      cfg,
		queue:    make(chan Event, bufferSize),
		done:     make(chan struct{}),
		sinks:    enabled,
		fallback: fallback,
	}
	r.wg.Add(1)
	go r.dispatch()
	return r, nil
}

// Publish enqueues an event for routing. Events below the configured
// severity floor are ignored.
func (r *Router) Publish(_ context.Context, event Event) {
	if r == nil || r.closed.Load() {
		return
	}
	if event.Severity < r.cfg.MinimumSeverity {
		return
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	select {
	case r.queue <- event:
		r.eventsTotal.Add(1)
	default:
		r.noteDrop()
	}
}

// Stats returns the current routing counters.
func (r *Router) Stats() RouterStats {
	return RouterStats{
		EventsTotal:  r.eventsTotal.Load(),
		DroppedTotal: r.droppedTotal.Load(),
	}
}

// Close stops accepting events, drains what is already buffered, and closes
// every sink. It is safe to call once; later calls are no-ops. The queue
// channel itself is never closed, so a publisher racing with Close cannot
// panic; any event slipping past the closed flag after the drain is dropped.
func (r *Router) Close(ctx context.Context) error {
	if r == nil || !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(r.done)
	r.wg.Wait()

	var firstErr error
	for _, ns := range r.sinks {
		if err := ns.sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("logging: close sink %q: %w", ns.name, err)
		}
	}
	return firstErr
}

func (r *Router) dispatch() {
	defer r.wg.Done()
	for {
		select {
		case event := <-r.queue:
			r.write(event)
		case <-r.done:
			for {
				select {
				case event := <-r.queue:
					r.write(event)
				default:
					return
				}
			}
		}
	}
}

func (r *Router) write(event Event) {
	for _, ns := range r.sinks {
		if err := ns.sink.Write(event); err != nil {
			r.fallback.Printf("logging: sink %q write failed: %v", ns.name, err)
		}
	}
}

func (r *Router) noteDrop() {
	r.droppedTotal.Add(1)
	interval := r.cfg.DropWarnInterval
	if interval <= 0 {
		return
	}
	now := time.Now().UnixNano()
	last := r.lastDropLog.Load()
	if now-last < int64(interval) {
		return
	}
	if r.lastDropLog.CompareAndSwap(last, now) {
		r.fallback.Printf("logging: queue full, dropped %d events so far", r.droppedTotal.Load())
	}
}
