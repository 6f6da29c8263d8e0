// Package undo implements the recording, diffing, and replay engine behind
// the editor's undo support. A recorder brackets an editing session around
// one object; closing it captures any reversible change as a snapshot on the
// backlog, and ReplayNext applies the next pending snapshot.
package undo

import (
	"context"
	"sync"

	"atelier/editor/logging"
)

// Backlog is the queue of pending reversal actions. It is an explicitly
// owned service: construct one per process and hand it to every mutation
// site. Replay order is FIFO: the oldest recorded change is undone first,
// not the most recent one. There is no way to inspect, clear, or reorder
// the queue.
type Backlog struct {
	mu        sync.Mutex
	queue     []*Snapshot
	publisher logging.Publisher
}

// NewBacklog returns an empty backlog.
func NewBacklog() *Backlog {
	return &Backlog{}
}

// AttachPublisher routes backlog lifecycle events to the given publisher.
// A nil publisher silences them again.
func (b *Backlog) AttachPublisher(p logging.Publisher) {
	b.mu.Lock()
	b.publisher = p
	b.mu.Unlock()
}

// Len reports the number of pending snapshots.
func (b *Backlog) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// ReplayNext pops the oldest pending snapshot and replays it. An empty
// backlog is a no-op, never an error. checkIfValueChanged is forwarded to
// the snapshot's replay; see Snapshot.Undo.
func (b *Backlog) ReplayNext(checkIfValueChanged bool) error {
	b.mu.Lock()
	var snap *Snapshot
	if len(b.queue) > 0 {
		snap = b.queue[0]
		b.queue = b.queue[1:]
	}
	publisher := b.publisher
	b.mu.Unlock()

	if snap == nil {
		publish(publisher, logging.Event{
			Type:     logging.EventBacklogEmpty,
			Severity: logging.SeverityDebug,
		})
		return nil
	}
	if err := snap.Undo(checkIfValueChanged); err != nil {
		return err
	}
	publish(publisher, logging.Event{
		Type:     logging.EventSnapshotReplayed,
		Severity: logging.SeverityInfo,
		Payload:  map[string]any{"kind": snap.Kind(), "pending": b.Len()},
	})
	return nil
}

func (b *Backlog) push(snap *Snapshot) {
	b.mu.Lock()
	b.queue = append(b.queue, snap)
	publisher := b.publisher
	pending := len(b.queue)
	b.mu.Unlock()

	publish(publisher, logging.Event{
		Type:     logging.EventSnapshotEnqueued,
		Severity: logging.SeverityDebug,
		Payload:  map[string]any{"kind": snap.Kind(), "pending": pending},
	})
}

// takeNewest removes and returns the most recently pushed snapshot. The
// entity recorder uses it to drain per-component snapshots it just produced
// into its own pending list.
func (b *Backlog) takeNewest() *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return nil
	}
	snap := b.queue[len(b.queue)-1]
	b.queue = b.queue[:len(b.queue)-1]
	return snap
}

func publish(p logging.Publisher, event logging.Event) {
	if p == nil {
		return
	}
	p.Publish(context.Background(), event)
}
