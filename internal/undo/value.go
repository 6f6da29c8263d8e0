package undo

import (
	"fmt"

	"atelier/editor/internal/members"
)

// ValueRecorder brackets a session around state reachable only through a
// getter/setter pair, for values with no member identity of their own.
type ValueRecorder struct {
	backlog  *Backlog
	get      func() any
	set      func(any)
	captured any
	closed   bool
}

// RecordValue opens a value recorder, capturing the getter's current value.
func (b *Backlog) RecordValue(get func() any, set func(any)) (*ValueRecorder, error) {
	if get == nil || set == nil {
		return nil, fmt.Errorf("undo: value recorder needs both a getter and a setter")
	}
	return &ValueRecorder{backlog: b, get: get, set: set, captured: members.Clone(get())}, nil
}

// Close compares the getter's current value to the capture and, when they
// differ, enqueues a snapshot that restores the captured value through the
// setter. Replay ignores the changed-value check; there is no member to
// re-read.
func (vr *ValueRecorder) Close() error {
	if vr.closed {
		return nil
	}
	vr.closed = true
	if members.Equal(vr.get(), vr.captured) {
		return nil
	}
	vr.backlog.push(&Snapshot{kind: kindValueSet, set: vr.set, value: vr.captured})
	return nil
}
