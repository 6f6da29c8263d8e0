package logging

import "time"

// EventType names a structured event emitted by the editing runtime.
type EventType string

const (
	// EventSceneLoaded marks a scene document instantiated at startup.
	EventSceneLoaded EventType = "scene_loaded"
	// EventSnapshotEnqueued marks a reversal action appended to the backlog.
	EventSnapshotEnqueued EventType = "snapshot_enqueued"
	// EventSnapshotReplayed marks a reversal action popped and applied.
	EventSnapshotReplayed EventType = "snapshot_replayed"
	// EventBacklogEmpty marks a replay request against an empty backlog.
	EventBacklogEmpty EventType = "backlog_empty"
	// EventClientJoined marks an editor client subscribing to the bridge.
	EventClientJoined EventType = "client_joined"
	// EventClientLeft marks an editor client disconnecting.
	EventClientLeft EventType = "client_left"
	// EventCommandRejected marks an edit command the bridge refused.
	EventCommandRejected EventType = "command_rejected"
)

// Severity orders events by urgency.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
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

// Event is one structured record routed to the configured sinks.
type Event struct {
	Type      EventType      `json:"type"`
	Time      time.Time      `json:"time"`
	Severity  Severity       `json:"severity"`
	Entity    string         `json:"entity,omitempty"`
	Component string         `json:"component,omitempty"`
	Payload   any            `json:"payload,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}
