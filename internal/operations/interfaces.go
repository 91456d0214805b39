package operations

// WebSocketHub is the sink of operation snapshots.
type WebSocketHub interface {
	BroadcastUpdate(eventType, step, status string, metadata interface{})
}
