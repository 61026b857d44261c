package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastGameEvent(serverID string, msgType string, payload interface{})
}
