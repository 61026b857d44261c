package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans game events out to dashboard spectators, grouped by server.
type Hub struct {
	spectators map[string]map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *broadcastMessage
}

// Connection represents one spectator WebSocket connection
type Connection struct {
	ServerID string
	Send     chan []byte
	Hub      *Hub
}

type broadcastMessage struct {
	ServerID string
	Message  *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		spectators: make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *broadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.spectators[conn.ServerID] == nil {
				h.spectators[conn.ServerID] = make(map[*Connection]bool)
			}
			h.spectators[conn.ServerID][conn] = true
			h.mu.Unlock()
			log.Debug().Str("server_id", conn.ServerID).Msg("spectator connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.spectators[conn.ServerID]; ok {
				if conns[conn] {
					delete(conns, conn)
					close(conn.Send)
					log.Debug().Str("server_id", conn.ServerID).Msg("spectator disconnected")
				}
				if len(conns) == 0 {
					delete(h.spectators, conn.ServerID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				log.Warn().Err(err).Str("type", msg.Message.Type).Msg("failed to marshal event envelope")
				continue
			}
			h.mu.RLock()
			for conn := range h.spectators[msg.ServerID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastGameEvent sends a game event to every spectator of the
// server (implements service.Broadcaster).
func (h *Hub) BroadcastGameEvent(serverID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Str("type", msgType).Msg("failed to marshal event payload")
		return
	}
	h.broadcast <- &broadcastMessage{
		ServerID: serverID,
		Message: &Message{
			Type:    msgType,
			Payload: data,
		},
	}
}
