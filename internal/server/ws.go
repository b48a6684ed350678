package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/ayusman/tracksampler/internal/app"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// clientBuffer is how many snapshots a slow client may fall behind before
// older ones are dropped.
const clientBuffer = 8

// StatusHub pushes session snapshots to WebSocket clients.
type StatusHub struct {
	log     zerolog.Logger
	source  StatusSource
	clients map[*websocket.Conn]chan []byte
	mu      sync.RWMutex
}

// NewStatusHub creates a hub. When source is set, each new client first
// receives the current snapshot.
func NewStatusHub(source StatusSource, log zerolog.Logger) *StatusHub {
	return &StatusHub{
		log:     log,
		source:  source,
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StatusHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	send := make(chan []byte, clientBuffer)
	if h.source != nil {
		if msg, err := json.Marshal(h.source.Status()); err == nil {
			send <- msg
		}
	}

	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Keep connection alive by reading messages
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg := <-send:
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// Broadcast queues s for every client without blocking. It has the
// func(app.Status) shape expected by app.App.OnStatus.
func (h *StatusHub) Broadcast(s app.Status) {
	msg, err := json.Marshal(s)
	if err != nil {
		h.log.Warn().Err(err).Msg("marshal status")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, send := range h.clients {
		select {
		case send <- msg:
		default:
			// Client is behind; drop the oldest snapshot to make room
			select {
			case <-send:
			default:
			}
			select {
			case send <- msg:
			default:
			}
		}
	}
}

// Clients returns the number of connected clients.
func (h *StatusHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
