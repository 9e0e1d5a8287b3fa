// Package websocket pushes viewer state snapshots to connected browsers.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"humandetector/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	queueDepth = 64
)

type registration struct {
	conn    *websocket.Conn
	session string
}

type message struct {
	session string
	payload []byte
}

// HubService fans state snapshots out to the connections of one session.
// All writes to connections happen on the Run goroutine.
type HubService struct {
	clients    map[*websocket.Conn]string
	broadcast  chan message
	register   chan registration
	unregister chan *websocket.Conn
	done       chan struct{}
	stopOnce   sync.Once
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]string),
		broadcast:  make(chan message, queueDepth),
		register:   make(chan registration),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every connection.
func (h *HubService) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case r := <-h.register:
			h.mutex.Lock()
			h.clients[r.conn] = r.session
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client connected for session %s. Total: %d", r.session, count)

		case conn := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client disconnected. Total: %d", count)

		case msg := <-h.broadcast:
			h.mutex.Lock()
			for conn, session := range h.clients {
				if session != msg.session {
					continue
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
					h.logger.Error("Error sending message to session %s: %v", session, err)
					delete(h.clients, conn)
					conn.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *HubService) shutdown() {
	h.stopOnce.Do(func() { close(h.done) })

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
		delete(h.clients, conn)
	}
}

// Register subscribes conn to the snapshots of session.
func (h *HubService) Register(conn *websocket.Conn, session string) {
	select {
	case h.register <- registration{conn: conn, session: session}:
	case <-h.done:
		conn.Close()
	}
}

func (h *HubService) Unregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Publish queues payload for every connection of session. It is dropped
// once the hub has stopped.
func (h *HubService) Publish(session string, payload []byte) {
	select {
	case h.broadcast <- message{session: session, payload: payload}:
	case <-h.done:
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
