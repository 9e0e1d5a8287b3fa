package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"humandetector/internal/dto"
	"humandetector/internal/logger"
	ws "humandetector/internal/service/websocket"
	"humandetector/internal/viewer"
)

// Upgrader upgrades HTTP connections to WebSocket; origins are checked by
// the CORS middleware, not here.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler streams the caller's session state. The current
// snapshot is sent first, then every transition as it happens.
func ViewWebsocketHandler(manager *viewer.Manager, hub *ws.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		session := manager.Session(sessionID(r))
		snapshot, err := json.Marshal(dto.NewStateView(session.ID(), session.State()))
		if err != nil {
			logger.Error("Error encoding snapshot: %v", err)
			connection.Close()
			return
		}
		connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := connection.WriteMessage(websocket.TextMessage, snapshot); err != nil {
			logger.Error("Error sending snapshot: %v", err)
			connection.Close()
			return
		}

		hub.Register(connection, session.ID())
		defer hub.Unregister(connection)

		logger.Info("Viewer connected for session %s", session.ID())

		for {
			_, _, err := connection.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Viewer disconnected normally")
				} else {
					logger.Error("Viewer disconnected with error: %v", err)
				}
				break
			}
			session.Touch()
		}
	}
}

// StatePublisher returns the session observer that pushes every state
// change to the session's websocket clients.
func StatePublisher(hub *ws.HubService, logger *logger.Logger) viewer.Observer {
	return func(sessionID string, st viewer.State) {
		payload, err := json.Marshal(dto.NewStateView(sessionID, st))
		if err != nil {
			logger.Error("Error encoding state for session %s: %v", sessionID, err)
			return
		}
		hub.Publish(sessionID, payload)
	}
}
