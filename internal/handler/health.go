package handler

import (
	"net/http"

	"humandetector/internal/detection"
	"humandetector/internal/logger"
	ws "humandetector/internal/service/websocket"
	"humandetector/internal/viewer"
)

type healthResponse struct {
	Status   string `json:"status"`
	Detector string `json:"detector"`
	Sessions int    `json:"sessions"`
	Clients  int    `json:"clients"`
}

// HealthHandler reports liveness. A detector that has not loaded yet is
// reported as "loading"; it is loaded again on the next selection.
func HealthHandler(pipeline *detection.Pipeline, manager *viewer.Manager, hub *ws.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:   "ok",
			Detector: "loading",
			Sessions: manager.Count(),
			Clients:  hub.GetClientCount(),
		}
		if pipeline.Ready() {
			resp.Detector = "ready"
		}
		writeJSON(w, logger, http.StatusOK, resp)
	}
}
