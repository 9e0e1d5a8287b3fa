package route

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"humandetector/internal/config"
	"humandetector/internal/detection"
	"humandetector/internal/handler"
	"humandetector/internal/logger"
	"humandetector/internal/middleware"
	ws "humandetector/internal/service/websocket"
	"humandetector/internal/viewer"
)

// Services are the long-lived collaborators the routes are bound to.
type Services struct {
	Pipeline *detection.Pipeline
	Manager  *viewer.Manager
	Hub      *ws.HubService
}

// dynamicHTMLHandler serves /path as <static>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		if name == "/" {
			name = "/index"
		}
		name = strings.TrimSuffix(name, ".html")

		filePath := filepath.Join(staticDir, filepath.FromSlash(name)+".html")
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers static files, the viewer API and the log endpoints,
// and wraps the mux with the middleware chain.
func SetupRoutes(services Services, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDirectory))))

	// API endpoints
	limit := middleware.RateLimitMiddleware(cfg.RateLimit, cfg.RateBurst, logger)
	mux.Handle("POST /api/select", limit(handler.SelectHandler(services.Manager, cfg, logger)))
	mux.HandleFunc("GET /api/state", handler.StateHandler(services.Manager, logger))
	mux.HandleFunc("GET /api/overlay.png", handler.OverlayHandler(services.Manager, logger))
	mux.HandleFunc("GET /api/ws", handler.ViewWebsocketHandler(services.Manager, services.Hub, logger))
	mux.HandleFunc("GET /health", handler.HealthHandler(services.Pipeline, services.Manager, services.Hub, logger))

	// Log endpoints
	mux.HandleFunc("GET /logs/{level}", handler.ShowLogsHandler(logger))
	mux.HandleFunc("POST /logs/{level}/clear", handler.ClearLogsHandler(logger))

	// Automatic HTML handler mapping, e.g. /about -> <static>/about.html
	mux.HandleFunc("GET /", dynamicHTMLHandler(cfg.StaticDirectory))

	return middleware.Chain(mux,
		middleware.CORSMiddleware(cfg.AllowedOrigins),
		middleware.RequestIDMiddleware,
		middleware.SessionMiddleware,
		middleware.LoggingMiddleware(logger),
	)
}
