package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"humandetector/internal/detection"
	"humandetector/internal/intake"
	"humandetector/internal/logger"
	"humandetector/internal/middleware"
	"humandetector/internal/viewer"
)

// statusFor maps a run error onto its HTTP status.
func statusFor(err error) int {
	var decodeErr *intake.DecodeError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, intake.ErrNoFile):
		return http.StatusBadRequest
	case errors.Is(err, viewer.ErrSuperseded):
		return http.StatusConflict
	case errors.As(err, &decodeErr), errors.Is(err, detection.ErrInvalidDimensions):
		return http.StatusUnprocessableEntity
	case errors.Is(err, detection.ErrDetectorUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// sessionID is the caller's viewer session; requests that bypassed the
// session middleware share one anonymous session.
func sessionID(r *http.Request) string {
	if id := middleware.SessionFrom(r.Context()); id != "" {
		return id
	}
	return "anonymous"
}

// atofPositive parses a positive float, reporting false for anything else.
func atofPositive(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
