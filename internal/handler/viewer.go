package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"humandetector/internal/config"
	"humandetector/internal/dto"
	"humandetector/internal/intake"
	"humandetector/internal/layout"
	"humandetector/internal/logger"
	"humandetector/internal/service/render"
	"humandetector/internal/viewer"
)

// SelectHandler handles POST /api/select: the multipart "file" is run
// through the pipeline and the state the run ended in is returned.
//
// The rendered size comes from renderedWidth/renderedHeight when the page
// measured the attached image itself, otherwise the image is fitted into
// viewportWidth/viewportHeight or the configured display box.
func SelectHandler(manager *viewer.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes())
		if err := r.ParseMultipartForm(cfg.MaxUploadBytes()); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "Image is larger than "+strconv.FormatInt(cfg.MaxUploadMB, 10)+"MB", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, err := readUpload(r)
		if err != nil {
			logger.Error("Error reading upload: %v", err)
			http.Error(w, "Error reading upload", http.StatusBadRequest)
			return
		}

		session := manager.Session(sessionID(r))
		st, err := session.Select(r.Context(), file, layoutFor(r, cfg))
		if err != nil && !errors.Is(err, intake.ErrNoFile) {
			logger.Warning("Selection for session %s ended with: %v", session.ID(), err)
		}

		writeJSON(w, logger, statusFor(err), dto.NewStateView(session.ID(), st))
	}
}

// readUpload returns the chosen file, or nil when the picker was closed
// without a choice.
func readUpload(r *http.Request) (*intake.File, error) {
	part, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer part.Close()

	if header.Filename == "" && header.Size == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, part); err != nil {
		return nil, err
	}
	return &intake.File{Name: header.Filename, Data: buf.Bytes()}, nil
}

func layoutFor(r *http.Request, cfg *config.Config) layout.Layout {
	if rw := r.FormValue("renderedWidth"); rw != "" {
		// Zero or garbage measurements are passed through so the run fails
		// with invalid dimensions instead of guessing.
		w, _ := strconv.ParseFloat(rw, 64)
		h, _ := strconv.ParseFloat(r.FormValue("renderedHeight"), 64)
		return layout.Fixed{Width: w, Height: h}
	}

	fit := layout.Fit{MaxWidth: float64(cfg.DisplayMaxWidth), MaxHeight: float64(cfg.DisplayMaxHeight)}
	if vw, ok := atofPositive(r.FormValue("viewportWidth")); ok {
		fit.MaxWidth = vw
	}
	if vh, ok := atofPositive(r.FormValue("viewportHeight")); ok {
		fit.MaxHeight = vh
	}
	return fit
}

// StateHandler handles GET /api/state.
func StateHandler(manager *viewer.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := sessionID(r)
		var st viewer.State = viewer.Idle{}
		if session, ok := manager.Lookup(id); ok {
			session.Touch()
			st = session.State()
		}
		writeJSON(w, logger, http.StatusOK, dto.NewStateView(id, st))
	}
}

// OverlayHandler handles GET /api/overlay.png: the Ready image at its
// rendered size with the boxes burned in.
func OverlayHandler(manager *viewer.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := manager.Lookup(sessionID(r))
		if !ok {
			http.Error(w, "No image selected", http.StatusNotFound)
			return
		}
		ready, ok := session.State().(viewer.Ready)
		if !ok {
			http.Error(w, "No detections available", http.StatusNotFound)
			return
		}

		img, err := render.Overlay(ready.Bitmap.Image, ready.Rendered, ready.Detections)
		if err != nil {
			logger.Error("Error rendering overlay for session %s: %v", session.ID(), err)
			http.Error(w, "Error rendering overlay", http.StatusInternalServerError)
			return
		}

		var buf bytes.Buffer
		if err := render.EncodePNG(&buf, img); err != nil {
			logger.Error("Error encoding overlay: %v", err)
			http.Error(w, "Error encoding overlay", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(buf.Bytes())
	}
}
