package viewer

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"humandetector/internal/intake"
	"humandetector/internal/layout"
	"humandetector/internal/logger"
	"humandetector/internal/model"
)

// ErrSuperseded is returned by a run whose selection was replaced by a
// newer one before it finished. Its results are discarded.
var ErrSuperseded = errors.New("selection superseded by a newer one")

// Detector is the detection and rescale step of a run.
type Detector interface {
	Detect(ctx context.Context, bitmap image.Image, natural, rendered model.Size) ([]model.RescaledDetection, error)
}

// Observer is told about every state change of a session, in order.
type Observer func(sessionID string, st State)

// Session is the viewer of one browser. Only the newest selection may
// change its state.
type Session struct {
	id       string
	detector Detector
	observe  Observer
	logger   *logger.Logger

	mu       sync.Mutex
	seq      uint64
	state    State
	lastSeen time.Time
}

func NewSession(id string, detector Detector, observe Observer, logger *logger.Logger) *Session {
	return &Session{
		id:       id,
		detector: detector,
		observe:  observe,
		logger:   logger,
		state:    Idle{},
		lastSeen: time.Now(),
	}
}

func (s *Session) ID() string {
	return s.id
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Select runs the whole pipeline for a newly chosen file and returns the
// state the run ended in. A nil file leaves the session untouched and
// returns intake.ErrNoFile. A run overtaken by a newer selection returns the
// newer selection's current state and ErrSuperseded.
func (s *Session) Select(ctx context.Context, file *intake.File, lay layout.Layout) (State, error) {
	if file == nil {
		return s.State(), intake.ErrNoFile
	}

	seq := s.begin(file.Name)

	bitmap, err := intake.Decode(ctx, file)
	if err != nil {
		return s.finish(Failed{Sequence: seq, Kind: FailureDecode, Err: err})
	}

	// The bitmap goes on display before the rendered size is measured.
	if current, ok := s.apply(Detecting{Sequence: seq, Bitmap: bitmap}); !ok {
		return current, ErrSuperseded
	}
	rendered := lay.Measure(bitmap.Natural)

	detections, err := s.detector.Detect(ctx, bitmap.Image, bitmap.Natural, rendered)
	if err != nil {
		return s.finish(Failed{Sequence: seq, Kind: Classify(err), Err: err, Bitmap: bitmap})
	}

	return s.finish(Ready{
		Sequence:   seq,
		Bitmap:     bitmap,
		Rendered:   rendered,
		Detections: detections,
	})
}

// begin allocates the next sequence number and enters Decoding, which
// clears whatever the previous selection left on display.
func (s *Session) begin(filename string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.lastSeen = time.Now()
	s.setLocked(Decoding{Sequence: s.seq, Filename: filename})
	return s.seq
}

// apply stores next if its selection is still the newest one. Otherwise it
// returns the current state and false.
func (s *Session) apply(next State) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if next.Seq() != s.seq {
		s.logger.Warning("Session %s: discarding %s result of selection %d, selection %d is current",
			s.id, next.Phase(), next.Seq(), s.seq)
		return s.state, false
	}
	s.setLocked(next)
	return next, true
}

func (s *Session) finish(next State) (State, error) {
	current, ok := s.apply(next)
	if !ok {
		return current, ErrSuperseded
	}
	if failed, isFailed := next.(Failed); isFailed {
		s.logger.Error("Session %s: selection %d failed (%s): %v", s.id, failed.Sequence, failed.Kind, failed.Err)
		return next, failed.Err
	}
	return next, nil
}

// setLocked must be called with s.mu held so observers see transitions in order.
func (s *Session) setLocked(next State) {
	s.state = next
	if s.observe != nil {
		s.observe(s.id, next)
	}
}

// Touch marks the session as used now.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// idleSince reports when the session was last used, and whether a run is in flight.
func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen, Busy(s.state)
}
