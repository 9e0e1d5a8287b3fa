// Package viewer holds the per-browser viewer state machine:
// Idle -> Decoding -> Detecting -> Ready | Failed, one run per selection.
package viewer

import (
	"errors"

	"humandetector/internal/detection"
	"humandetector/internal/intake"
	"humandetector/internal/model"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDecoding
	PhaseDetecting
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDecoding:
		return "decoding"
	case PhaseDetecting:
		return "detecting"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// FailureKind names why a run ended in Failed.
type FailureKind string

const (
	FailureDecode              FailureKind = "decode"
	FailureInvalidDimensions   FailureKind = "invalid_dimensions"
	FailureDetectorUnavailable FailureKind = "detector_unavailable"
)

// Classify maps a run error to its failure kind.
func Classify(err error) FailureKind {
	var decodeErr *intake.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		return FailureDecode
	case errors.Is(err, detection.ErrInvalidDimensions):
		return FailureInvalidDimensions
	default:
		return FailureDetectorUnavailable
	}
}

// State is one of Idle, Decoding, Detecting, Ready or Failed. Each carries
// only the data that is valid in that phase.
type State interface {
	Phase() Phase
	// Seq is the selection the state belongs to; zero for Idle.
	Seq() uint64
	state()
}

// Idle: nothing selected yet.
type Idle struct{}

// Decoding: a file was chosen and is being decoded. Any previous image and
// detections are gone.
type Decoding struct {
	Sequence uint64
	Filename string
}

// Detecting: the bitmap is on display and the detector is running.
type Detecting struct {
	Sequence uint64
	Bitmap   *intake.Bitmap
}

// Ready: the bitmap with its rescaled detections.
type Ready struct {
	Sequence   uint64
	Bitmap     *intake.Bitmap
	Rendered   model.Size
	Detections []model.RescaledDetection
}

// Failed: the run ended with an error. Bitmap is set when decoding
// succeeded, so the image stays on display without boxes.
type Failed struct {
	Sequence uint64
	Kind     FailureKind
	Err      error
	Bitmap   *intake.Bitmap
}

func (Idle) Phase() Phase      { return PhaseIdle }
func (Decoding) Phase() Phase  { return PhaseDecoding }
func (Detecting) Phase() Phase { return PhaseDetecting }
func (Ready) Phase() Phase     { return PhaseReady }
func (Failed) Phase() Phase    { return PhaseFailed }

func (Idle) Seq() uint64        { return 0 }
func (s Decoding) Seq() uint64  { return s.Sequence }
func (s Detecting) Seq() uint64 { return s.Sequence }
func (s Ready) Seq() uint64     { return s.Sequence }
func (s Failed) Seq() uint64    { return s.Sequence }

func (Idle) state()      {}
func (Decoding) state()  {}
func (Detecting) state() {}
func (Ready) state()     {}
func (Failed) state()    {}

// Partition splits the detections for person and non-person display.
func (r Ready) Partition() (persons, others []model.RescaledDetection) {
	return detection.Partition(r.Detections)
}

// Busy reports whether the loading indicator should be shown.
func Busy(s State) bool {
	p := s.Phase()
	return p == PhaseDecoding || p == PhaseDetecting
}

// DisplayedBitmap returns the bitmap on screen in s, or nil.
func DisplayedBitmap(s State) *intake.Bitmap {
	switch st := s.(type) {
	case Detecting:
		return st.Bitmap
	case Ready:
		return st.Bitmap
	case Failed:
		return st.Bitmap
	}
	return nil
}
