package dto

import (
	"humandetector/internal/viewer"
)

// ErrorInfo is the failure shown to the user.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StateView is the JSON snapshot of a viewer session, sent both as HTTP
// responses and over the websocket.
type StateView struct {
	Session string            `json:"session"`
	Phase   string            `json:"phase"`
	Seq     uint64            `json:"seq"`
	Busy    bool              `json:"busy"`
	Image   *ImageInfo        `json:"image,omitempty"`
	Persons []DetectionResult `json:"persons"`
	Objects []DetectionResult `json:"objects"`
	Error   *ErrorInfo        `json:"error,omitempty"`
}

// NewStateView maps a state onto its snapshot. Persons and objects are
// always present, empty outside Ready.
func NewStateView(sessionID string, st viewer.State) StateView {
	view := StateView{
		Session: sessionID,
		Phase:   st.Phase().String(),
		Seq:     st.Seq(),
		Busy:    viewer.Busy(st),
		Persons: []DetectionResult{},
		Objects: []DetectionResult{},
	}

	if bitmap := viewer.DisplayedBitmap(st); bitmap != nil {
		view.Image = &ImageInfo{
			Name:          bitmap.Name,
			MIME:          bitmap.MIME,
			DataURL:       bitmap.DataURL(),
			NaturalWidth:  bitmap.Natural.Width,
			NaturalHeight: bitmap.Natural.Height,
		}
	}

	switch s := st.(type) {
	case viewer.Ready:
		if view.Image != nil {
			view.Image.RenderedWidth = s.Rendered.Width
			view.Image.RenderedHeight = s.Rendered.Height
		}
		persons, others := s.Partition()
		view.Persons = NewDetectionResults(persons)
		view.Objects = NewDetectionResults(others)
	case viewer.Failed:
		view.Error = &ErrorInfo{Kind: string(s.Kind), Message: Message(s.Kind)}
	}
	return view
}

// Message is the user-facing text for a failure kind.
func Message(kind viewer.FailureKind) string {
	switch kind {
	case viewer.FailureDecode:
		return "The selected file could not be read as an image."
	case viewer.FailureInvalidDimensions:
		return "The image has no usable size, so no boxes can be drawn."
	case viewer.FailureDetectorUnavailable:
		return "The detector is unavailable right now. Please try again."
	}
	return "Something went wrong."
}
