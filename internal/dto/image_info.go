package dto

// ImageInfo describes the bitmap on display.
type ImageInfo struct {
	Name           string  `json:"name"`
	MIME           string  `json:"mime"`
	DataURL        string  `json:"dataUrl"`
	NaturalWidth   float64 `json:"naturalWidth"`
	NaturalHeight  float64 `json:"naturalHeight"`
	RenderedWidth  float64 `json:"renderedWidth,omitempty"`
	RenderedHeight float64 `json:"renderedHeight,omitempty"`
}
