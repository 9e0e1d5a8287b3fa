package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"humandetector/internal/config"
	"humandetector/internal/detection"
	"humandetector/internal/intake"
	"humandetector/internal/layout"
	"humandetector/internal/viewer"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{intake.ErrNoFile, http.StatusBadRequest},
		{&intake.DecodeError{Filename: "a", Err: errors.New("bad")}, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: 0x0", detection.ErrInvalidDimensions), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: load: boom", detection.ErrDetectorUnavailable), http.StatusServiceUnavailable},
		{viewer.ErrSuperseded, http.StatusConflict},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func formRequest(values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/select", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ParseForm()
	return r
}

func TestLayoutFor(t *testing.T) {
	cfg := &config.Config{DisplayMaxWidth: 1152, DisplayMaxHeight: 700}

	tests := []struct {
		name   string
		values url.Values
		want   layout.Layout
	}{
		{"measured", url.Values{"renderedWidth": {"320"}, "renderedHeight": {"240"}}, layout.Fixed{Width: 320, Height: 240}},
		{"zero measurement", url.Values{"renderedWidth": {"0"}, "renderedHeight": {"0"}}, layout.Fixed{}},
		{"viewport", url.Values{"viewportWidth": {"800"}, "viewportHeight": {"600"}}, layout.Fit{MaxWidth: 800, MaxHeight: 600}},
		{"bad viewport", url.Values{"viewportWidth": {"-1"}}, layout.Fit{MaxWidth: 1152, MaxHeight: 700}},
		{"default", url.Values{}, layout.Fit{MaxWidth: 1152, MaxHeight: 700}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := layoutFor(formRequest(tt.values), cfg); got != tt.want {
				t.Errorf("Expected %#v, got %#v", tt.want, got)
			}
		})
	}
}
