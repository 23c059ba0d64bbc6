package ocr

import (
	"context"
	"errors"
	"image"

	"github.com/ironsheep/timestamp-roi/internal/imaging"
)

// Sentinel errors shared by every backend. Backends wrap them with detail, so
// callers should test with errors.Is.
var (
	// ErrBackendUninitialized is returned by Recognize before a successful Init.
	ErrBackendUninitialized = errors.New("ocr backend not initialized")

	// ErrBackendInitFailed is returned when the engine cannot be loaded.
	ErrBackendInitFailed = errors.New("ocr backend initialization failed")

	// ErrRecognitionFailed is returned when the engine ran but produced an error.
	ErrRecognitionFailed = errors.New("ocr recognition failed")
)

// Capability describes what a backend returns besides plain text.
type Capability int

const (
	// CapabilityText backends return recognized text only.
	CapabilityText Capability = iota

	// CapabilityGeometry backends also return lines and words with pixel boxes,
	// which is required for locating the timestamp in a full frame.
	CapabilityGeometry
)

func (c Capability) String() string {
	switch c {
	case CapabilityGeometry:
		return "geometry"
	case CapabilityText:
		return "text"
	}
	return "unknown"
}

// Word is a single recognized token and its bounding box in the submitted
// buffer's pixel coordinates.
type Word struct {
	Text       string          `json:"text"`
	Bounds     image.Rectangle `json:"bounds"`
	Confidence float64         `json:"confidence"`
}

// Line is a run of words the engine grouped together.
type Line struct {
	Text   string          `json:"text"`
	Words  []Word          `json:"words"`
	Bounds image.Rectangle `json:"bounds"`
}

// Result is the output of a single recognition.
//
// Lines is empty for text-only backends.
type Result struct {
	Text       string  `json:"text"`
	Lines      []Line  `json:"lines,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Info reports the availability of a backend, for display to users.
type Info struct {
	Name       string `json:"name"`
	Available  bool   `json:"available"`
	Capability string `json:"capability"`
	Version    string `json:"version,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Backend is an OCR engine that turns a preprocessed buffer into text.
//
// Init must be idempotent. Recognize must not retain or modify the buffer.
type Backend interface {
	Name() string
	Capability() Capability
	Init(ctx context.Context) error
	Recognize(ctx context.Context, buf *imaging.PixelBuffer) (*Result, error)
	Info() Info
}
