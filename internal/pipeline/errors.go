package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ironsheep/timestamp-roi/internal/frame"
	"github.com/ironsheep/timestamp-roi/internal/ocr"
)

var (
	// ErrInvalidRegion is returned when the ROI maps to an empty pixel
	// rectangle on the frame, or holds non-finite values.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrGeometryUnsupported is returned by AutoLocate for text-only backends.
	ErrGeometryUnsupported = errors.New("backend does not report text geometry")
)

// Re-exported so callers only need this package to classify failures.
var (
	ErrBackendUninitialized = ocr.ErrBackendUninitialized
	ErrBackendInitFailed    = ocr.ErrBackendInitFailed
	ErrRecognitionFailed    = ocr.ErrRecognitionFailed
	ErrFrameUnavailable     = frame.ErrFrameUnavailable
	ErrCanceled             = frame.ErrCanceled
)

func canceled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
}

// Diagnostic renders a recognition failure the way it is shown to users in
// place of the recognized text.
func Diagnostic(err error) string {
	return fmt.Sprintf("(OCR Error: %v)", err)
}
