// Package frame captures single video frames as PixelBuffers.
//
// FFmpegSource seeks into any container ffmpeg can read and decodes exactly one
// frame at its native resolution. StillSource serves image files through an
// imaging.FrameCache. Auto picks between them by file extension.
package frame

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ironsheep/timestamp-roi/internal/imaging"
)

var (
	// ErrFrameUnavailable is returned when no frame exists at the requested
	// path and position, or the source could not decode it.
	ErrFrameUnavailable = errors.New("frame unavailable")

	// ErrCanceled is returned when the context ends before the frame arrives.
	ErrCanceled = errors.New("operation canceled")
)

// Source delivers one decoded frame per call. The returned buffer is owned by
// the caller.
type Source interface {
	Capture(ctx context.Context, path string, position time.Duration) (*imaging.PixelBuffer, error)
}

// Key identifies a captured frame for caching, as "path@position".
func Key(path string, position time.Duration) string {
	return fmt.Sprintf("%s@%s", path, position)
}

// canceled maps a context error to ErrCanceled, keeping the original cause.
func canceled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
}
