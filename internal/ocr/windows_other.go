//go:build !windows

package ocr

import (
	"context"
	"fmt"

	"github.com/ironsheep/timestamp-roi/internal/imaging"
)

// Init always fails: Windows.Media.Ocr only exists on Windows.
func (w *WindowsNative) Init(ctx context.Context) error {
	return fmt.Errorf("%w: Windows OCR is only available on Windows", ErrBackendInitFailed)
}

func (w *WindowsNative) Recognize(ctx context.Context, buf *imaging.PixelBuffer) (*Result, error) {
	return nil, ErrBackendUninitialized
}
