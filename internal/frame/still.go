package frame

import (
	"context"
	"fmt"
	"time"

	"github.com/ironsheep/timestamp-roi/internal/imaging"
)

// StillSource serves image files as frames. Position is ignored.
type StillSource struct {
	Cache *imaging.FrameCache
}

// NewStillSource returns a source reading through cache, or a private cache
// when cache is nil.
func NewStillSource(cache *imaging.FrameCache) *StillSource {
	if cache == nil {
		cache = imaging.NewFrameCache()
	}
	return &StillSource{Cache: cache}
}

func (s *StillSource) Capture(ctx context.Context, path string, position time.Duration) (*imaging.PixelBuffer, error) {
	if ctx.Err() != nil {
		return nil, canceled(ctx)
	}
	buf, err := s.Cache.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFrameUnavailable, err)
	}
	return buf, nil
}

// Auto dispatches to Still for image files and Video for everything else.
type Auto struct {
	Still Source
	Video Source
}

func (a *Auto) Capture(ctx context.Context, path string, position time.Duration) (*imaging.PixelBuffer, error) {
	if imaging.IsStillImage(path) {
		return a.Still.Capture(ctx, path, position)
	}
	return a.Video.Capture(ctx, path, position)
}
