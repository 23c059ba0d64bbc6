package frame

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/timestamp-roi/internal/imaging"
)

// Cached remembers frames captured by Source under Key(path, position).
// Still images are cached by the StillSource itself and pass straight through.
type Cached struct {
	Source Source
	Cache  *imaging.FrameCache
}

// NewCached wraps src with cache.
func NewCached(src Source, cache *imaging.FrameCache) *Cached {
	return &Cached{Source: src, Cache: cache}
}

func (c *Cached) Capture(ctx context.Context, path string, position time.Duration) (*imaging.PixelBuffer, error) {
	if imaging.IsStillImage(path) {
		return c.Source.Capture(ctx, path, position)
	}

	key := Key(path, position)
	if buf, ok := c.Cache.Get(key); ok {
		return buf, nil
	}
	buf, err := c.Source.Capture(ctx, path, position)
	if err != nil {
		return nil, err
	}
	c.Cache.Put(key, buf)
	return buf.Clone(), nil
}

// ParsePosition reads a seek position. It accepts Go durations ("1m2.5s"),
// clock form ("01:02.5" or "1:01:02") and plain seconds ("62.5").
// An empty string means the start of the file.
func ParsePosition(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	var d time.Duration
	switch {
	case strings.Contains(s, ":"):
		parts := strings.Split(s, ":")
		if len(parts) > 3 {
			return 0, fmt.Errorf("invalid position %q", s)
		}
		var secs float64
		for _, p := range parts {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil || v < 0 || !finite(v) {
				return 0, fmt.Errorf("invalid position %q", s)
			}
			secs = secs*60 + v
		}
		if !finite(secs) {
			return 0, fmt.Errorf("invalid position %q", s)
		}
		d = time.Duration(secs * float64(time.Second))
	default:
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			if !finite(secs) {
				return 0, fmt.Errorf("invalid position %q", s)
			}
			d = time.Duration(secs * float64(time.Second))
			break
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid position %q: %w", s, err)
		}
		d = parsed
	}

	if d < 0 {
		return 0, fmt.Errorf("negative position %q", s)
	}
	return d, nil
}

// finite reports whether v seconds is a number that fits in a Duration.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && math.Abs(v*float64(time.Second)) < math.MaxInt64
}
