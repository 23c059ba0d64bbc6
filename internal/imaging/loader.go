package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FrameCache provides thread-safe caching of decoded frames.
//
// Frames are stored as PixelBuffers keyed by an arbitrary string: the file path
// for still images, or a "path@position" key for frames captured from video.
// Callers receive clones, so a cached frame is never mutated by a pipeline run.
//
// FrameCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached frames remain in memory until explicitly removed via Evict() or Clear().
// A 4K BGRA frame is roughly 33 MB, so long-running servers should evict frames
// they no longer need.
//
// # Example Usage
//
//	cache := imaging.NewFrameCache()
//	frame, err := cache.Load("/path/to/frame.png")
//	if err != nil {
//	    return err
//	}
//	cache.Evict("/path/to/frame.png") // Optional: free memory
type FrameCache struct {
	mu     sync.RWMutex
	frames map[string]*PixelBuffer
}

// NewFrameCache creates and initializes a new empty frame cache.
func NewFrameCache() *FrameCache {
	return &FrameCache{
		frames: make(map[string]*PixelBuffer),
	}
}

// Load retrieves a still image from the cache or decodes it from disk.
//
// Supported formats are PNG, JPEG, and GIF. The returned buffer is a private
// copy the caller may consume freely.
func (c *FrameCache) Load(path string) (*PixelBuffer, error) {
	if buf, ok := c.Get(path); ok {
		return buf, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	buf := FromImage(img)
	c.Put(path, buf)
	return buf.Clone(), nil
}

// Get returns a copy of the cached frame for key, if present.
func (c *FrameCache) Get(key string) (*PixelBuffer, bool) {
	c.mu.RLock()
	buf, ok := c.frames[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return buf.Clone(), true
}

// Put stores a copy of buf under key, replacing any previous entry.
func (c *FrameCache) Put(key string, buf *PixelBuffer) {
	stored := buf.Clone()
	c.mu.Lock()
	c.frames[key] = stored
	c.mu.Unlock()
}

// Len returns the number of cached frames.
func (c *FrameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}

// Clear removes all frames from the cache.
func (c *FrameCache) Clear() {
	c.mu.Lock()
	c.frames = make(map[string]*PixelBuffer)
	c.mu.Unlock()
}

// Evict removes a specific frame from the cache by its key.
func (c *FrameCache) Evict(key string) {
	c.mu.Lock()
	delete(c.frames, key)
	c.mu.Unlock()
}

// FrameInfo contains metadata about a frame source file.
type FrameInfo struct {
	// Width is the frame width in pixels.
	Width int `json:"width"`

	// Height is the frame height in pixels.
	Height int `json:"height"`

	// Format is "png", "jpeg", "gif", or "unknown", from the file extension.
	Format string `json:"format"`

	// FileSizeBytes is the size of the source file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// IsStillImage reports whether path has an extension this package can decode.
func IsStillImage(path string) bool {
	return formatFromExt(path) != "unknown"
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	}
	return "unknown"
}

// LoadFrameInfo loads a still image through the cache and reports its metadata.
func LoadFrameInfo(cache *FrameCache, path string) (*FrameInfo, error) {
	buf, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &FrameInfo{
		Width:         buf.Width,
		Height:        buf.Height,
		Format:        formatFromExt(path),
		FileSizeBytes: stat.Size(),
	}, nil
}
