package imaging

import (
	"github.com/anthonynsimon/bild/parallel"
)

// DefaultThreshold is the luma cutoff used when binarization is requested
// without an explicit threshold.
const DefaultThreshold = 128

// PreprocessConfig selects the transforms applied to a cropped region before it
// is handed to a recognizer. The zero value applies nothing.
type PreprocessConfig struct {
	// Invert replaces each colour channel v with 255-v. Alpha is untouched.
	Invert bool `json:"invert" yaml:"invert"`

	// Binarize converts the buffer to pure black/white by luma threshold.
	Binarize bool `json:"binarize" yaml:"binarize"`

	// Threshold is the luma cutoff (0-255). Only used when Binarize is set.
	// Pixels with luma strictly greater than Threshold become white.
	Threshold int `json:"threshold" yaml:"threshold"`

	// Dilate applies one pass of a 3×3 maximum filter, thickening bright strokes.
	Dilate bool `json:"dilate" yaml:"dilate"`
}

// DefaultPreprocessConfig returns a config with every transform off and the
// default threshold filled in.
func DefaultPreprocessConfig() PreprocessConfig {
	return PreprocessConfig{Threshold: DefaultThreshold}
}

// Any reports whether at least one transform is enabled.
func (c PreprocessConfig) Any() bool {
	return c.Invert || c.Binarize || c.Dilate
}

// clampedThreshold limits the threshold to the 0-255 sample range.
func (c PreprocessConfig) clampedThreshold() int {
	switch {
	case c.Threshold < 0:
		return 0
	case c.Threshold > 255:
		return 255
	}
	return c.Threshold
}

// Process applies the configured transforms in the fixed order
// invert → binarize → dilate and returns a new buffer. The input is never
// modified. With every transform disabled the result is an unmodified copy.
//
// A zero-area buffer is returned as an empty copy of the same dimensions.
func Process(src *PixelBuffer, cfg PreprocessConfig) *PixelBuffer {
	out := src.Clone()
	if out.Empty() {
		return out
	}

	if cfg.Invert || cfg.Binarize {
		pointOps(out, cfg.Invert, cfg.Binarize, cfg.clampedThreshold())
	}
	if cfg.Dilate {
		out = Dilate(out)
	}
	return out
}

// Invert returns a copy of src with B, G and R replaced by 255-v.
func Invert(src *PixelBuffer) *PixelBuffer {
	out := src.Clone()
	pointOps(out, true, false, 0)
	return out
}

// Binarize returns a two-level copy of src. Pixels with BT.601 luma above
// threshold become opaque white, all others opaque black.
func Binarize(src *PixelBuffer, threshold int) *PixelBuffer {
	out := src.Clone()
	cfg := PreprocessConfig{Threshold: threshold}
	pointOps(out, false, true, cfg.clampedThreshold())
	return out
}

// pointOps runs the per-pixel stages in place on a buffer the caller owns.
func pointOps(buf *PixelBuffer, invert, binarize bool, threshold int) {
	pix := buf.Pix
	t := float64(threshold)
	for i := 0; i < len(pix); i += BytesPerPixel {
		b, g, r := pix[i], pix[i+1], pix[i+2]
		if invert {
			b, g, r = 255-b, 255-g, 255-r
		}
		if binarize {
			var v byte
			if luma(r, g, b) > t {
				v = 255
			}
			b, g, r = v, v, v
			pix[i+3] = 255
		}
		pix[i], pix[i+1], pix[i+2] = b, g, r
	}
}

// Dilate applies a single 3×3 maximum filter and returns a new buffer.
//
// Only the red channel is read: the filter expects a binarized (R=G=B) input
// where foreground text is bright. For every interior pixel B, G and R are set
// to the neighbourhood maximum and alpha to 255.
//
// Border policy: the outermost row and column on each side are not filtered and
// are copied through from the source unchanged. Buffers narrower or shorter
// than three pixels therefore come back as an unmodified copy. Copying keeps the
// filter monotonic everywhere: no output pixel is darker than its input.
//
// Output rows are partitioned across goroutines. Each worker reads only from the
// immutable source and writes only to its own rows, so no locking is needed.
func Dilate(src *PixelBuffer) *PixelBuffer {
	w, h := src.Width, src.Height
	dst := src.Clone()
	if w < 3 || h < 3 {
		return dst
	}

	stride := w * BytesPerPixel
	in := src.Pix
	out := dst.Pix

	parallel.Line(h-2, func(start, end int) {
		for y := start + 1; y < end+1; y++ {
			for x := 1; x < w-1; x++ {
				var max byte
				for ky := -1; ky <= 1; ky++ {
					row := (y + ky) * stride
					for kx := -1; kx <= 1; kx++ {
						if v := in[row+(x+kx)*BytesPerPixel+2]; v > max {
							max = v
						}
					}
				}
				i := y*stride + x*BytesPerPixel
				out[i] = max
				out[i+1] = max
				out[i+2] = max
				out[i+3] = 255
			}
		}
	})
	return dst
}
