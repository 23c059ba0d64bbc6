package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// BytesPerPixel is the fixed sample count of a PixelBuffer pixel (B, G, R, A).
const BytesPerPixel = 4

// PixelBuffer is a tightly packed width×height grid of 8-bit BGRA samples.
//
// The channel order is fixed to B, G, R, A to match the frame data delivered by
// video decoders, and the invariant len(Pix) == Width*Height*4 holds for every
// buffer produced by this package. Transforms that change dimensions always
// allocate a new buffer.
//
// A PixelBuffer is owned by exactly one pipeline run. Nothing in this package
// mutates a buffer after handing it to a caller.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

// NewPixelBuffer allocates a zeroed (transparent black) buffer.
//
// Negative dimensions are treated as zero so that a degenerate request yields an
// empty buffer rather than a panic.
func NewPixelBuffer(width, height int) *PixelBuffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*BytesPerPixel),
	}
}

// FromImage copies any image.Image into a new BGRA PixelBuffer.
//
// The source is first normalised to non-premultiplied RGBA with imaging.Clone so that
// paletted, YCbCr and 16-bit images all convert the same way.
func FromImage(img image.Image) *PixelBuffer {
	bounds := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = imaging.Clone(img)
	}

	buf := NewPixelBuffer(bounds.Dx(), bounds.Dy())
	for y := 0; y < buf.Height; y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+buf.Width*4]
		dst := buf.Pix[y*buf.Width*4 : (y+1)*buf.Width*4]
		for i := 0; i < len(src); i += 4 {
			dst[i] = src[i+2]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i]
			dst[i+3] = src[i+3]
		}
	}
	return buf
}

// ToImage converts the buffer to an *image.NRGBA for encoding or hand-off to
// libraries that speak image.Image.
func (b *PixelBuffer) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i := 0; i < len(b.Pix); i += 4 {
		img.Pix[i] = b.Pix[i+2]
		img.Pix[i+1] = b.Pix[i+1]
		img.Pix[i+2] = b.Pix[i]
		img.Pix[i+3] = b.Pix[i+3]
	}
	return img
}

// Bounds returns the buffer rectangle anchored at the origin.
func (b *PixelBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// Empty reports whether the buffer has zero area.
func (b *PixelBuffer) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Valid reports whether the sample slice length matches the dimensions.
func (b *PixelBuffer) Valid() bool {
	return b.Width >= 0 && b.Height >= 0 && len(b.Pix) == b.Width*b.Height*BytesPerPixel
}

// Clone returns an independent copy of the buffer.
func (b *PixelBuffer) Clone() *PixelBuffer {
	pix := make([]byte, len(b.Pix))
	copy(pix, b.Pix)
	return &PixelBuffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// offset returns the index of the B sample of pixel (x, y).
func (b *PixelBuffer) offset(x, y int) int {
	return (y*b.Width + x) * BytesPerPixel
}

// At returns the pixel at (x, y) as an NRGBA colour.
func (b *PixelBuffer) At(x, y int) color.NRGBA {
	i := b.offset(x, y)
	return color.NRGBA{R: b.Pix[i+2], G: b.Pix[i+1], B: b.Pix[i], A: b.Pix[i+3]}
}

// Set writes an NRGBA colour at (x, y).
func (b *PixelBuffer) Set(x, y int, c color.NRGBA) {
	i := b.offset(x, y)
	b.Pix[i] = c.B
	b.Pix[i+1] = c.G
	b.Pix[i+2] = c.R
	b.Pix[i+3] = c.A
}

// Luma returns the ITU-R BT.601 brightness of pixel (x, y).
func (b *PixelBuffer) Luma(x, y int) float64 {
	i := b.offset(x, y)
	return luma(b.Pix[i+2], b.Pix[i+1], b.Pix[i])
}

func luma(r, g, bl byte) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)
}

// Crop copies the rectangle r out of the buffer into a new, exclusively owned
// buffer. The rectangle must lie inside the buffer; callers clamp first.
func (b *PixelBuffer) Crop(r image.Rectangle) (*PixelBuffer, error) {
	if r.Empty() {
		return nil, fmt.Errorf("empty crop rectangle %v", r)
	}
	if !r.In(b.Bounds()) {
		return nil, fmt.Errorf("crop rectangle %v outside buffer bounds %v", r, b.Bounds())
	}

	out := NewPixelBuffer(r.Dx(), r.Dy())
	rowBytes := r.Dx() * BytesPerPixel
	for y := 0; y < r.Dy(); y++ {
		src := b.offset(r.Min.X, r.Min.Y+y)
		copy(out.Pix[y*rowBytes:(y+1)*rowBytes], b.Pix[src:src+rowBytes])
	}
	return out, nil
}

// CountBright returns the number of pixels whose luma exceeds threshold.
func (b *PixelBuffer) CountBright(threshold float64) int {
	n := 0
	for i := 0; i < len(b.Pix); i += BytesPerPixel {
		if luma(b.Pix[i+2], b.Pix[i+1], b.Pix[i]) > threshold {
			n++
		}
	}
	return n
}
