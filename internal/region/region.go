// Package region models the normalized region of interest in which a burned-in
// timestamp is expected.
//
// A Region stores fractions of the frame width (X, W) and height (Y, H) so the
// same ROI applies to any resolution of the same video. Pixel consumers convert
// with ToPixelRect, which always clamps to the frame.
package region

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

// Precision is the number of decimal digits kept when a Region is produced from
// pixels or written out as text.
const Precision = 4

// Region is a rectangle expressed as fractions of the frame dimensions.
//
// Values are not forced into [0,1]; ToPixelRect clamps when converting.
type Region struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// ErrMalformed is returned by Parse for text that is not four decimal fields.
var ErrMalformed = errors.New("region must be four numbers x,y,w,h")

// ToPixelRect maps the region onto a frameW×frameH frame.
//
// Fractions are multiplied by the frame size and truncated toward zero. The
// origin is clamped to be non-negative and the far edges to the frame. ok is
// false when the clamped rectangle has non-positive width or height; callers
// must treat that as an invalid crop, never as a full-frame one.
func (r Region) ToPixelRect(frameW, frameH int) (rect image.Rectangle, ok bool) {
	px := int(r.X * float64(frameW))
	py := int(r.Y * float64(frameH))
	pw := int(r.W * float64(frameW))
	ph := int(r.H * float64(frameH))

	if px < 0 {
		px = 0
	}
	if py < 0 {
		py = 0
	}
	if px+pw > frameW {
		pw = frameW - px
	}
	if py+ph > frameH {
		ph = frameH - py
	}

	if pw <= 0 || ph <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(px, py, px+pw, py+ph), true
}

// FromPixelRect converts a pixel rectangle (origin px,py and size pw×ph) on a
// frameW×frameH frame into a Region rounded to Precision decimal digits.
func FromPixelRect(px, py, pw, ph, frameW, frameH int) Region {
	if frameW <= 0 || frameH <= 0 {
		return Region{}
	}
	fw := float64(frameW)
	fh := float64(frameH)
	return Region{
		X: round(float64(px) / fw),
		Y: round(float64(py) / fh),
		W: round(float64(pw) / fw),
		H: round(float64(ph) / fh),
	}
}

// FromRect is FromPixelRect for an image.Rectangle.
func FromRect(rect image.Rectangle, frameW, frameH int) Region {
	return FromPixelRect(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy(), frameW, frameH)
}

// Validate rejects NaN and infinite fields.
func (r Region) Validate() error {
	for _, v := range []float64{r.X, r.Y, r.W, r.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("region %s: fields must be finite", r)
		}
	}
	return nil
}

// IsZero reports whether every field is zero.
func (r Region) IsZero() bool {
	return r == Region{}
}

// Fields returns the four fields formatted to Precision decimal digits, in the
// order x, y, w, h.
func (r Region) Fields() [4]string {
	return [4]string{format(r.X), format(r.Y), format(r.W), format(r.H)}
}

// String renders the region as "x,y,w,h".
func (r Region) String() string {
	f := r.Fields()
	return strings.Join(f[:], ",")
}

// Parse reads four decimal fields separated by commas and/or whitespace.
func Parse(s string) (Region, error) {
	parts := strings.FieldsFunc(s, func(c rune) bool {
		return c == ',' || c == ';' || c == ' ' || c == '\t'
	})
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("%w: got %q", ErrMalformed, s)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Region{}, fmt.Errorf("%w: field %d %q", ErrMalformed, i+1, p)
		}
		v[i] = f
	}

	r := Region{X: v[0], Y: v[1], W: v[2], H: v[3]}
	if err := r.Validate(); err != nil {
		return Region{}, err
	}
	return r, nil
}

func round(v float64) float64 {
	scale := math.Pow10(Precision)
	return math.Round(v*scale) / scale
}

func format(v float64) string {
	return strconv.FormatFloat(round(v), 'f', Precision, 64)
}
