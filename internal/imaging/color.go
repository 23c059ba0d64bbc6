package imaging

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBAColor represents an RGBA color with 8-bit components including alpha.
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorResult contains a sampled pixel in several representations.
type ColorResult struct {
	Hex  string    `json:"hex"`  // "#RRGGBB" (no alpha)
	RGBA RGBAColor `json:"rgba"` // 8-bit components with alpha
	HSL  HSLColor  `json:"hsl"`
	Luma float64   `json:"luma"` // BT.601 luma, 0-255
}

// SampleColor reports the colour at (x, y).
//
// Coordinates are 0-based with origin at top-left. Sampling outside the buffer
// is an error.
func SampleColor(buf *PixelBuffer, x, y int) (*ColorResult, error) {
	if x < 0 || x >= buf.Width || y < 0 || y >= buf.Height {
		return nil, fmt.Errorf("coordinates (%d,%d) outside frame bounds", x, y)
	}

	px := buf.At(x, y)
	c := toColorful(px.R, px.G, px.B)
	h, s, l := c.Hsl()

	return &ColorResult{
		Hex:  c.Hex(),
		RGBA: RGBAColor{R: px.R, G: px.G, B: px.B, A: px.A},
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
		Luma: math.Round(buf.Luma(x, y)*100) / 100,
	}, nil
}

// BackgroundReport summarises the tonal balance of a region.
type BackgroundReport struct {
	// MeanHex is the average colour of the region.
	MeanHex string `json:"mean_hex"`

	// Lightness is the mean CIE L* of the region, 0 (black) to 1 (white).
	Lightness float64 `json:"lightness"`

	// SuggestInvert is true when the region is mostly light, which usually means
	// dark text on a light background. Dilation thickens bright strokes, so such
	// regions should be inverted first.
	SuggestInvert bool `json:"suggest_invert"`
}

// AnalyzeBackground averages the region's colour and lightness.
//
// Lightness is computed per pixel in CIE L*a*b* rather than from the mean RGB
// so that a black/white checkerboard reads as mid-grey, not as a washed-out
// average. An empty buffer reports zero lightness and no suggestion.
func AnalyzeBackground(buf *PixelBuffer) BackgroundReport {
	if buf.Empty() {
		return BackgroundReport{MeanHex: "#000000"}
	}

	var sumR, sumG, sumB, sumL float64
	n := 0
	for i := 0; i < len(buf.Pix); i += BytesPerPixel {
		c := toColorful(buf.Pix[i+2], buf.Pix[i+1], buf.Pix[i])
		l, _, _ := c.Lab()
		sumL += l
		sumR += c.R
		sumG += c.G
		sumB += c.B
		n++
	}

	count := float64(n)
	mean := colorful.Color{R: sumR / count, G: sumG / count, B: sumB / count}
	lightness := sumL / count

	return BackgroundReport{
		MeanHex:       mean.Hex(),
		Lightness:     math.Round(lightness*1000) / 1000,
		SuggestInvert: lightness > 0.5,
	}
}

func toColorful(r, g, b uint8) colorful.Color {
	return colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
}
