package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// OverlayResult contains a frame with a region outline drawn on it.
type OverlayResult struct {
	EncodedImage
	Rect image.Rectangle `json:"rect"`
}

// DefaultOverlayColor is used when no outline colour is given.
const DefaultOverlayColor = "#FF0000"

// Overlay draws the outline of rect onto a copy of the frame, with an optional
// caption just above (or inside, at the top edge) the rectangle.
//
// Parameters:
//   - frame: Source frame. It is not modified.
//   - rect: Pixel rectangle to outline, already clamped by the caller.
//   - label: Caption text; empty for none.
//   - colorHex: "#RRGGBB" or "#RRGGBBAA". Invalid values fall back to red.
//   - scale: Output scale factor passed to Encode.
func Overlay(frame *PixelBuffer, rect image.Rectangle, label, colorHex string, scale float64) (*OverlayResult, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("cannot draw on empty frame")
	}

	outline, err := parseHexColor(colorHex)
	if err != nil {
		outline, _ = parseHexColor(DefaultOverlayColor)
	}

	dc := gg.NewContextForImage(frame.ToImage())
	dc.SetColor(outline)
	dc.SetLineWidth(2)
	dc.DrawRectangle(float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()))
	dc.Stroke()

	if label != "" {
		dc.SetFontFace(basicfont.Face7x13)
		tw, th := dc.MeasureString(label)
		lx := float64(rect.Min.X)
		ly := float64(rect.Min.Y) - 4
		if ly-th < 0 {
			ly = float64(rect.Min.Y) + th + 2
		}
		dc.SetRGBA(0, 0, 0, 0.7)
		dc.DrawRectangle(lx, ly-th-1, tw+2, th+3)
		dc.Fill()
		dc.SetColor(outline)
		dc.DrawString(label, lx+1, ly)
	}

	encoded, err := Encode(FromImage(dc.Image()), scale)
	if err != nil {
		return nil, err
	}
	return &OverlayResult{EncodedImage: *encoded, Rect: rect}, nil
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}
