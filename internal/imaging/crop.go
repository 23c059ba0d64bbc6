package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// EncodedImage contains a buffer rendered as a base64 PNG payload.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Encode renders a buffer as PNG, optionally rescaled.
//
// A scale of 1.0 (or any non-positive value) keeps the native size. Other
// values resize with a nearest-neighbour filter so that binarized output stays
// strictly two-level in the preview.
func Encode(buf *PixelBuffer, scale float64) (*EncodedImage, error) {
	if buf.Empty() {
		return nil, fmt.Errorf("cannot encode empty %dx%d buffer", buf.Width, buf.Height)
	}

	var img image.Image = buf.ToImage()
	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(buf.Width) * scale)
		newHeight := int(float64(buf.Height) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		img = imaging.Resize(img, newWidth, newHeight, imaging.NearestNeighbor)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(out.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// CropImage extracts a rectangle from a decoded image into a new PixelBuffer.
//
// The rectangle is intersected with the image bounds; an empty intersection is
// an error.
func CropImage(img image.Image, r image.Rectangle) (*PixelBuffer, error) {
	r = r.Add(img.Bounds().Min).Intersect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("crop region outside image bounds %v", img.Bounds())
	}
	return FromImage(imaging.Crop(img, r)), nil
}

// PadWhite composites buf onto an opaque white canvas with pad pixels of white
// border on every side. Transparent pixels become white rather than black,
// which keeps recognizers that drop alpha from seeing a black background.
func PadWhite(buf *PixelBuffer, pad int) *PixelBuffer {
	if pad < 0 {
		pad = 0
	}
	canvas := imaging.New(buf.Width+2*pad, buf.Height+2*pad, image.White.C)
	canvas = imaging.Overlay(canvas, buf.ToImage(), image.Pt(pad, pad), 1.0)
	return FromImage(canvas)
}
