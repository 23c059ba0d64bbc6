package detection

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/timestamp-roi/internal/imaging"
)

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// createTextPatternImage creates an image with text-like edge patterns
func createTextPatternImage(width, height int) *image.RGBA {
	img := createTestImage(width, height, color.White)
	for y := 20; y < 80; y += 10 {
		for x := 20; x < width-20; x++ {
			if x%15 < 5 {
				img.Set(x, y, color.Black)
				img.Set(x, y+1, color.Black)
				img.Set(x, y+5, color.Black)
			}
		}
	}
	return img
}

// createOverlayFrame draws a white clock on a black frame with the baseline at
// (x, y) and returns the frame and the approximate text box.
func createOverlayFrame(width, height, x, y int, text string) (*imaging.PixelBuffer, image.Rectangle) {
	img := createTestImage(width, height, color.Black)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
	box := image.Rect(x, y-13, x+7*len(text), y+3)
	return imaging.FromImage(img), box
}

func TestTextCandidatesEmptyImage(t *testing.T) {
	buf := imaging.FromImage(createTestImage(200, 150, color.White))
	assert.Empty(t, TextCandidates(buf, 0))
}

func TestTextCandidatesTiny(t *testing.T) {
	assert.Nil(t, TextCandidates(imaging.NewPixelBuffer(2, 2), 0))
	assert.Nil(t, TextCandidates(imaging.NewPixelBuffer(0, 0), 0))
}

func TestTextCandidatesSmallerThanWindows(t *testing.T) {
	buf := imaging.FromImage(createTextPatternImage(60, 20))
	assert.Empty(t, TextCandidates(buf, 0))
}

func TestTextCandidatesMinConfidence(t *testing.T) {
	buf := imaging.FromImage(createTextPatternImage(200, 150))

	low := TextCandidates(buf, 0.1)
	high := TextCandidates(buf, 0.8)
	assert.LessOrEqual(t, len(high), len(low))

	for _, c := range high {
		assert.GreaterOrEqual(t, c.Confidence, 0.8)
	}
}

func TestTextCandidatesFindsOverlay(t *testing.T) {
	frame, box := createOverlayFrame(640, 360, 400, 300, "12:34:56")

	got := TextCandidates(frame, 0)
	require.NotEmpty(t, got)

	near := box.Inset(-2)
	for _, c := range got {
		assert.True(t, c.Bounds.Overlaps(near), "candidate %v far from text %v", c.Bounds, box)
		assert.True(t, c.Bounds.In(frame.Bounds()))
	}

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Confidence, got[i].Confidence)
	}
}

func TestMergeOverlapping(t *testing.T) {
	in := []Candidate{
		{Bounds: image.Rect(0, 0, 10, 10), Confidence: 0.2},
		{Bounds: image.Rect(5, 5, 15, 15), Confidence: 0.6},
		{Bounds: image.Rect(50, 50, 60, 60), Confidence: 0.4},
	}
	got := mergeOverlapping(in)
	require.Len(t, got, 2)
	assert.Equal(t, image.Rect(0, 0, 15, 15), got[0].Bounds)
	assert.Equal(t, 0.6, got[0].Confidence)
	assert.Equal(t, image.Rect(50, 50, 60, 60), got[1].Bounds)

	assert.Empty(t, mergeOverlapping(nil))
}

func TestHorizontalScore(t *testing.T) {
	edges := make([][]bool, 5)
	for y := range edges {
		edges[y] = make([]bool, 5)
	}
	assert.Zero(t, horizontalScore(edges, 0, 0, 5, 5))

	// one horizontal stroke: 1 horizontal run, 5 vertical runs of length 1
	for x := 0; x < 5; x++ {
		edges[2][x] = true
	}
	assert.InDelta(t, 1.0/6.0, horizontalScore(edges, 0, 0, 5, 5), 1e-9)
}
