package imaging

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvert(t *testing.T) {
	buf := NewPixelBuffer(2, 2)
	for i := 0; i < len(buf.Pix); i += 4 {
		copy(buf.Pix[i:i+4], []byte{30, 20, 10, 40})
	}

	out := Invert(buf)
	assert.Equal(t, []byte{225, 235, 245, 40}, out.Pix[0:4], "alpha must be untouched")
	assert.Equal(t, []byte{30, 20, 10, 40}, buf.Pix[0:4], "input must not be modified")
}

func TestInvert_Idempotence(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {7, 3}, {64, 48}} {
		buf := noiseBuffer(size[0], size[1])
		assert.Equal(t, buf.Pix, Invert(Invert(buf)).Pix)
	}
}

func TestBinarize(t *testing.T) {
	tests := []struct {
		name      string
		c         color.RGBA
		threshold int
		want      byte
	}{
		{"white above", color.RGBA{255, 255, 255, 255}, 128, 255},
		{"black below", color.RGBA{0, 0, 0, 255}, 128, 0},
		{"pure green above", color.RGBA{0, 255, 0, 255}, 128, 255}, // luma 149.7
		{"pure red below", color.RGBA{255, 0, 0, 255}, 128, 0},     // luma 76.2
		{"just below is black", color.RGBA{127, 127, 127, 255}, 128, 0},
		{"threshold clamps high", color.RGBA{250, 250, 250, 255}, 999, 0},
		{"threshold clamps low", color.RGBA{1, 1, 1, 255}, -5, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := FromImage(createInMemoryImage(3, 3, tt.c))
			out := Binarize(buf, tt.threshold)
			assert.Equal(t, []byte{tt.want, tt.want, tt.want, 255}, out.Pix[0:4])
		})
	}
}

func TestBinarize_ForcesOpaque(t *testing.T) {
	buf := NewPixelBuffer(2, 1)
	copy(buf.Pix, []byte{255, 255, 255, 0, 0, 0, 0, 7})

	out := Binarize(buf, 128)
	assert.Equal(t, []byte{255, 255, 255, 255, 0, 0, 0, 255}, out.Pix)
}

func TestBinarize_Stability(t *testing.T) {
	buf := noiseBuffer(40, 30)
	for _, threshold := range []int{0, 64, 128, 200, 255} {
		once := Binarize(buf, threshold)
		twice := Binarize(once, threshold)
		assert.Equal(t, once.Pix, twice.Pix, "threshold %d", threshold)
	}
}

func TestProcess_InvertBeforeBinarize(t *testing.T) {
	// Dark grey text colour: luma 50. Inverted it becomes 205, above 128.
	buf := FromImage(createInMemoryImage(2, 2, color.RGBA{50, 50, 50, 255}))

	out := Process(buf, PreprocessConfig{Invert: true, Binarize: true, Threshold: 128})
	assert.Equal(t, []byte{255, 255, 255, 255}, out.Pix[0:4])

	out = Process(buf, PreprocessConfig{Binarize: true, Threshold: 128})
	assert.Equal(t, []byte{0, 0, 0, 255}, out.Pix[0:4])
}

func TestProcess_NoOpCopy(t *testing.T) {
	buf := noiseBuffer(10, 10)
	out := Process(buf, PreprocessConfig{Threshold: 90})

	assert.Equal(t, buf.Pix, out.Pix)
	out.Pix[0] ^= 0xFF
	assert.NotEqual(t, buf.Pix[0], out.Pix[0], "result must be an independent copy")
}

func TestProcess_ZeroArea(t *testing.T) {
	for _, size := range [][2]int{{0, 0}, {0, 5}, {5, 0}} {
		buf := NewPixelBuffer(size[0], size[1])
		out := Process(buf, PreprocessConfig{Invert: true, Binarize: true, Threshold: 128, Dilate: true})
		assert.Equal(t, size[0], out.Width)
		assert.Equal(t, size[1], out.Height)
		assert.Empty(t, out.Pix)
	}
}

func TestDilate_SinglePixel(t *testing.T) {
	buf := FromImage(createInMemoryImage(5, 5, color.Black))
	buf.Set(2, 2, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	out := Dilate(buf)

	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			want := uint8(0)
			if x >= 1 && x <= 3 && y >= 1 && y <= 3 {
				want = 255
			}
			assert.Equal(t, want, out.At(x, y).R, "pixel (%d,%d)", x, y)
			assert.Equal(t, out.At(x, y).R, out.At(x, y).G)
			assert.Equal(t, out.At(x, y).R, out.At(x, y).B)
		}
	}
}

func TestDilate_ReadsRedChannelOnly(t *testing.T) {
	buf := FromImage(createInMemoryImage(3, 3, color.Black))
	// Bright blue neighbour must be ignored, dim red neighbour must win.
	buf.Set(0, 0, color.NRGBA{B: 255, A: 255})
	buf.Set(2, 2, color.NRGBA{R: 40, A: 255})

	out := Dilate(buf)
	assert.Equal(t, color.NRGBA{R: 40, G: 40, B: 40, A: 255}, out.At(1, 1))
}

func TestDilate_BorderCopied(t *testing.T) {
	buf := noiseBuffer(6, 4)
	out := Dilate(buf)

	for x := 0; x < 6; x++ {
		assert.Equal(t, buf.At(x, 0), out.At(x, 0))
		assert.Equal(t, buf.At(x, 3), out.At(x, 3))
	}
	for y := 0; y < 4; y++ {
		assert.Equal(t, buf.At(0, y), out.At(0, y))
		assert.Equal(t, buf.At(5, y), out.At(5, y))
	}
}

func TestDilate_TinyBuffers(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {2, 10}, {10, 2}} {
		buf := noiseBuffer(size[0], size[1])
		out := Dilate(buf)
		assert.Equal(t, buf.Pix, out.Pix)
	}
}

func TestDilate_Monotonicity(t *testing.T) {
	// Dilation expects R=G=B, so binarize and also test a grey ramp.
	inputs := []*PixelBuffer{
		Binarize(noiseBuffer(50, 40), 128),
		Binarize(noiseBuffer(3, 3), 60),
		createTextBuffer(200, 50, "12:34:56", color.White, color.Black),
	}

	for i, in := range inputs {
		out := Dilate(in)
		require.Equal(t, in.Width, out.Width)
		require.Equal(t, in.Height, out.Height)
		for y := 0; y < in.Height; y++ {
			for x := 0; x < in.Width; x++ {
				if out.Luma(x, y) < in.Luma(x, y) {
					t.Fatalf("input %d: pixel (%d,%d) darkened from %.1f to %.1f", i, x, y, in.Luma(x, y), out.Luma(x, y))
				}
			}
		}
	}
}

func TestDilate_MatchesSequential(t *testing.T) {
	in := Binarize(noiseBuffer(97, 211), 140)
	got := Dilate(in)

	want := in.Clone()
	for y := 1; y < in.Height-1; y++ {
		for x := 1; x < in.Width-1; x++ {
			var max uint8
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					if v := in.At(x+kx, y+ky).R; v > max {
						max = v
					}
				}
			}
			want.Set(x, y, color.NRGBA{R: max, G: max, B: max, A: 255})
		}
	}
	assert.Equal(t, want.Pix, got.Pix)
}

func TestProcess_TimestampScenario(t *testing.T) {
	frame := createTextBuffer(200, 50, "12:34:56", color.White, color.Black)

	binarized := Process(frame, PreprocessConfig{Binarize: true, Threshold: 128})
	dilated := Process(frame, PreprocessConfig{Binarize: true, Threshold: 128, Dilate: true})

	require.Equal(t, 200, dilated.Width)
	require.Equal(t, 50, dilated.Height)
	require.True(t, dilated.Valid())

	before := binarized.CountBright(128)
	after := dilated.CountBright(128)
	require.Greater(t, before, 0, "rendered text should produce white pixels")
	assert.Greater(t, after, before, "dilation should thicken the strokes")
}

func TestClampedThreshold(t *testing.T) {
	assert.Equal(t, 0, PreprocessConfig{Threshold: -5}.clampedThreshold())
	assert.Equal(t, 255, PreprocessConfig{Threshold: 999}.clampedThreshold())
	assert.Equal(t, 77, PreprocessConfig{Threshold: 77}.clampedThreshold())
}

func TestDefaultPreprocessConfig(t *testing.T) {
	cfg := DefaultPreprocessConfig()
	assert.Equal(t, DefaultThreshold, cfg.Threshold)
	assert.False(t, cfg.Any())
	assert.True(t, PreprocessConfig{Dilate: true}.Any())
}
