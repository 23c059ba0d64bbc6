package region

import (
	"encoding/json"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPixelRect(t *testing.T) {
	tests := []struct {
		name   string
		r      Region
		w, h   int
		want   image.Rectangle
		wantOK bool
	}{
		{
			name:   "interior",
			r:      Region{X: 0.25, Y: 0.5, W: 0.5, H: 0.25},
			w:      400,
			h:      200,
			want:   image.Rect(100, 100, 300, 150),
			wantOK: true,
		},
		{
			name:   "truncates toward zero",
			r:      Region{X: 0.1, Y: 0.1, W: 0.1, H: 0.1},
			w:      15,
			h:      15,
			want:   image.Rect(1, 1, 2, 2),
			wantOK: true,
		},
		{
			name:   "negative origin clamps to zero",
			r:      Region{X: -0.1, Y: -0.5, W: 0.5, H: 1.0},
			w:      100,
			h:      100,
			want:   image.Rect(0, 0, 50, 100),
			wantOK: true,
		},
		{
			name:   "bottom edge clamped",
			r:      Region{X: 0, Y: 0.8, W: 1, H: 0.5},
			w:      100,
			h:      100,
			want:   image.Rect(0, 80, 100, 100),
			wantOK: true,
		},
		{
			name: "zero width",
			r:    Region{X: 0.5, Y: 0.5, W: 0, H: 0.2},
			w:    100,
			h:    100,
		},
		{
			name: "origin beyond frame",
			r:    Region{X: 1.2, Y: 0, W: 0.1, H: 0.1},
			w:    100,
			h:    100,
		},
		{
			name: "height rounds to nothing",
			r:    Region{X: 0, Y: 0, W: 1, H: 0.001},
			w:    100,
			h:    100,
		},
		{
			name: "empty frame",
			r:    Region{X: 0, Y: 0, W: 1, H: 1},
			w:    0,
			h:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.r.ToPixelRect(tt.w, tt.h)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			} else {
				assert.True(t, got.Empty(), "invalid crop must never be non-empty")
			}
		})
	}
}

func TestToPixelRectClampsRightEdge(t *testing.T) {
	r := Region{X: 0.9, Y: 0.1, W: 0.3, H: 0.1}
	rect, ok := r.ToPixelRect(1000, 1000)
	require.True(t, ok)
	assert.Equal(t, 900, rect.Min.X)
	assert.Equal(t, 1000, rect.Max.X)
	assert.LessOrEqual(t, rect.Dx(), 100)
}

func TestFromPixelRect(t *testing.T) {
	r := FromPixelRect(100, 50, 200, 25, 1920, 1080)
	assert.InDelta(t, 0.0521, r.X, 1e-9)
	assert.InDelta(t, 0.0463, r.Y, 1e-9)
	assert.InDelta(t, 0.1042, r.W, 1e-9)
	assert.InDelta(t, 0.0231, r.H, 1e-9)

	assert.Equal(t, Region{}, FromPixelRect(10, 10, 10, 10, 0, 100))
}

func TestPixelRoundTrip(t *testing.T) {
	frames := []image.Point{{640, 480}, {1280, 720}, {1920, 1080}, {3840, 2160}, {333, 97}}

	for _, f := range frames {
		for _, px := range []int{0, 1, 17, f.X / 3, f.X / 2} {
			for _, pw := range []int{1, 5, 63, f.X / 4} {
				py := px * f.Y / f.X
				ph := pw * f.Y / f.X
				if ph < 1 {
					ph = 1
				}
				if px+pw > f.X || py+ph > f.Y {
					continue
				}

				r := FromPixelRect(px, py, pw, ph, f.X, f.Y)
				rect, ok := r.ToPixelRect(f.X, f.Y)
				require.True(t, ok, "frame %v rect %d,%d,%d,%d", f, px, py, pw, ph)

				assert.InDelta(t, px, rect.Min.X, 1)
				assert.InDelta(t, py, rect.Min.Y, 1)
				assert.InDelta(t, pw, rect.Dx(), 1)
				assert.InDelta(t, ph, rect.Dy(), 1)
			}
		}
	}
}

func TestFromRect(t *testing.T) {
	rect := image.Rect(10, 20, 60, 40)
	assert.Equal(t, FromPixelRect(10, 20, 50, 20, 200, 100), FromRect(rect, 200, 100))
}

func TestString(t *testing.T) {
	assert.Equal(t, "0.5000,0.2500,0.1000,0.0000", Region{X: 0.5, Y: 0.25, W: 0.1}.String())
	assert.Equal(t, "0.3333,0.6667,1.0000,0.0010", Region{X: 1.0 / 3, Y: 2.0 / 3, W: 1, H: 0.001}.String())
}

func TestParse(t *testing.T) {
	want := Region{X: 0.1, Y: 0.2, W: 0.3, H: 0.4}

	valid := []string{
		"0.1,0.2,0.3,0.4",
		"0.1, 0.2, 0.3, 0.4",
		"0.1 0.2 0.3 0.4",
		"  0.1\t0.2 0.3,0.4  ",
		"0.1;0.2;0.3;0.4",
	}
	for _, s := range valid {
		t.Run(s, func(t *testing.T) {
			got, err := Parse(s)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	invalid := []string{
		"",
		"0.1,0.2,0.3",
		"0.1,0.2,0.3,0.4,0.5",
		"a,b,c,d",
		"0.1,0.2,0.3,x",
	}
	for _, s := range invalid {
		t.Run("invalid "+s, func(t *testing.T) {
			_, err := Parse(s)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}

	_, err := Parse("NaN,0,0.5,0.5")
	assert.Error(t, err)
	_, err = Parse("0,0,Inf,0.5")
	assert.Error(t, err)
}

func TestParseStringRoundTrip(t *testing.T) {
	r := Region{X: 0.0521, Y: 0.8125, W: 0.25, H: 0.0463}
	got, err := Parse(r.String())
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Region{X: -1, Y: 2, W: 0, H: 0}.Validate())
	assert.Error(t, Region{X: math.NaN()}.Validate())
	assert.Error(t, Region{H: math.Inf(-1)}.Validate())
}

func TestJSONFields(t *testing.T) {
	data, err := json.Marshal(Region{X: 0.5, Y: 0.25, W: 0.125, H: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":0.5,"y":0.25,"w":0.125,"h":1}`, string(data))

	var r Region
	require.NoError(t, json.Unmarshal([]byte(`{"x":0.1,"y":0.2,"w":0.3,"h":0.4}`), &r))
	assert.Equal(t, Region{X: 0.1, Y: 0.2, W: 0.3, H: 0.4}, r)
}

func TestIsZero(t *testing.T) {
	assert.True(t, Region{}.IsZero())
	assert.False(t, Region{W: 0.1}.IsZero())
}
