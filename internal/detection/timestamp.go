package detection

import (
	"image"
	"regexp"

	"github.com/ironsheep/timestamp-roi/internal/ocr"
	"github.com/ironsheep/timestamp-roi/internal/region"
)

// Pattern matches clock-like text: one or two digits, a separator, two digits,
// and optionally another separator and two digits. ':', ';' and '.' are all
// accepted as separators because OCR engines confuse them. The search is
// unanchored, so "Frame 00:12:34 end" matches.
var Pattern = regexp.MustCompile(`\d{1,2}[:;.]\d{2}([:;.]\d{2})?`)

// MaxUnionLineLength is the longest line text (in bytes) whose words are
// merged into one box when no single word matches. Longer lines are more
// likely to be captions than a timestamp split by the engine.
const MaxUnionLineLength = 20

// Padding is added on every side of the matched box, in pixels.
const Padding = 5

// Match is a located timestamp.
type Match struct {
	// Region is the padded box as frame fractions.
	Region region.Region `json:"region"`

	// Text is the word or line text that matched.
	Text string `json:"text"`

	// Bounds is the padded, clamped box in frame pixels.
	Bounds image.Rectangle `json:"bounds"`
}

// Locate scans recognized lines for the first timestamp and proposes a region
// around it.
//
// Lines are examined in order and the first qualifying line wins. Within a
// line, the first word matching Pattern is used on its own. If no single word
// matches but the line does, and the line is shorter than MaxUnionLineLength,
// the union of all its word boxes is used instead. Lines that match but
// qualify under neither rule are skipped.
//
// The chosen box is grown by Padding, clamped to the frame, and converted to
// fractions. ok is false when nothing qualifies, which is not an error.
func Locate(lines []ocr.Line, frameW, frameH int) (Match, bool) {
	for _, line := range lines {
		if !Pattern.MatchString(line.Text) {
			continue
		}

		for _, w := range line.Words {
			if Pattern.MatchString(w.Text) {
				return NewMatch(w.Text, w.Bounds, frameW, frameH)
			}
		}

		if len(line.Text) < MaxUnionLineLength && len(line.Words) > 0 {
			return NewMatch(line.Text, unionWords(line.Words), frameW, frameH)
		}
	}
	return Match{}, false
}

// FindText returns the first timestamp-like substring of text, for backends
// that report no geometry.
func FindText(text string) (string, bool) {
	m := Pattern.FindString(text)
	return m, m != ""
}

func unionWords(words []ocr.Word) image.Rectangle {
	// Union skips empty rectangles, and punctuation often has a zero-width box.
	box := words[0].Bounds
	for _, w := range words[1:] {
		box.Min.X = min(box.Min.X, w.Bounds.Min.X)
		box.Min.Y = min(box.Min.Y, w.Bounds.Min.Y)
		box.Max.X = max(box.Max.X, w.Bounds.Max.X)
		box.Max.Y = max(box.Max.Y, w.Bounds.Max.Y)
	}
	return box
}

// NewMatch pads box by Padding, clamps it to the frame and converts it to a
// Match. ok is false when nothing of the box lies inside the frame.
func NewMatch(text string, box image.Rectangle, frameW, frameH int) (Match, bool) {
	padded := image.Rect(
		box.Min.X-Padding,
		box.Min.Y-Padding,
		box.Max.X+Padding,
		box.Max.Y+Padding,
	).Intersect(image.Rect(0, 0, frameW, frameH))

	if padded.Empty() {
		return Match{}, false
	}

	return Match{
		Region: region.FromRect(padded, frameW, frameH),
		Text:   text,
		Bounds: padded,
	}, true
}
