package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/timestamp-roi/internal/imaging"
)

// TesseractName is the registry name of the Tesseract backend.
const TesseractName = "tesseract"

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"

// TesseractConfig configures the Tesseract backend.
type TesseractConfig struct {
	// Language is a Tesseract language code such as "eng". The matching
	// traineddata file must be installed.
	Language string `yaml:"language"`

	// TessdataPrefix overrides the directory holding traineddata files. Empty
	// means the library default (or TESSDATA_PREFIX).
	TessdataPrefix string `yaml:"tessdata_prefix"`
}

// Tesseract is a geometry-capable backend backed by a single gosseract client.
//
// The client is not goroutine-safe, so every call is serialized on mu.
type Tesseract struct {
	cfg TesseractConfig

	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseract returns an uninitialized Tesseract backend.
func NewTesseract(cfg TesseractConfig) *Tesseract {
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	return &Tesseract{cfg: cfg}
}

func (t *Tesseract) Name() string { return TesseractName }

func (t *Tesseract) Capability() Capability { return CapabilityGeometry }

// Init creates the client and runs a warm-up recognition on a blank image,
// because gosseract defers loading the language data until first use.
// Calling Init again after success is a no-op.
func (t *Tesseract) Init(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if t.cfg.TessdataPrefix != "" {
		if _, err := os.Stat(t.cfg.TessdataPrefix); err != nil {
			return fmt.Errorf("%w: tessdata directory: %w", ErrBackendInitFailed, err)
		}
	}

	client := gosseract.NewClient()
	if t.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.cfg.TessdataPrefix); err != nil {
			client.Close()
			return fmt.Errorf("%w: %w", ErrBackendInitFailed, err)
		}
	}
	if err := client.SetLanguage(t.cfg.Language); err != nil {
		client.Close()
		return fmt.Errorf("%w: %w", ErrBackendInitFailed, err)
	}

	warmup, err := encodePNG(imaging.PadWhite(imaging.NewPixelBuffer(8, 8), 0))
	if err == nil {
		err = client.SetImageFromBytes(warmup)
	}
	if err == nil {
		_, err = client.Text()
	}
	if err != nil {
		client.Close()
		return fmt.Errorf("%w: %w", ErrBackendInitFailed, err)
	}

	t.client = client
	return nil
}

// Recognize runs Tesseract on buf and returns text plus line and word boxes in
// buf's pixel coordinates.
func (t *Tesseract) Recognize(ctx context.Context, buf *imaging.PixelBuffer) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if buf.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrRecognitionFailed)
	}

	data, err := encodePNG(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		return nil, ErrBackendUninitialized
	}

	if err := t.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}

	text, err := t.client.Text()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}

	result := &Result{Text: text}

	// Text succeeded, so missing boxes only cost us geometry.
	lineBoxes, err := t.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return result, nil
	}
	wordBoxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		wordBoxes = nil
	}

	result.Lines, result.Confidence = groupWords(lineBoxes, wordBoxes)
	return result, nil
}

// Close releases the underlying client. The backend can be re-initialized.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

// Info reports whether the engine loads and which version it is.
func (t *Tesseract) Info() Info {
	info := Info{
		Name:       TesseractName,
		Capability: CapabilityGeometry.String(),
		Detail:     "language " + t.cfg.Language,
	}
	if t.cfg.TessdataPrefix != "" {
		info.Detail += ", tessdata " + t.cfg.TessdataPrefix
	}

	if err := t.Init(context.Background()); err != nil {
		info.Error = err.Error()
		return info
	}

	t.mu.Lock()
	info.Version = t.client.Version()
	t.mu.Unlock()
	info.Available = true
	return info
}

// groupWords attaches each word to the line whose box contains the word's
// centre. Words outside every line are dropped. The second return value is the
// mean word confidence in 0..1.
func groupWords(lineBoxes, wordBoxes []gosseract.BoundingBox) ([]Line, float64) {
	lines := make([]Line, 0, len(lineBoxes))
	for _, lb := range lineBoxes {
		text := strings.TrimSpace(lb.Word)
		if text == "" {
			continue
		}
		lines = append(lines, Line{Text: text, Bounds: lb.Box})
	}

	var confSum float64
	var confN int
	for _, wb := range wordBoxes {
		text := strings.TrimSpace(wb.Word)
		if text == "" {
			continue
		}
		confSum += float64(wb.Confidence) / 100.0
		confN++

		centre := image.Pt((wb.Box.Min.X+wb.Box.Max.X)/2, (wb.Box.Min.Y+wb.Box.Max.Y)/2)
		for i := range lines {
			if centre.In(lines[i].Bounds) {
				lines[i].Words = append(lines[i].Words, Word{
					Text:       text,
					Bounds:     wb.Box,
					Confidence: float64(wb.Confidence) / 100.0,
				})
				break
			}
		}
	}

	if confN == 0 {
		return lines, 0
	}
	return lines, confSum / float64(confN)
}

func encodePNG(buf *imaging.PixelBuffer) ([]byte, error) {
	var out bytes.Buffer
	if err := png.Encode(&out, buf.ToImage()); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
