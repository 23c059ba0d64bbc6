// Package pipeline sequences frame capture, cropping, preprocessing,
// recognition and timestamp location.
//
// The Coordinator holds no backend state. Backends and frame sources are
// passed in per call, so one Coordinator serves every caller and tests can
// substitute fakes. Each call is independent: nothing is queued or coalesced,
// and a caller wanting only one run in flight must sequence its own calls.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/google/uuid"

	"github.com/ironsheep/timestamp-roi/internal/detection"
	"github.com/ironsheep/timestamp-roi/internal/frame"
	"github.com/ironsheep/timestamp-roi/internal/imaging"
	"github.com/ironsheep/timestamp-roi/internal/logging"
	"github.com/ironsheep/timestamp-roi/internal/ocr"
	"github.com/ironsheep/timestamp-roi/internal/region"
)

const (
	// DefaultMaxCandidates bounds how many candidate areas ScanLocate recognizes.
	DefaultMaxCandidates = 8

	// DefaultCandidateConfidence is the TextCandidates cutoff used by ScanLocate.
	DefaultCandidateConfidence = 0.2
)

// Recognition is the outcome of one OCR pass over an ROI.
type Recognition struct {
	RunID   string `json:"run_id"`
	Backend string `json:"backend"`

	// Raw is the backend's text, untouched.
	Raw string `json:"raw"`

	// Value is Raw with newlines turned into spaces, runs of whitespace
	// collapsed, and the ends trimmed.
	Value string `json:"value"`

	Confidence float64 `json:"confidence"`

	// Rect is the pixel rectangle that was cropped from the frame.
	Rect image.Rectangle `json:"rect"`

	// Failed is set when the backend could not recognize the crop. Diagnostic
	// then holds the reason and Raw and Value are empty.
	Failed     bool   `json:"failed"`
	Diagnostic string `json:"diagnostic,omitempty"`

	Elapsed time.Duration `json:"elapsed_ns"`
}

// Location is the outcome of a search for the timestamp in a whole frame.
type Location struct {
	RunID   string `json:"run_id"`
	Backend string `json:"backend"`

	// Found reports whether timestamp text was seen at all.
	Found bool `json:"found"`

	// HasRegion reports whether Match carries a usable region. Text-only
	// searches can find the text without knowing where it is.
	HasRegion bool            `json:"has_region"`
	Match     detection.Match `json:"match"`

	// Raw is the full text the backend returned for the frame, or for the
	// winning candidate in a scan.
	Raw string `json:"raw"`

	// Candidates is the number of candidate areas recognized by ScanLocate.
	Candidates int `json:"candidates,omitempty"`

	Failed     bool   `json:"failed"`
	Diagnostic string `json:"diagnostic,omitempty"`

	Elapsed time.Duration `json:"elapsed_ns"`
}

// Coordinator runs pipeline operations. It is safe for concurrent use.
type Coordinator struct {
	Log logs.Log

	// MaxCandidates bounds ScanLocate. Zero means DefaultMaxCandidates.
	MaxCandidates int

	// CandidateConfidence is the minimum TextCandidates confidence ScanLocate
	// considers.
	CandidateConfidence float64
}

// New returns a Coordinator logging to log. A nil log discards.
func New(log logs.Log) *Coordinator {
	if log == nil {
		log = logging.Discard{}
	}
	return &Coordinator{
		Log:                 log,
		MaxCandidates:       DefaultMaxCandidates,
		CandidateConfidence: DefaultCandidateConfidence,
	}
}

func (c *Coordinator) runLog() (string, logs.Log) {
	id := uuid.NewString()
	return id, logging.NewPrefixLogger(c.Log, "run "+id[:8]+":")
}

// Preview crops roi out of buf and preprocesses it without recognition. The
// second value is the pixel rectangle that was cropped.
func (c *Coordinator) Preview(buf *imaging.PixelBuffer, roi region.Region, cfg imaging.PreprocessConfig) (*imaging.PixelBuffer, image.Rectangle, error) {
	rect, err := PixelRect(buf, roi)
	if err != nil {
		return nil, image.Rectangle{}, err
	}
	crop, err := buf.Crop(rect)
	if err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("%w: %w", ErrInvalidRegion, err)
	}
	return imaging.Process(crop, cfg), rect, nil
}

// RunOCR crops roi out of buf, preprocesses it with cfg and recognizes it.
//
// A degenerate roi fails with ErrInvalidRegion before the backend is touched.
// An uninitialized backend is initialized once and retried; if that fails the
// error wraps ErrBackendInitFailed. A recognition failure is not an error: it
// comes back as a Recognition with Failed set.
func (c *Coordinator) RunOCR(ctx context.Context, buf *imaging.PixelBuffer, roi region.Region, cfg imaging.PreprocessConfig, backend ocr.Backend) (*Recognition, error) {
	if ctx.Err() != nil {
		return nil, canceled(ctx)
	}

	started := time.Now()
	runID, log := c.runLog()

	processed, rect, err := c.Preview(buf, roi, cfg)
	if err != nil {
		log.Warnf("rejected roi %s on %dx%d frame: %v", roi, buf.Width, buf.Height, err)
		return nil, err
	}
	log.Debugf("roi %s -> %v, preprocess %+v, backend %s", roi, rect, cfg, backend.Name())

	rec := &Recognition{RunID: runID, Backend: backend.Name(), Rect: rect}

	result, err := c.recognize(ctx, log, backend, processed)
	rec.Elapsed = time.Since(started)
	if err != nil {
		if isFatal(err) {
			return nil, err
		}
		log.Warnf("recognition failed: %v", err)
		rec.Failed = true
		rec.Diagnostic = Diagnostic(err)
		return rec, nil
	}

	rec.Raw = result.Text
	rec.Value = NormalizeValue(result.Text)
	rec.Confidence = result.Confidence
	log.Infof("read %q in %v", rec.Value, rec.Elapsed)
	return rec, nil
}

// AutoLocate recognizes the whole, unmodified frame and proposes a region
// around the first timestamp. The backend must report geometry; otherwise
// ErrGeometryUnsupported is returned without calling it.
func (c *Coordinator) AutoLocate(ctx context.Context, buf *imaging.PixelBuffer, backend ocr.Backend) (*Location, error) {
	if backend.Capability() != ocr.CapabilityGeometry {
		return nil, fmt.Errorf("%w: %s", ErrGeometryUnsupported, backend.Name())
	}
	if ctx.Err() != nil {
		return nil, canceled(ctx)
	}
	if buf.Empty() {
		return nil, fmt.Errorf("%w: empty frame", ErrFrameUnavailable)
	}

	started := time.Now()
	runID, log := c.runLog()
	loc := &Location{RunID: runID, Backend: backend.Name()}

	result, err := c.recognize(ctx, log, backend, buf)
	if err != nil {
		if isFatal(err) {
			return nil, err
		}
		log.Warnf("auto-locate recognition failed: %v", err)
		loc.Failed = true
		loc.Diagnostic = Diagnostic(err)
		loc.Elapsed = time.Since(started)
		return loc, nil
	}

	loc.Raw = result.Text
	if m, ok := detection.Locate(result.Lines, buf.Width, buf.Height); ok {
		loc.Found = true
		loc.HasRegion = true
		loc.Match = m
		log.Infof("located %q at %s", m.Text, m.Region)
	} else {
		log.Infof("no timestamp among %d lines", len(result.Lines))
	}
	loc.Elapsed = time.Since(started)
	return loc, nil
}

// FindTimestampText recognizes the whole frame and reports the first
// timestamp-like text without a region. It works with any backend.
func (c *Coordinator) FindTimestampText(ctx context.Context, buf *imaging.PixelBuffer, backend ocr.Backend) (*Location, error) {
	if ctx.Err() != nil {
		return nil, canceled(ctx)
	}
	if buf.Empty() {
		return nil, fmt.Errorf("%w: empty frame", ErrFrameUnavailable)
	}

	started := time.Now()
	runID, log := c.runLog()
	loc := &Location{RunID: runID, Backend: backend.Name()}

	result, err := c.recognize(ctx, log, backend, buf)
	loc.Elapsed = time.Since(started)
	if err != nil {
		if isFatal(err) {
			return nil, err
		}
		loc.Failed = true
		loc.Diagnostic = Diagnostic(err)
		return loc, nil
	}

	loc.Raw = result.Text
	if text, ok := detection.FindText(result.Text); ok {
		loc.Found = true
		loc.Match.Text = text
		log.Infof("found %q without geometry", text)
	}
	return loc, nil
}

// ScanLocate finds the timestamp with a text-only backend by recognizing the
// strongest text-like areas of the frame one at a time. The first area whose
// text matches becomes the region. At most MaxCandidates areas are tried.
func (c *Coordinator) ScanLocate(ctx context.Context, buf *imaging.PixelBuffer, backend ocr.Backend) (*Location, error) {
	if ctx.Err() != nil {
		return nil, canceled(ctx)
	}
	if buf.Empty() {
		return nil, fmt.Errorf("%w: empty frame", ErrFrameUnavailable)
	}

	started := time.Now()
	runID, log := c.runLog()
	loc := &Location{RunID: runID, Backend: backend.Name()}

	limit := c.MaxCandidates
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}

	candidates := detection.TextCandidates(buf, c.CandidateConfidence)
	log.Debugf("%d text candidates", len(candidates))

	var lastErr error
	for _, cand := range candidates {
		if loc.Candidates >= limit {
			break
		}
		if ctx.Err() != nil {
			return nil, canceled(ctx)
		}
		loc.Candidates++

		crop, err := buf.Crop(cand.Bounds)
		if err != nil {
			continue
		}
		result, err := c.recognize(ctx, log, backend, crop)
		if err != nil {
			if isFatal(err) {
				return nil, err
			}
			lastErr = err
			continue
		}

		text, ok := detection.FindText(result.Text)
		if !ok {
			continue
		}
		m, ok := detection.NewMatch(text, cand.Bounds, buf.Width, buf.Height)
		if !ok {
			continue
		}
		loc.Found = true
		loc.HasRegion = true
		loc.Match = m
		loc.Raw = result.Text
		log.Infof("candidate %v read %q", cand.Bounds, text)
		break
	}

	if !loc.Found && lastErr != nil {
		loc.Failed = true
		loc.Diagnostic = Diagnostic(lastErr)
	}
	loc.Elapsed = time.Since(started)
	return loc, nil
}

// Locate uses AutoLocate for geometry backends and ScanLocate otherwise.
func (c *Coordinator) Locate(ctx context.Context, buf *imaging.PixelBuffer, backend ocr.Backend) (*Location, error) {
	if backend.Capability() == ocr.CapabilityGeometry {
		return c.AutoLocate(ctx, buf, backend)
	}
	return c.ScanLocate(ctx, buf, backend)
}

// Extract captures the frame at position from src and runs RunOCR on it.
func (c *Coordinator) Extract(ctx context.Context, src frame.Source, path string, position time.Duration, roi region.Region, cfg imaging.PreprocessConfig, backend ocr.Backend) (*Recognition, error) {
	buf, err := src.Capture(ctx, path, position)
	if err != nil {
		c.Log.Warnf("capture %s at %v: %v", path, position, err)
		return nil, err
	}
	return c.RunOCR(ctx, buf, roi, cfg, backend)
}

// recognize submits buf, initializing the backend once if it reports that it
// has not been.
func (c *Coordinator) recognize(ctx context.Context, log logs.Log, backend ocr.Backend, buf *imaging.PixelBuffer) (*ocr.Result, error) {
	result, err := safeRecognize(ctx, backend, buf)
	if errors.Is(err, ocr.ErrBackendUninitialized) {
		log.Debugf("initializing backend %s", backend.Name())
		if ierr := backend.Init(ctx); ierr != nil {
			if ctx.Err() != nil {
				return nil, canceled(ctx)
			}
			if errors.Is(ierr, ocr.ErrBackendInitFailed) {
				return nil, ierr
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrBackendInitFailed, backend.Name(), ierr)
		}
		result, err = safeRecognize(ctx, backend, buf)
	}

	if err != nil {
		if ctx.Err() != nil {
			return nil, canceled(ctx)
		}
		if errors.Is(err, ocr.ErrBackendUninitialized) {
			return nil, fmt.Errorf("%w: %s still uninitialized after init", ErrBackendInitFailed, backend.Name())
		}
		return nil, err
	}
	if result == nil {
		result = &ocr.Result{}
	}
	return result, nil
}

// isFatal reports errors that the caller must handle instead of a failed
// result: cancellation and backends that cannot start.
func isFatal(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, ErrBackendInitFailed)
}

// NormalizeValue turns recognized text into a single-line value.
func NormalizeValue(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// PixelRect converts roi to a pixel rectangle on buf. Invalid or empty
// regions fail with ErrInvalidRegion.
func PixelRect(buf *imaging.PixelBuffer, roi region.Region) (image.Rectangle, error) {
	if err := roi.Validate(); err != nil {
		return image.Rectangle{}, fmt.Errorf("%w: %w", ErrInvalidRegion, err)
	}
	rect, ok := roi.ToPixelRect(buf.Width, buf.Height)
	if !ok {
		return image.Rectangle{}, fmt.Errorf("%w: %s is empty on a %dx%d frame", ErrInvalidRegion, roi, buf.Width, buf.Height)
	}
	return rect, nil
}

// safeRecognize turns a panic inside the backend into ErrRecognitionFailed.
func safeRecognize(ctx context.Context, backend ocr.Backend, buf *imaging.PixelBuffer) (result *ocr.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %s panicked: %v", ocr.ErrRecognitionFailed, backend.Name(), r)
		}
	}()
	return backend.Recognize(ctx, buf)
}
