package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ironsheep/timestamp-roi/internal/imaging"
)

// PaddleName is the registry name of the PaddleOCR backend.
const PaddleName = "paddle"

// PaddlePadding is the white border added around every image before it is
// sent. The detector misses text that touches the image edge, which is common
// for tight ROI crops.
const PaddlePadding = 32

const (
	DefaultPaddleEndpoint = "http://127.0.0.1:8866/predict/ocr_system"
	DefaultPaddleTimeout  = 30 * time.Second
)

// PaddleConfig configures the PaddleOCR backend.
type PaddleConfig struct {
	// Endpoint is the PaddleHub Serving ocr_system prediction URL.
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds a single request.
	Timeout time.Duration `yaml:"timeout"`
}

// Paddle is a text-only backend that talks to a PaddleHub Serving instance
// running the ocr_system module.
type Paddle struct {
	cfg    PaddleConfig
	client *http.Client

	mu    sync.Mutex
	ready bool
}

// NewPaddle returns an uninitialized Paddle backend.
func NewPaddle(cfg PaddleConfig) *Paddle {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultPaddleEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultPaddleTimeout
	}
	return &Paddle{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *Paddle) Name() string { return PaddleName }

func (p *Paddle) Capability() Capability { return CapabilityText }

// Init checks that the serving endpoint answers HTTP. Any status code counts
// as reachable, since the prediction route rejects GET requests.
func (p *Paddle) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackendInitFailed, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: paddle serving unreachable: %w", ErrBackendInitFailed, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	p.ready = true
	return nil
}

type paddleRequest struct {
	Images []string `json:"images"`
}

type paddleItem struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	TextRegion [][]float64 `json:"text_region"`
}

type paddleResponse struct {
	Msg     string         `json:"msg"`
	Status  string         `json:"status"`
	Results [][]paddleItem `json:"results"`
}

// Recognize composites buf onto white, pads it, and posts it for prediction.
// Items are joined with newlines in the order the server returns them.
func (p *Paddle) Recognize(ctx context.Context, buf *imaging.PixelBuffer) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	ready := p.ready
	p.mu.Unlock()
	if !ready {
		return nil, ErrBackendUninitialized
	}

	if buf.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrRecognitionFailed)
	}

	data, err := encodePNG(imaging.PadWhite(buf, PaddlePadding))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}

	body, err := json.Marshal(paddleRequest{Images: []string{base64.StdEncoding.EncodeToString(data)}})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrRecognitionFailed, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decoded paddleResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrRecognitionFailed, err)
	}
	if decoded.Status != "" && decoded.Status != "000" {
		return nil, fmt.Errorf("%w: status %s: %s", ErrRecognitionFailed, decoded.Status, decoded.Msg)
	}

	result := &Result{}
	if len(decoded.Results) == 0 {
		return result, nil
	}

	texts := make([]string, 0, len(decoded.Results[0]))
	var confSum float64
	for _, item := range decoded.Results[0] {
		texts = append(texts, item.Text)
		confSum += item.Confidence
	}
	result.Text = strings.Join(texts, "\n")
	if len(texts) > 0 {
		result.Confidence = confSum / float64(len(texts))
	}
	return result, nil
}

// Info probes the endpoint through Init.
func (p *Paddle) Info() Info {
	info := Info{
		Name:       PaddleName,
		Capability: CapabilityText.String(),
		Detail:     "endpoint " + p.cfg.Endpoint,
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
	defer cancel()
	if err := p.Init(ctx); err != nil {
		info.Error = err.Error()
		return info
	}
	info.Available = true
	return info
}
