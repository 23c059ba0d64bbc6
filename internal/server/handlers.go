package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ironsheep/timestamp-roi/internal/frame"
	"github.com/ironsheep/timestamp-roi/internal/imaging"
	"github.com/ironsheep/timestamp-roi/internal/ocr"
	"github.com/ironsheep/timestamp-roi/internal/pipeline"
	"github.com/ironsheep/timestamp-roi/internal/region"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "roi_ocr").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	started := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warnf("tool %s failed after %v: %v", params.Name, time.Since(started), err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.log.Debugf("tool %s done in %v", params.Name, time.Since(started))

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "frame_load":
		return s.handleFrameLoad(ctx, args)
	case "frame_sample_color":
		return s.handleFrameSampleColor(ctx, args)
	case "frame_release":
		return s.handleFrameRelease(args)

	case "roi_preview":
		return s.handleROIPreview(ctx, args)
	case "roi_overlay":
		return s.handleROIOverlay(ctx, args)

	case "roi_ocr":
		return s.handleROIOCR(ctx, args)
	case "roi_auto_locate":
		return s.handleROIAutoLocate(ctx, args)
	case "ocr_backends":
		return s.handleOCRBackends()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Shared arguments ===

type frameArgs struct {
	Path     string `json:"path"`
	Position string `json:"position"`
}

// load resolves the frame named by a through the cached frame source.
func (s *Server) load(ctx context.Context, a frameArgs) (*imaging.PixelBuffer, time.Duration, error) {
	if a.Path == "" {
		return nil, 0, fmt.Errorf("path is required")
	}
	pos, err := frame.ParsePosition(a.Position)
	if err != nil {
		return nil, 0, err
	}
	buf, err := s.frames.Capture(ctx, a.Path, pos)
	if err != nil {
		return nil, 0, err
	}
	return buf, pos, nil
}

type roiArgs struct {
	ROI *region.Region `json:"roi"`
}

// roiOr returns the requested ROI, or def when none was given.
func (a roiArgs) roiOr(def region.Region) (region.Region, error) {
	if a.ROI != nil {
		return *a.ROI, nil
	}
	if def.IsZero() {
		return def, fmt.Errorf("%w: roi is required when no default is configured", pipeline.ErrInvalidRegion)
	}
	return def, nil
}

type preprocessArgs struct {
	Invert    *bool `json:"invert"`
	Binarize  *bool `json:"binarize"`
	Threshold *int  `json:"threshold"`
	Dilate    *bool `json:"dilate"`
}

// apply overrides base with whatever the caller set.
func (a preprocessArgs) apply(base imaging.PreprocessConfig) (imaging.PreprocessConfig, error) {
	cfg := base
	if a.Invert != nil {
		cfg.Invert = *a.Invert
	}
	if a.Binarize != nil {
		cfg.Binarize = *a.Binarize
	}
	if a.Threshold != nil {
		if *a.Threshold < 0 || *a.Threshold > 255 {
			return cfg, fmt.Errorf("threshold must be between 0 and 255, got %d", *a.Threshold)
		}
		cfg.Threshold = *a.Threshold
	}
	if a.Dilate != nil {
		cfg.Dilate = *a.Dilate
	}
	return cfg, nil
}

// backend looks up name, or picks the first configured backend that starts.
func (s *Server) backend(ctx context.Context, name string) (ocr.Backend, error) {
	return s.registry.Select(ctx, name, s.cfg.Preferred()...)
}

// === Frame handlers ===

type frameLoadResult struct {
	Path            string  `json:"path"`
	PositionSeconds float64 `json:"position_seconds"`
	Key             string  `json:"key"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Format          string  `json:"format"`
	FileSizeBytes   int64   `json:"file_size_bytes"`
}

func (s *Server) handleFrameLoad(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a frameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	if imaging.IsStillImage(a.Path) {
		info, err := imaging.LoadFrameInfo(s.cache, a.Path)
		if err != nil {
			return nil, err
		}
		return &frameLoadResult{
			Path:          a.Path,
			Key:           a.Path,
			Width:         info.Width,
			Height:        info.Height,
			Format:        info.Format,
			FileSizeBytes: info.FileSizeBytes,
		}, nil
	}

	buf, pos, err := s.load(ctx, a)
	if err != nil {
		return nil, err
	}
	result := &frameLoadResult{
		Path:            a.Path,
		PositionSeconds: pos.Seconds(),
		Key:             frame.Key(a.Path, pos),
		Width:           buf.Width,
		Height:          buf.Height,
		Format:          "video",
	}
	if st, err := os.Stat(a.Path); err == nil {
		result.FileSizeBytes = st.Size()
	}
	return result, nil
}

type frameSampleColorArgs struct {
	frameArgs
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Server) handleFrameSampleColor(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a frameSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	buf, _, err := s.load(ctx, a.frameArgs)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(buf, a.X, a.Y)
}

type frameReleaseArgs struct {
	frameArgs
	All bool `json:"all"`
}

func (s *Server) handleFrameRelease(args json.RawMessage) (interface{}, error) {
	var a frameReleaseArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	before := s.cache.Len()
	switch {
	case a.All:
		s.cache.Clear()
	case a.Path == "":
		return nil, fmt.Errorf("path is required unless all is set")
	case imaging.IsStillImage(a.Path):
		s.cache.Evict(a.Path)
	default:
		pos, err := frame.ParsePosition(a.Position)
		if err != nil {
			return nil, err
		}
		s.cache.Evict(frame.Key(a.Path, pos))
	}

	return map[string]int{
		"released": before - s.cache.Len(),
		"cached":   s.cache.Len(),
	}, nil
}

// === ROI handlers ===

type roiPreviewArgs struct {
	frameArgs
	roiArgs
	preprocessArgs
	Scale float64 `json:"scale"`
}

type roiPreviewResult struct {
	imaging.EncodedImage
	Region     region.Region            `json:"region"`
	Rect       [4]int                   `json:"rect"`
	Preprocess imaging.PreprocessConfig `json:"preprocess"`
	Background imaging.BackgroundReport `json:"background"`

	// BrightPixels counts preprocessed pixels with luma above the threshold.
	BrightPixels int `json:"bright_pixels"`
}

func (s *Server) handleROIPreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a roiPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	cfg, err := a.apply(s.cfg.Preprocess)
	if err != nil {
		return nil, err
	}
	buf, _, err := s.load(ctx, a.frameArgs)
	if err != nil {
		return nil, err
	}

	roi, err := a.roiOr(s.cfg.ROI)
	if err != nil {
		return nil, err
	}
	processed, rect, err := s.pipeline.Preview(buf, roi, cfg)
	if err != nil {
		return nil, err
	}
	raw, err := buf.Crop(rect)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.Encode(processed, a.Scale)
	if err != nil {
		return nil, err
	}

	return &roiPreviewResult{
		EncodedImage: *encoded,
		Region:       roi,
		Rect:         [4]int{rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy()},
		Preprocess:   cfg,
		Background:   imaging.AnalyzeBackground(raw),
		BrightPixels: processed.CountBright(float64(cfg.Threshold)),
	}, nil
}

type roiOverlayArgs struct {
	frameArgs
	roiArgs
	Label string  `json:"label"`
	Color string  `json:"color"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleROIOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a roiOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Color == "" {
		a.Color = imaging.DefaultOverlayColor
	}
	buf, _, err := s.load(ctx, a.frameArgs)
	if err != nil {
		return nil, err
	}

	roi, err := a.roiOr(s.cfg.ROI)
	if err != nil {
		return nil, err
	}
	rect, err := pipeline.PixelRect(buf, roi)
	if err != nil {
		return nil, err
	}
	return imaging.Overlay(buf, rect, a.Label, a.Color, a.Scale)
}

// === OCR handlers ===

type roiOCRArgs struct {
	frameArgs
	roiArgs
	preprocessArgs
	Backend string `json:"backend"`
}

func (s *Server) handleROIOCR(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a roiOCRArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg, err := a.apply(s.cfg.Preprocess)
	if err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	pos, err := frame.ParsePosition(a.Position)
	if err != nil {
		return nil, err
	}
	roi, err := a.roiOr(s.cfg.ROI)
	if err != nil {
		return nil, err
	}
	backend, err := s.backend(ctx, a.Backend)
	if err != nil {
		return nil, err
	}
	return s.pipeline.Extract(ctx, s.frames, a.Path, pos, roi, cfg, backend)
}

type roiAutoLocateArgs struct {
	frameArgs
	Backend string `json:"backend"`
	Mode    string `json:"mode"`
}

func (s *Server) handleROIAutoLocate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a roiAutoLocateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	buf, _, err := s.load(ctx, a.frameArgs)
	if err != nil {
		return nil, err
	}
	backend, err := s.backend(ctx, a.Backend)
	if err != nil {
		return nil, err
	}

	switch a.Mode {
	case "", "auto":
		return s.pipeline.Locate(ctx, buf, backend)
	case "geometry":
		return s.pipeline.AutoLocate(ctx, buf, backend)
	case "scan":
		return s.pipeline.ScanLocate(ctx, buf, backend)
	case "text":
		return s.pipeline.FindTimestampText(ctx, buf, backend)
	default:
		return nil, fmt.Errorf("unknown mode %q", a.Mode)
	}
}

func (s *Server) handleOCRBackends() (interface{}, error) {
	return map[string]interface{}{
		"backends":  s.registry.Infos(),
		"preferred": s.cfg.Preferred(),
	}, nil
}
