package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cyclopcam/logs"

	"github.com/ironsheep/timestamp-roi/internal/config"
	"github.com/ironsheep/timestamp-roi/internal/frame"
	"github.com/ironsheep/timestamp-roi/internal/imaging"
	"github.com/ironsheep/timestamp-roi/internal/logging"
	"github.com/ironsheep/timestamp-roi/internal/ocr"
	"github.com/ironsheep/timestamp-roi/internal/pipeline"
)

// ServerName and ServerVersion are reported in the initialize handshake.
var (
	ServerName    = "timestamp-roi"
	ServerVersion = "dev"
)

// Server handles MCP protocol communication
type Server struct {
	log      logs.Log
	cfg      config.Config
	cache    *imaging.FrameCache
	frames   frame.Source
	registry *ocr.Registry
	pipeline *pipeline.Coordinator
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a server using the backends and frame sources described by cfg.
func New(log logs.Log, cfg config.Config) *Server {
	return NewWithRegistry(log, cfg, cfg.Registry())
}

// NewWithRegistry is New with an explicit backend registry.
func NewWithRegistry(log logs.Log, cfg config.Config, registry *ocr.Registry) *Server {
	if log == nil {
		log = logging.Discard{}
	}
	cache := imaging.NewFrameCache()
	video := frame.NewFFmpegSource(logging.NewPrefixLogger(log, "ffmpeg:"), cfg.FFmpegPath, cfg.CaptureTimeout)
	return &Server{
		log:   log,
		cfg:   cfg,
		cache: cache,
		frames: frame.NewCached(&frame.Auto{
			Still: frame.NewStillSource(cache),
			Video: video,
		}, cache),
		registry: registry,
		pipeline: pipeline.New(log),
	}
}

// Run serves requests from stdin, writing responses to stdout, until stdin
// closes or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w.
// Requests are handled in order.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Errorf("Failed to parse request: %v", err)
			if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
				s.log.Errorf("Failed to encode response: %v", err)
			}
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.Errorf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.log.Debugf("request %v %s", req.ID, req.Method)

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": ServerVersion,
			},
		},
	}
}
