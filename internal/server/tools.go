package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// schema builds an object input schema from property maps.
func schema(required []string, groups ...map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{}
	for _, g := range groups {
		for k, v := range g {
			props[k] = v
		}
	}
	out := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// frameProps describes how every tool names its frame.
func frameProps() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to a video file or a still frame (PNG, JPEG, GIF)",
		},
		"position": map[string]interface{}{
			"type":        "string",
			"description": "Seek position in the video: seconds (\"62.5\"), clock (\"01:02.5\") or duration (\"1m2.5s\"). Ignored for still frames. Default start of file",
			"default":     "0",
		},
	}
}

func roiProps() map[string]interface{} {
	return map[string]interface{}{
		"roi": map[string]interface{}{
			"type":        "object",
			"description": "Region of interest as fractions of the frame size, each 0..1. Defaults to the configured ROI",
			"properties": map[string]interface{}{
				"x": map[string]interface{}{"type": "number", "description": "Left edge"},
				"y": map[string]interface{}{"type": "number", "description": "Top edge"},
				"w": map[string]interface{}{"type": "number", "description": "Width"},
				"h": map[string]interface{}{"type": "number", "description": "Height"},
			},
			"required": []string{"x", "y", "w", "h"},
		},
	}
}

func preprocessProps() map[string]interface{} {
	return map[string]interface{}{
		"invert": map[string]interface{}{
			"type":        "boolean",
			"description": "Invert colours before any other step (use for dark text on a light background)",
			"default":     false,
		},
		"binarize": map[string]interface{}{
			"type":        "boolean",
			"description": "Threshold to pure black and white",
			"default":     false,
		},
		"threshold": map[string]interface{}{
			"type":        "integer",
			"description": "Binarization threshold 0-255. Pixels with luma strictly above it become white",
			"default":     128,
		},
		"dilate": map[string]interface{}{
			"type":        "boolean",
			"description": "Thicken bright strokes with a 3x3 maximum filter",
			"default":     false,
		},
	}
}

func backendProps() map[string]interface{} {
	return map[string]interface{}{
		"backend": map[string]interface{}{
			"type":        "string",
			"description": "OCR backend: tesseract, windows or paddle. Default is the first configured backend that starts",
		},
	}
}

func scaleProps() map[string]interface{} {
	return map[string]interface{}{
		"scale": map[string]interface{}{
			"type":        "number",
			"description": "Optional scale factor for the returned image. Default 1.0",
			"default":     1.0,
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Frames
		{
			Name:        "frame_load",
			Description: "Load a frame from a video position or a still image and return its dimensions. Frames are cached, so later tools on the same path and position reuse it.",
			InputSchema: schema([]string{"path"}, frameProps()),
		},
		{
			Name:        "frame_sample_color",
			Description: "Get the exact colour of a pixel in a frame, as hex, RGBA, HSL and luma.",
			InputSchema: schema([]string{"path", "x", "y"}, frameProps(), map[string]interface{}{
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "X coordinate (0-based, from left)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Y coordinate (0-based, from top)",
				},
			}),
		},

		{
			Name:        "frame_release",
			Description: "Drop a cached frame to free memory, or every cached frame when all is true.",
			InputSchema: schema(nil, frameProps(), map[string]interface{}{
				"all": map[string]interface{}{
					"type":        "boolean",
					"description": "Release every cached frame",
					"default":     false,
				},
			}),
		},

		// Region of interest
		{
			Name:        "roi_preview",
			Description: "Crop the region of interest and apply OCR preprocessing, returning the exact image the OCR engine would see as base64 PNG. Also reports the background lightness and whether inverting is advised.",
			InputSchema: schema([]string{"path"}, frameProps(), roiProps(), preprocessProps(), scaleProps()),
		},
		{
			Name:        "roi_overlay",
			Description: "Draw the region of interest onto the full frame and return it as base64 PNG, to check placement.",
			InputSchema: schema([]string{"path"}, frameProps(), roiProps(), scaleProps(), map[string]interface{}{
				"label": map[string]interface{}{
					"type":        "string",
					"description": "Optional caption drawn above the rectangle",
				},
				"color": map[string]interface{}{
					"type":        "string",
					"description": "Outline colour as #RRGGBB or #RRGGBBAA",
					"default":     "#FF0000",
				},
			}),
		},

		// OCR
		{
			Name:        "roi_ocr",
			Description: "Read the timestamp inside the region of interest. Returns the raw OCR text and a single-line value. A backend failure is reported in the result with failed=true rather than as an error.",
			InputSchema: schema([]string{"path"}, frameProps(), roiProps(), preprocessProps(), backendProps()),
		},
		{
			Name:        "roi_auto_locate",
			Description: "Search the whole frame for timestamp text (H:MM, HH:MM or HH:MM:SS) and propose a region of interest around it.",
			InputSchema: schema([]string{"path"}, frameProps(), backendProps(), map[string]interface{}{
				"mode": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"auto", "geometry", "scan", "text"},
					"description": "geometry uses word boxes from the backend; scan recognizes likely text areas one by one; text only reports the text without a region; auto picks geometry or scan from the backend",
					"default":     "auto",
				},
			}),
		},
		{
			Name:        "ocr_backends",
			Description: "List the configured OCR backends with their availability, capability and version.",
			InputSchema: schema(nil),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
