// Package server implements the MCP (Model Context Protocol) server for
// timestamp ROI tools.
//
// It lets an MCP client inspect a video frame, tune a region of interest and
// its preprocessing, and read the burned-in timestamp through any configured
// OCR backend.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Logs go to stderr. Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Frames:
//   - frame_load: Capture or load a frame and report its size
//   - frame_sample_color: Get the colour at a pixel
//   - frame_release: Drop cached frames
//
// Region of interest:
//   - roi_preview: Cropped and preprocessed ROI as PNG, plus background analysis
//   - roi_overlay: Full frame with the ROI outlined
//
// OCR:
//   - roi_ocr: Read the timestamp inside the ROI
//   - roi_auto_locate: Find the timestamp in the whole frame and propose an ROI
//   - ocr_backends: Backend availability
//
// Every frame tool takes a path and an optional position. Frames captured from
// video are cached under "path@position", so tuning the ROI on one frame only
// runs ffmpeg once.
//
// # Regions
//
// An ROI is an object {x, y, w, h} of fractions of the frame size. When it is
// omitted the configured default ROI applies.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC errors with code -32000 and the error
// text as data. A backend that ran but could not recognize the crop is not an
// error: roi_ocr then returns failed=true with a diagnostic.
package server
