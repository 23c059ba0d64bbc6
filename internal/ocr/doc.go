// Package ocr defines the recognition backend abstraction and its engines.
//
// Every engine implements Backend. A backend is created cheaply, initialized
// once with Init (which may load language data or probe a server), and then
// asked to Recognize preprocessed PixelBuffers. Calling Recognize before a
// successful Init returns ErrBackendUninitialized, which lets the pipeline
// initialize lazily on first use.
//
// # Engines
//
//   - Tesseract: local Tesseract via gosseract/v2. Returns lines and words with
//     bounding boxes (CapabilityGeometry).
//   - Paddle: a PaddleHub Serving ocr_system endpoint over HTTP. Text only.
//     Images are composited onto white and padded by PaddlePadding pixels.
//   - WindowsNative: Windows.Media.Ocr through an embedded PowerShell script.
//     Returns geometry. Init fails on every other platform.
//
// # Prerequisites
//
// Tesseract must be installed along with language data:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//   - Windows: Download from https://github.com/UB-Mannheim/tesseract/wiki
//
// Language data is never downloaded automatically. Point TesseractConfig's
// TessdataPrefix at a directory holding eng.traineddata if it is not in the
// default location.
//
// # Selection
//
// Registry keeps the configured backends in order. Registry.Fallback returns
// the first one whose Init succeeds, trying preferred names first.
//
// # Errors
//
// Backends wrap ErrBackendInitFailed, ErrRecognitionFailed and
// ErrBackendUninitialized. Context cancellation is returned unwrapped.
package ocr
