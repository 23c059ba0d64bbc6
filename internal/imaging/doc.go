// Package imaging provides the pixel-level data model and transforms used to
// condition a video frame region for text recognition.
//
// The central type is PixelBuffer, a tightly packed BGRA byte grid. Frames are
// decoded into a PixelBuffer once, cropped to the region of interest, and then
// run through the preprocessing stages before being handed to an OCR backend.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For rectangles, Min is inclusive and Max is exclusive (image.Rectangle)
//
// # Preprocessing
//
// Process applies up to three transforms in a fixed order:
//
//  1. Invert: each colour channel v becomes 255-v. Alpha is untouched.
//  2. Binarize: BT.601 luma (0.299R + 0.587G + 0.114B) above the threshold
//     becomes white, everything else black. Alpha is forced opaque.
//  3. Dilate: one 3×3 maximum filter pass over the red channel, which thickens
//     bright strokes. Text must already be bright on a dark background, so dark
//     text on a light background should be inverted first (AnalyzeBackground
//     reports when that is likely).
//
// Every transform returns a new buffer. Inputs are never modified, so a frame
// can be shared read-only between the auto-locate pass and a later OCR pass.
//
// # Thread Safety
//
// FrameCache is safe for concurrent use. Individual transforms are stateless.
// Dilate splits its output rows across goroutines internally.
package imaging
