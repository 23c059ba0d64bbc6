// Package detection finds a burned-in timestamp in a video frame.
//
// Locate works on the line and word geometry returned by a geometry-capable
// OCR backend. It picks the first line containing clock-like text (see
// Pattern), prefers the single matching word, falls back to the union of a
// short line's words, and returns the padded box as a region.Region.
//
// For backends that only return text, FindText reports the matched substring,
// and TextCandidates proposes areas of the frame worth recognizing one at a
// time using an edge-density heuristic.
//
// # Coordinate System
//
// All boxes are image.Rectangle values in frame pixels:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Min is inclusive, Max is exclusive
//
// # Limitations
//
// TextCandidates works best on high-contrast overlays. Busy scenes produce many
// candidates, and callers should bound how many they try.
package detection
