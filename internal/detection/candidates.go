package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/timestamp-roi/internal/imaging"
)

// Candidate is a frame area that looks like it holds a line of text.
type Candidate struct {
	Bounds     image.Rectangle `json:"bounds"`
	Confidence float64         `json:"confidence"`
}

// edgeThreshold is the luma step between neighbours that counts as an edge.
const edgeThreshold = 30.0

// candidateWindows are the sliding window sizes, roughly the extent of a
// burned-in clock at common resolutions.
var candidateWindows = []struct{ w, h int }{
	{100, 30},
	{150, 40},
	{200, 50},
	{80, 25},
}

// TextCandidates finds areas whose edge density and horizontal structure look
// like text, strongest first.
//
// It is used to locate a timestamp with backends that return no geometry: each
// candidate is cropped and recognized on its own until one reads as a clock.
// Overlapping windows are merged, so a candidate may be larger than any single
// window.
func TextCandidates(buf *imaging.PixelBuffer, minConfidence float64) []Candidate {
	width, height := buf.Width, buf.Height
	if width < 3 || height < 3 {
		return nil
	}

	edges := detectEdges(buf)

	var candidates []Candidate
	for _, ws := range candidateWindows {
		if ws.w > width || ws.h > height {
			continue
		}
		stepX := ws.w / 2
		stepY := ws.h / 2

		for y := 0; y <= height-ws.h; y += stepY {
			for x := 0; x <= width-ws.w; x += stepX {
				edgeCount := 0
				for wy := 0; wy < ws.h; wy++ {
					row := edges[y+wy]
					for wx := 0; wx < ws.w; wx++ {
						if row[x+wx] {
							edgeCount++
						}
					}
				}

				density := float64(edgeCount) / float64(ws.w*ws.h)

				// Text sits between flat background and noise.
				if density < 0.05 || density > 0.4 {
					continue
				}

				horizontal := horizontalScore(edges, x, y, ws.w, ws.h)
				confidence := horizontal * (1.0 - math.Abs(density-0.2)/0.2)
				if confidence < minConfidence {
					continue
				}

				candidates = append(candidates, Candidate{
					Bounds:     image.Rect(x, y, x+ws.w, y+ws.h),
					Confidence: math.Round(confidence*1000) / 1000,
				})
			}
		}
	}

	merged := mergeOverlapping(candidates)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Confidence > merged[j].Confidence
	})
	return merged
}

// detectEdges marks pixels whose luma differs from the right or lower
// neighbour by more than edgeThreshold. Border pixels are never edges.
func detectEdges(buf *imaging.PixelBuffer) [][]bool {
	width, height := buf.Width, buf.Height
	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		if y == 0 || y == height-1 {
			continue
		}
		for x := 1; x < width-1; x++ {
			c := buf.Luma(x, y)
			dx := math.Abs(c - buf.Luma(x+1, y))
			dy := math.Abs(c - buf.Luma(x, y+1))
			if dx > edgeThreshold || dy > edgeThreshold {
				edges[y][x] = true
			}
		}
	}
	return edges
}

// horizontalScore is the share of edge runs that are horizontal. Text lines
// have more horizontal runs than vertical ones.
func horizontalScore(edges [][]bool, x, y, w, h int) float64 {
	horizontalRuns := 0
	verticalRuns := 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			if edges[row][col] {
				if !inRun {
					horizontalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			if edges[row][col] {
				if !inRun {
					verticalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontalRuns+verticalRuns == 0 {
		return 0
	}
	return float64(horizontalRuns) / float64(horizontalRuns+verticalRuns)
}

// mergeOverlapping folds each candidate into the first merged box it overlaps.
func mergeOverlapping(candidates []Candidate) []Candidate {
	var merged []Candidate
	for _, c := range candidates {
		found := false
		for i := range merged {
			if c.Bounds.Overlaps(merged[i].Bounds) {
				merged[i].Bounds = merged[i].Bounds.Union(c.Bounds)
				merged[i].Confidence = math.Max(merged[i].Confidence, c.Confidence)
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, c)
		}
	}
	return merged
}
