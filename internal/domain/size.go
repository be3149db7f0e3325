package domain

import "math"

// MaxRequestedSize bounds each requested axis and is the default for an absent one.
const MaxRequestedSize = 2000

type RequestedSize struct {
	Width  int
	Height int
}

type CanonicalSize struct {
	Width  int
	Height int
}

// canonicalSizes is ordered; earlier entries win ties in NearestCanonical.
var canonicalSizes = [...]CanonicalSize{
	{Width: 84, Height: 84},
	{Width: 500, Height: 500},
}

// CanonicalSizes returns a copy of the output size whitelist in preference order.
func CanonicalSizes() []CanonicalSize {
	out := make([]CanonicalSize, len(canonicalSizes))
	copy(out, canonicalSizes[:])
	return out
}

// NearestCanonical picks the whitelist entry whose average dimension is closest to
// the requested average. It only looks at the requested numbers, never at the image.
func NearestCanonical(req RequestedSize) CanonicalSize {
	return nearestIn(canonicalSizes[:], req)
}

func nearestIn(sizes []CanonicalSize, req RequestedSize) CanonicalSize {
	queryAvg := average(req.Width, req.Height)

	best := 0
	bestDiff := math.Inf(1)
	for i, size := range sizes {
		diff := math.Abs(queryAvg - average(size.Width, size.Height))
		if diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	return sizes[best]
}

func average(w, h int) float64 {
	return (float64(w) + float64(h)) / 2
}

// FitWithin applies the never-upscale rule independently per axis.
func FitWithin(src SourceMetadata, size CanonicalSize) (width, height int) {
	return min(src.Width, size.Width), min(src.Height, size.Height)
}
