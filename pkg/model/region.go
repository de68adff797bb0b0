package model

import (
	"image"
	"math"
)

const (
	regionMargin = 20
	// jaw extremities of the 66 point shape
	leftJawLandmark  = 0
	rightJawLandmark = 16
)

// Region returns the face equalisation region for an image of cols x rows,
// widened by a margin and clamped to the image. Empty when no face was found.
func (r Result) Region(cols, rows int) image.Rectangle {
	if !r.Found() {
		return image.Rectangle{}
	}

	left, right := r.horizontalExtent()
	top, bottom := r.verticalExtent()

	rect := image.Rect(
		int(math.Floor(widenLow(left))),
		int(math.Floor(widenLow(top))),
		int(math.Ceil(widenHigh(right, float64(cols)))),
		int(math.Ceil(widenHigh(bottom, float64(rows)))),
	)
	return rect.Intersect(image.Rect(0, 0, cols, rows))
}

func (r Result) horizontalExtent() (float64, float64) {
	if len(r.Landmarks) > rightJawLandmark {
		return r.Landmarks[leftJawLandmark].X, r.Landmarks[rightJawLandmark].X
	}
	if len(r.Landmarks) == 0 {
		return float64(r.Face.Min.X), float64(r.Face.Max.X)
	}
	minX, maxX := r.Landmarks[0].X, r.Landmarks[0].X
	for _, l := range r.Landmarks[1:] {
		minX = math.Min(minX, l.X)
		maxX = math.Max(maxX, l.X)
	}
	return minX, maxX
}

func (r Result) verticalExtent() (float64, float64) {
	if len(r.Landmarks) == 0 {
		return float64(r.Face.Min.Y), float64(r.Face.Max.Y)
	}
	minY, maxY := r.Landmarks[0].Y, r.Landmarks[0].Y
	for _, l := range r.Landmarks[1:] {
		minY = math.Min(minY, l.Y)
		maxY = math.Max(maxY, l.Y)
	}
	return minY, maxY
}

// widenLow moves a lower bound out by the margin without crossing zero.
func widenLow(v float64) float64 {
	if v < regionMargin+0.5 {
		if v < 0 {
			return 0
		}
		return v
	}
	return v - regionMargin
}

// widenHigh moves an upper bound out by the margin without crossing limit.
func widenHigh(v, limit float64) float64 {
	if v+regionMargin > limit-0.5 {
		if v > limit {
			return limit
		}
		return v
	}
	return v + regionMargin
}
