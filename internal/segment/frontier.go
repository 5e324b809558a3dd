package segment

import "math"

// noNeighbourDistance is reported by NearestNeighbour for an empty frontier.
// Any threshold in a sane ladder is below it, so growth stops.
const noNeighbourDistance = 1000.0

// FrontierList is the insertion-ordered list of discovered, not yet absorbed pixels.
//
// The order matters: NearestNeighbour breaks ties by lowest index, and Remove
// shifts later entries down by one, so the tie-break depends on the complete
// history of insertions and removals. A heap would change results.
type FrontierList struct {
	points []Point
}

// NewFrontier returns a frontier holding points in the given order.
func NewFrontier(points ...Point) *FrontierList {
	return &FrontierList{points: append([]Point(nil), points...)}
}

// Len returns the number of pixels on the frontier.
func (f *FrontierList) Len() int { return len(f.points) }

// At returns the i-th pixel.
func (f *FrontierList) At(i int) Point { return f.points[i] }

// Points returns a copy of the frontier in order.
func (f *FrontierList) Points() []Point {
	return append([]Point(nil), f.points...)
}

// Push appends p.
func (f *FrontierList) Push(p Point) {
	f.points = append(f.points, p)
}

// Remove deletes the i-th pixel, keeping the relative order of the rest.
func (f *FrontierList) Remove(i int) Point {
	p := f.points[i]
	copy(f.points[i:], f.points[i+1:])
	f.points = f.points[:len(f.points)-1]
	return p
}

// NearestNeighbour scans the frontier in order and returns the index of the
// pixel whose intensity is closest to mean, with that distance. The earliest
// index wins ties. An empty frontier yields (-1, 1000).
func NearestNeighbour(g *Grid, f *FrontierList, mean float64) (int, float64) {
	best, bestDist := -1, noNeighbourDistance
	for i, p := range f.points {
		d := math.Abs(float64(g.At(p)) - mean)
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}
