package segment

import "fmt"

// Point is a pixel coordinate. Row is the vertical index, Col the horizontal one.
type Point struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// Add returns p shifted by the offset d.
func (p Point) Add(d Point) Point {
	return Point{Row: p.Row + d.Row, Col: p.Col + d.Col}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Grid is a rectangular grid of non-negative pixel intensities stored row-major.
//
// A Grid is treated as read-only while a Run is using it.
type Grid struct {
	Height int
	Width  int
	Pix    []int
}

// NewGrid returns an all-zero grid of the given shape.
func NewGrid(height, width int) (*Grid, error) {
	if height <= 0 || width <= 0 {
		return nil, ErrEmptyGrid
	}
	return &Grid{
		Height: height,
		Width:  width,
		Pix:    make([]int, height*width),
	}, nil
}

// FromRows builds a Grid from a slice of rows, copying the values.
//
// Errors:
//   - ErrEmptyGrid when rows is empty or the first row is empty
//   - ErrNonRectangular when rows differ in length
//   - ErrNegativeIntensity when any value is below zero
func FromRows(rows [][]int) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	width := len(rows[0])
	g := &Grid{
		Height: len(rows),
		Width:  width,
		Pix:    make([]int, 0, len(rows)*width),
	}
	for r, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrNonRectangular, r, len(row), width)
		}
		for c, v := range row {
			if v < 0 {
				return nil, fmt.Errorf("%w: (%d,%d)=%d", ErrNegativeIntensity, r, c, v)
			}
		}
		g.Pix = append(g.Pix, row...)
	}
	return g, nil
}

// At returns the intensity at p. p must be inside the grid.
func (g *Grid) At(p Point) int {
	return g.Pix[p.Row*g.Width+p.Col]
}

// Set stores v at p. p must be inside the grid.
func (g *Grid) Set(p Point, v int) {
	g.Pix[p.Row*g.Width+p.Col] = v
}

// Contains reports whether p lies inside the grid.
func (g *Grid) Contains(p Point) bool {
	return InsideShape(p, g.Height, g.Width)
}

// Rows returns a copy of the grid as a slice of rows.
func (g *Grid) Rows() [][]int {
	rows := make([][]int, g.Height)
	for r := range rows {
		rows[r] = append([]int(nil), g.Pix[r*g.Width:(r+1)*g.Width]...)
	}
	return rows
}

// InsideShape reports whether p lies inside a grid of the given height and width.
func InsideShape(p Point, height, width int) bool {
	return 0 <= p.Row && p.Row < height && 0 <= p.Col && p.Col < width
}

// State is the growth state of one pixel. The numeric value is the intensity
// the pixel is clamped to when compositing.
type State uint8

const (
	// Member pixels have been absorbed into the region.
	Member State = 0
	// Frontier pixels have been discovered but not absorbed.
	Frontier State = 150
	// Unvisited pixels have not been reached.
	Unvisited State = 255
)

func (s State) String() string {
	switch s {
	case Member:
		return "member"
	case Frontier:
		return "frontier"
	case Unvisited:
		return "unvisited"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// SegmentationMap holds one State per pixel, same shape as the grid it was
// grown over.
type SegmentationMap struct {
	Height int
	Width  int
	States []State
}

// NewSegmentationMap returns a map with every cell Unvisited.
func NewSegmentationMap(height, width int) *SegmentationMap {
	states := make([]State, height*width)
	for i := range states {
		states[i] = Unvisited
	}
	return &SegmentationMap{Height: height, Width: width, States: states}
}

// State returns the state of p.
func (m *SegmentationMap) State(p Point) State {
	return m.States[p.Row*m.Width+p.Col]
}

// setState only moves a cell forward: Unvisited -> Frontier -> Member.
func (m *SegmentationMap) setState(p Point, s State) {
	i := p.Row*m.Width + p.Col
	if s < m.States[i] {
		m.States[i] = s
	}
}

// Count returns how many cells are in state s.
func (m *SegmentationMap) Count(s State) int {
	n := 0
	for _, v := range m.States {
		if v == s {
			n++
		}
	}
	return n
}
