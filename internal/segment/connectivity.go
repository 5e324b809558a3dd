package segment

import "fmt"

// Connectivity selects which neighbours of a pixel are examined when the
// region expands.
type Connectivity int

const (
	// Conn4 examines the orthogonal neighbours.
	Conn4 Connectivity = 4
	// Conn8 also examines the diagonals.
	Conn8 Connectivity = 8
)

var (
	offsets4 = []Point{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	offsets8 = []Point{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
)

// Offsets returns the relative neighbour offsets in exploration order.
// The order is part of the algorithm: it fixes the frontier insertion order
// and therefore which pixel wins a distance tie.
func (c Connectivity) Offsets() ([]Point, error) {
	switch c {
	case Conn4:
		return offsets4, nil
	case Conn8:
		return offsets8, nil
	default:
		return nil, configErrorf("connectivity", int(c), "must be 4 or 8")
	}
}

// Valid reports whether c is Conn4 or Conn8.
func (c Connectivity) Valid() bool {
	return c == Conn4 || c == Conn8
}

func (c Connectivity) String() string {
	if c.Valid() {
		return fmt.Sprintf("%d-connected", int(c))
	}
	return fmt.Sprintf("Connectivity(%d)", int(c))
}
