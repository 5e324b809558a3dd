package segment

import (
	"fmt"
	"math"
)

// Step describes one accepted growth iteration, passed to Run.Trace.
type Step struct {
	Seed       Point   // seed the current growth started from
	Iteration  int     // iterations completed for this seed, including this one
	Selected   Point   // frontier pixel chosen as the next current pixel
	Distance   float64 // |intensity(Selected) - mean| before the update
	RegionSize int     // region size after this step
	Mean       float64 // running mean after this step
	Frontier   int     // frontier length after removing Selected
}

// RunStats summarizes a finished run.
type RunStats struct {
	Iterations int     `json:"iterations"`
	RegionSize int     `json:"region_size"`
	FinalMean  float64 `json:"final_mean"`
	StopReason string  `json:"stop_reason"`
}

// Stop reasons reported in RunStats.
const (
	StopThreshold = "threshold"
	StopExhausted = "exhausted"
	StopAborted   = "aborted"
)

// Run is a single region-growing attempt over one grid with one threshold.
//
// A Run owns its SegmentationMap. It is not safe for concurrent use and is
// meant to be used once; the driver builds a fresh Run for every rung.
type Run struct {
	grid          *Grid
	seg           *SegmentationMap
	offsets       []Point
	threshold     float64
	maxIterations int
	terminal      bool

	// Trace, when set, is called after every accepted iteration.
	Trace func(Step)

	stats RunStats
}

// NewRun prepares a growth attempt.
//
// Parameters:
//   - grid: intensities to grow over; read-only for the lifetime of the run.
//   - conn: Conn4 or Conn8.
//   - threshold: growth stops once the nearest frontier pixel is this far
//     from the running mean. Must be positive and finite.
//   - maxIterations: iteration cap per seed. Exceeding it aborts the run
//     unless terminal is set.
//   - terminal: marks the last rung of a ladder, which is never aborted.
func NewRun(grid *Grid, conn Connectivity, threshold float64, maxIterations int, terminal bool) (*Run, error) {
	if grid == nil || grid.Height <= 0 || grid.Width <= 0 {
		return nil, ErrEmptyGrid
	}
	offsets, err := conn.Offsets()
	if err != nil {
		return nil, err
	}
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}
	if maxIterations <= 0 {
		return nil, configErrorf("max_iterations", maxIterations, "must be positive")
	}
	return &Run{
		grid:          grid,
		seg:           NewSegmentationMap(grid.Height, grid.Width),
		offsets:       offsets,
		threshold:     threshold,
		maxIterations: maxIterations,
		terminal:      terminal,
	}, nil
}

// Map returns the run's segmentation map. After an aborted Grow the map holds
// partial state and must not be used.
func (r *Run) Map() *SegmentationMap { return r.seg }

// Stats returns the counters of the last Grow call.
func (r *Run) Stats() RunStats { return r.stats }

// ExploreNeighbours appends every in-bounds Unvisited neighbour of p to the
// frontier, marking it Frontier. Pixels already on the frontier or absorbed
// are skipped, so the frontier never holds duplicates.
func (r *Run) ExploreNeighbours(f *FrontierList, p Point) *FrontierList {
	for _, d := range r.offsets {
		n := p.Add(d)
		if !r.grid.Contains(n) {
			continue
		}
		if r.seg.State(n) == Unvisited {
			f.Push(n)
			r.seg.setState(n, Frontier)
		}
	}
	return f
}

// Grow grows the region from each seed in order and returns the finished map.
//
// A seed that an earlier seed already absorbed is skipped. Each seed starts
// with its own empty frontier, a region size of one and the seed's intensity
// as the mean. Growth from a seed stops when the nearest frontier pixel is at
// least the threshold away from the mean, or when the frontier is empty.
//
// If a seed needs more than maxIterations iterations and the run is not
// terminal, Grow returns ErrGrowthAborted and the map must be discarded.
func (r *Run) Grow(seeds []Point) (*SegmentationMap, error) {
	r.stats = RunStats{}
	for _, seed := range seeds {
		if !r.grid.Contains(seed) {
			return nil, configErrorf("seed", seed, "outside %dx%d grid", r.grid.Height, r.grid.Width)
		}
		if r.seg.State(seed) == Member {
			continue
		}
		if err := r.growSeed(seed); err != nil {
			r.stats.StopReason = StopAborted
			return nil, err
		}
	}
	r.stats.RegionSize = r.seg.Count(Member)
	return r.seg, nil
}

func (r *Run) growSeed(seed Point) error {
	frontier := NewFrontier()
	current := seed
	size := 1
	mean := float64(r.grid.At(seed))
	dist := 0.0
	iterations := 0
	reason := StopThreshold

	for dist < r.threshold {
		if iterations > r.maxIterations && !r.terminal {
			return fmt.Errorf("%w: %d iterations from seed %v at threshold %g",
				ErrGrowthAborted, iterations, seed, r.threshold)
		}
		r.seg.setState(current, Member)
		r.ExploreNeighbours(frontier, current)

		var idx int
		idx, dist = NearestNeighbour(r.grid, frontier, mean)
		if idx == -1 {
			reason = StopExhausted
			break
		}

		current = frontier.At(idx)
		size++
		// The prior mean is weighted by the already incremented size. The
		// threshold ladder is tuned against exactly this update.
		mean = (mean*float64(size) + float64(r.grid.At(current))) / float64(size+1)
		frontier.Remove(idx)
		iterations++
		r.stats.Iterations++

		if r.Trace != nil {
			r.Trace(Step{
				Seed:       seed,
				Iteration:  iterations,
				Selected:   current,
				Distance:   dist,
				RegionSize: size,
				Mean:       mean,
				Frontier:   frontier.Len(),
			})
		}
	}
	r.stats.StopReason = reason
	r.stats.FinalMean = mean
	return nil
}

func validateThreshold(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
		return configErrorf("threshold", t, "must be positive and finite")
	}
	return nil
}
