package segment

import (
	"errors"
	"fmt"
	"image"
)

// Attempt records one rung of the threshold ladder.
type Attempt struct {
	Rung       int     `json:"rung"`
	Threshold  float64 `json:"threshold"`
	Terminal   bool    `json:"terminal"`
	Aborted    bool    `json:"aborted"`
	Iterations int     `json:"iterations"`
}

// Result is the outcome of a successful Segment call.
type Result struct {
	// Map is the segmentation map of the accepted rung.
	Map *SegmentationMap
	// Output is Composite(grid, Map).
	Output *image.Gray
	// Threshold and Rung identify the accepted rung.
	Threshold float64
	Rung      int
	// Attempts lists every rung that was tried, in ladder order.
	Attempts []Attempt
	// Stats are the counters of the accepted run.
	Stats RunStats
}

// Segment grows a region over grid, escalating through cfg.Thresholds until a
// rung completes within cfg.MaxIterations, and composites the result.
//
// Each rung gets a fresh Run; nothing carries over from an aborted rung. The
// last rung is terminal and cannot abort, so in practice the ladder always
// yields a result.
//
// Errors:
//   - *ConfigError (errors.Is ErrInvalidConfig) when cfg does not fit grid
//   - ErrSegmentationFailed if every rung aborted
func Segment(grid *Grid, cfg Config) (*Result, error) {
	return escalate(grid, cfg, true)
}

// escalate is Segment with the terminal-rung exemption made explicit so the
// all-rungs-aborted path stays reachable.
func escalate(grid *Grid, cfg Config, exemptTerminal bool) (*Result, error) {
	if err := cfg.Validate(grid); err != nil {
		return nil, err
	}

	attempts := make([]Attempt, 0, len(cfg.Thresholds))
	last := len(cfg.Thresholds) - 1

	for i, threshold := range cfg.Thresholds {
		terminal := exemptTerminal && i == last
		run, err := NewRun(grid, cfg.Connectivity, threshold, cfg.MaxIterations, terminal)
		if err != nil {
			return nil, err
		}

		seg, err := run.Grow(cfg.Seeds)
		attempt := Attempt{
			Rung:       i,
			Threshold:  threshold,
			Terminal:   i == last,
			Iterations: run.Stats().Iterations,
		}
		if errors.Is(err, ErrGrowthAborted) {
			attempt.Aborted = true
			attempts = append(attempts, attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)

		return &Result{
			Map:       seg,
			Output:    Composite(grid, seg),
			Threshold: threshold,
			Rung:      i,
			Attempts:  attempts,
			Stats:     run.Stats(),
		}, nil
	}

	return nil, fmt.Errorf("%w: all %d rungs exceeded %d iterations",
		ErrSegmentationFailed, len(cfg.Thresholds), cfg.MaxIterations)
}
