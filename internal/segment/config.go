package segment

// DefaultMaxIterations is the per-seed iteration cap used when none is given.
const DefaultMaxIterations = 6200

// DefaultThresholds is the ladder tried when none is given, most permissive first.
func DefaultThresholds() []float64 {
	return []float64{60, 40, 30, 20, 10, 5, 2.5}
}

// DefaultSeeds returns the single seed near the top-left interior.
func DefaultSeeds() []Point {
	return []Point{{Row: 1, Col: 1}}
}

// Config holds everything the threshold-escalation driver needs besides the grid.
type Config struct {
	Connectivity  Connectivity `json:"connectivity" yaml:"connectivity"`
	MaxIterations int          `json:"max_iterations" yaml:"max_iterations"`
	Thresholds    []float64    `json:"thresholds" yaml:"thresholds"`
	Seeds         []Point      `json:"seeds" yaml:"seeds"`
}

// DefaultConfig returns 4-connectivity, the default cap, ladder and seed.
func DefaultConfig() Config {
	return Config{
		Connectivity:  Conn4,
		MaxIterations: DefaultMaxIterations,
		Thresholds:    DefaultThresholds(),
		Seeds:         DefaultSeeds(),
	}
}

// Validate checks c against the grid it will be applied to. Every failure is
// a *ConfigError.
func (c Config) Validate(g *Grid) error {
	if g == nil || g.Height <= 0 || g.Width <= 0 {
		return ErrEmptyGrid
	}
	if !c.Connectivity.Valid() {
		return configErrorf("connectivity", int(c.Connectivity), "must be 4 or 8")
	}
	if c.MaxIterations <= 0 {
		return configErrorf("max_iterations", c.MaxIterations, "must be positive")
	}
	if len(c.Thresholds) == 0 {
		return configErrorf("thresholds", c.Thresholds, "ladder is empty")
	}
	for _, t := range c.Thresholds {
		if err := validateThreshold(t); err != nil {
			return err
		}
	}
	if len(c.Seeds) == 0 {
		return configErrorf("seeds", c.Seeds, "at least one seed is required")
	}
	for _, s := range c.Seeds {
		if !g.Contains(s) {
			return configErrorf("seed", s, "outside %dx%d grid", g.Height, g.Width)
		}
	}
	return nil
}
