// Package segment implements adaptive region-growing segmentation of grayscale
// intensity grids.
//
// A region is grown outward from one or more seed pixels. At every step the
// frontier pixel whose intensity is closest to the running mean of the region
// is absorbed, until that closest distance reaches the active threshold or the
// frontier runs dry. Growth is attempted over a ladder of thresholds, from the
// most permissive to the most restrictive; a rung that needs more iterations
// than the configured cap is abandoned and the next rung is tried. The last
// rung is never abandoned.
//
// # Coordinate System
//
// Points are (Row, Col) pairs with (0,0) at the top-left corner. Row grows
// downward, Col grows rightward. This matches the order used by the neighbour
// offsets, so exploring (1,1) with 4-connectivity visits (2,1), (1,2), (0,1)
// and (1,0) in that order.
//
// # Pixel States
//
// Every cell of a SegmentationMap is Unvisited, Frontier or Member. The state
// values double as compositing values (255, 150 and 0), so Composite is a
// per-pixel minimum of the original intensity and the state.
//
// # Concurrency
//
// Nothing in this package is shared between calls. A Run must not be used from
// more than one goroutine, but independent images can be segmented in
// parallel.
//
// # Errors
//
//   - ErrInvalidConfig (via *ConfigError): bad connectivity, ladder, cap, seeds
//   - ErrGrowthAborted: one rung exceeded the iteration cap
//   - ErrSegmentationFailed: every rung was abandoned
package segment
