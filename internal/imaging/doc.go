// Package imaging loads mammogram images and turns them into intensity grids
// ready for region growing, and turns segmentation results back into images.
//
// This package covers everything around the segmentation engine that touches
// pixels: decoding (PNG, JPEG, GIF, TIFF, BMP and PGM, from disk or base64),
// preprocessing (contrast, resize, left alignment, bar removal, smoothing and
// normalization), conversion between image.Image and segment.Grid, overlay
// rendering, and measurements of the segmented region.
//
// # Coordinate System
//
// Images use the standard Go convention: (0,0) top-left, X rightward, Y
// downward. Grids and segmentation maps use (Row, Col), so pixel (X, Y) of an
// image is cell (Row=Y, Col=X) of the grid built from it.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and never modify their input images or grids.
//
// # Preprocessing Pipeline
//
// Preprocess applies, in order:
//  1. PIL-style contrast enhancement around the mean gray level
//  2. Resize to a square working size
//  3. Left alignment (flip horizontally when the breast lies on the right)
//  4. Removal of the dark bar along the left edge
//  5. Optional Gaussian smoothing
//  6. Min/max normalization to 0..255
//
// Every step is configurable through PreprocessOptions and reported in
// PreprocessReport.
package imaging
