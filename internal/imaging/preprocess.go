package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/regiongrow-mcp/internal/segment"
)

// AlignSource selects how Preprocess decides whether to mirror the image.
type AlignSource string

const (
	// AlignIntensity compares the mean gray level of the two halves.
	AlignIntensity AlignSource = "intensity"
	// AlignMarkers uses the laterality read from burned-in markers and falls
	// back to AlignIntensity when none was found.
	AlignMarkers AlignSource = "markers"
	// AlignNone never mirrors.
	AlignNone AlignSource = "none"
)

// ParseAlignSource accepts "intensity", "markers" or "none" (any case).
func ParseAlignSource(s string) (AlignSource, error) {
	switch a := AlignSource(strings.ToLower(strings.TrimSpace(s))); a {
	case AlignIntensity, AlignMarkers, AlignNone:
		return a, nil
	case "":
		return AlignIntensity, nil
	default:
		return "", fmt.Errorf("unknown alignment source %q (want intensity, markers or none)", s)
	}
}

// PreprocessOptions configures Preprocess.
type PreprocessOptions struct {
	// Size is the square working size; 0 keeps the original dimensions.
	Size int `json:"size" yaml:"size"`

	// ContrastFactor scales the distance of every pixel from the mean gray
	// level. 1 leaves the image unchanged.
	ContrastFactor float64 `json:"contrast_factor" yaml:"contrast_factor"`

	// Align chooses the left-alignment strategy.
	Align AlignSource `json:"align" yaml:"align"`

	// Laterality is "L" or "R" when known from markers; used by AlignMarkers.
	Laterality string `json:"laterality,omitempty" yaml:"-"`

	// RemoveBar crops the dark bar along the left edge after alignment.
	RemoveBar bool `json:"remove_bar" yaml:"remove_bar"`

	// SmoothingRadius applies a Gaussian blur of this radius when > 0.
	SmoothingRadius float64 `json:"smoothing_radius" yaml:"smoothing_radius"`

	// Normalize stretches the intensity range to 0..255.
	Normalize bool `json:"normalize" yaml:"normalize"`
}

// DefaultPreprocessOptions mirrors the reference pipeline: contrast 1.3,
// 256x256, intensity alignment, bar removal, normalization, no smoothing.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		Size:           256,
		ContrastFactor: 1.3,
		Align:          AlignIntensity,
		RemoveBar:      true,
		Normalize:      true,
	}
}

// PreprocessReport records what Preprocess did.
type PreprocessReport struct {
	OriginalWidth  int    `json:"original_width"`
	OriginalHeight int    `json:"original_height"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Flipped        bool   `json:"flipped"`
	FlipReason     string `json:"flip_reason,omitempty"`
	BarWidth       int    `json:"bar_width"`
	MinIntensity   int    `json:"min_intensity"`
	MaxIntensity   int    `json:"max_intensity"`
}

// Preprocess prepares a mammogram for region growing and returns its
// intensity grid.
//
// Parameters:
//   - img: decoded image, color or grayscale.
//   - opts: pipeline configuration; see DefaultPreprocessOptions.
//
// Returns the grid, a report of the applied steps, or an error when the
// options are invalid or the image is empty.
func Preprocess(img image.Image, opts PreprocessOptions) (*segment.Grid, *PreprocessReport, error) {
	if opts.Size < 0 {
		return nil, nil, fmt.Errorf("invalid working size %d", opts.Size)
	}
	if opts.ContrastFactor < 0 || math.IsNaN(opts.ContrastFactor) {
		return nil, nil, fmt.Errorf("invalid contrast factor %g", opts.ContrastFactor)
	}
	if opts.SmoothingRadius < 0 {
		return nil, nil, fmt.Errorf("invalid smoothing radius %g", opts.SmoothingRadius)
	}
	align := opts.Align
	if align == "" {
		align = AlignIntensity
	}

	gray := ToGray(img)
	b := gray.Bounds()
	if b.Empty() {
		return nil, nil, fmt.Errorf("image has no pixels")
	}
	report := &PreprocessReport{OriginalWidth: b.Dx(), OriginalHeight: b.Dy()}

	if opts.ContrastFactor != 0 && opts.ContrastFactor != 1 {
		gray = EnhanceContrast(gray, opts.ContrastFactor)
	}

	if opts.Size > 0 && (b.Dx() != opts.Size || b.Dy() != opts.Size) {
		gray = ToGray(imaging.Resize(gray, opts.Size, opts.Size, imaging.CatmullRom))
	}

	switch align {
	case AlignIntensity:
		gray, report.Flipped = LeftAlign(gray)
		if report.Flipped {
			report.FlipReason = "right half brighter"
		}
	case AlignMarkers:
		switch strings.ToUpper(opts.Laterality) {
		case "R":
			gray, report.Flipped = ToGray(imaging.FlipH(gray)), true
			report.FlipReason = "right laterality marker"
		case "L":
		default:
			gray, report.Flipped = LeftAlign(gray)
			if report.Flipped {
				report.FlipReason = "right half brighter"
			}
		}
	case AlignNone:
	default:
		return nil, nil, fmt.Errorf("unknown alignment source %q", align)
	}

	if opts.RemoveBar {
		gray, report.BarWidth = RemoveBar(gray)
	}

	if opts.SmoothingRadius > 0 {
		gray = ToGray(blur.Gaussian(gray, opts.SmoothingRadius))
	}

	grid, err := GridFromImage(gray)
	if err != nil {
		return nil, nil, err
	}
	if opts.Normalize {
		Normalize(grid)
	}

	report.Width, report.Height = grid.Width, grid.Height
	report.MinIntensity, report.MaxIntensity = intensityRange(grid)
	return grid, report, nil
}

// EnhanceContrast moves every pixel away from (factor > 1) or toward
// (factor < 1) the rounded mean gray level:
//
//	out = mean + factor*(in - mean)
//
// clamped to 0..255 and truncated toward zero. This is the blend PIL's
// ImageEnhance.Contrast performs.
func EnhanceContrast(img *image.Gray, factor float64) *image.Gray {
	mean := math.Floor(grayMean(ToGray(img)) + 0.5)
	adjusted := imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		v := clampByte(mean + factor*(float64(c.R)-mean))
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})
	return ToGray(adjusted)
}

// Normalize stretches grid intensities linearly so the minimum maps to 0 and
// the maximum to 255, truncating toward zero. A uniform grid is left as is.
func Normalize(g *segment.Grid) {
	lo, hi := intensityRange(g)
	if hi <= lo {
		return
	}
	span := float64(hi - lo)
	for i, v := range g.Pix {
		g.Pix[i] = int(float64(v-lo) * 255 / span)
	}
}

func intensityRange(g *segment.Grid) (int, int) {
	lo, hi := g.Pix[0], g.Pix[0]
	for _, v := range g.Pix[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// clampByte clamps v to 0..255 and drops the fraction.
func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
