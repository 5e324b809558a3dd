// Package pipeline chains preprocessing, region growing and measurement for
// one image, and fans the chain out over many files. Both the MCP server and
// the segment CLI command run through it.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ironsheep/regiongrow-mcp/internal/annotation"
	"github.com/ironsheep/regiongrow-mcp/internal/batch"
	"github.com/ironsheep/regiongrow-mcp/internal/imaging"
	"github.com/ironsheep/regiongrow-mcp/internal/segment"
)

// OutputSuffix is appended to the source file stem for saved results.
const OutputSuffix = "_segmented.png"

// Options configures one pipeline run.
type Options struct {
	Segmentation segment.Config
	Preprocess   imaging.PreprocessOptions

	// SkipPreprocess segments the image as decoded, only converted to gray.
	SkipPreprocess bool

	// OCRLanguage is used when Preprocess.Align is AlignMarkers.
	OCRLanguage string
}

// Output is everything a run produced.
type Output struct {
	RunID string

	// Grid is the intensity grid that was segmented.
	Grid *segment.Grid

	// Report is nil when preprocessing was skipped.
	Report *imaging.PreprocessReport

	// Markers is set when marker OCR ran.
	Markers *annotation.Markers

	Result      *segment.Result
	Measurement *imaging.RegionMeasurement
}

// Segment runs the pipeline on img under a fresh run ID.
func Segment(img image.Image, opts Options, log zerolog.Logger) (*Output, error) {
	return SegmentWithID(uuid.NewString(), img, opts, log)
}

// Prepare converts img into the intensity grid that will be segmented. With
// SkipPreprocess the report and markers are nil. Markers are read only when
// alignment uses them and no laterality was supplied; an OCR failure falls
// back to intensity alignment.
func Prepare(img image.Image, opts Options, log zerolog.Logger) (*segment.Grid, *imaging.PreprocessReport, *annotation.Markers, error) {
	if opts.SkipPreprocess {
		grid, err := imaging.GridFromImage(img)
		return grid, nil, nil, err
	}

	var markers *annotation.Markers
	popts := opts.Preprocess
	if popts.Align == imaging.AlignMarkers && popts.Laterality == "" {
		m, err := annotation.ReadMarkers(img, opts.OCRLanguage)
		if err != nil {
			log.Warn().Err(err).Msg("marker OCR failed, aligning by intensity")
		} else {
			markers = m
			popts.Laterality = string(m.Laterality)
		}
	}

	grid, report, err := imaging.Preprocess(img, popts)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("preprocessing failed: %w", err)
	}
	log.Debug().
		Bool("flipped", report.Flipped).
		Int("bar_width", report.BarWidth).
		Int("width", report.Width).
		Int("height", report.Height).
		Msg("preprocessed")
	return grid, report, markers, nil
}

// SegmentWithID is Segment under a caller chosen run ID.
func SegmentWithID(runID string, img image.Image, opts Options, log zerolog.Logger) (*Output, error) {
	log = log.With().Str("run_id", runID).Logger()
	out := &Output{RunID: runID}
	start := time.Now()

	var err error
	out.Grid, out.Report, out.Markers, err = Prepare(img, opts, log)
	if err != nil {
		return nil, err
	}

	res, err := segment.Segment(out.Grid, opts.Segmentation)
	if err != nil {
		return nil, err
	}
	out.Result = res

	out.Measurement, err = imaging.MeasureRegion(out.Grid, res.Map)
	if err != nil {
		return nil, err
	}

	log.Info().
		Float64("threshold", res.Threshold).
		Int("rung", res.Rung).
		Int("attempts", len(res.Attempts)).
		Int("region_size", res.Stats.RegionSize).
		Int("iterations", res.Stats.Iterations).
		Dur("elapsed", time.Since(start)).
		Msg("segmented")
	return out, nil
}

// OutputPath returns dir/<stem of src>_segmented.png.
func OutputPath(dir, src string) string {
	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+OutputSuffix)
}

// FileOutcome is the result of segmenting one file.
type FileOutcome struct {
	Path       string            `json:"path"`
	RunID      string            `json:"run_id"`
	OutputPath string            `json:"output_path,omitempty"`
	Threshold  float64           `json:"threshold,omitempty"`
	Rung       int               `json:"rung"`
	Attempts   []segment.Attempt `json:"attempts,omitempty"`
	Stats      *segment.RunStats `json:"stats,omitempty"`
	Skipped    bool              `json:"skipped,omitempty"`
	Error      string            `json:"error,omitempty"`
	DurationMS int64             `json:"duration_ms"`
	Output     *Output           `json:"-"`
	Err        error             `json:"-"`
}

// SegmentFiles segments every path on a pool of workers. When outDir is not
// empty each composited result is written there as <stem>_segmented.png.
// Images are decoded through cache; those not cached beforehand are evicted
// once processed.
//
// Outcomes are in path order; per-file failures are recorded, not returned.
func SegmentFiles(ctx context.Context, cache *imaging.ImageCache, paths []string, outDir string,
	workers int, opts Options, log zerolog.Logger) ([]FileOutcome, batch.Summary) {

	results := batch.Run(ctx, paths, workers, func(_ context.Context, runID, path string) (*Output, error) {
		preloaded := cache.Contains(path)
		img, err := cache.Load(path)
		if err != nil {
			return nil, err
		}
		if !preloaded {
			defer cache.Evict(path)
		}

		out, err := SegmentWithID(runID, img, opts, log.With().Str("path", path).Logger())
		if err != nil {
			return nil, err
		}
		if outDir != "" {
			if err := imaging.SavePNG(out.Result.Output, OutputPath(outDir, path)); err != nil {
				return nil, err
			}
		}
		return out, nil
	})

	outcomes := make([]FileOutcome, len(results))
	for i, r := range results {
		o := FileOutcome{
			Path:       paths[i],
			RunID:      r.RunID,
			Skipped:    r.Skipped,
			DurationMS: r.Duration.Milliseconds(),
			Output:     r.Value,
			Err:        r.Err,
		}
		if r.Err != nil {
			o.Error = r.Err.Error()
			if !r.Skipped {
				log.Error().Err(r.Err).Str("path", paths[i]).Str("run_id", r.RunID).Msg("segmentation failed")
			}
		} else {
			res := r.Value.Result
			o.Threshold, o.Rung, o.Attempts = res.Threshold, res.Rung, res.Attempts
			stats := res.Stats
			o.Stats = &stats
			if outDir != "" {
				o.OutputPath = OutputPath(outDir, paths[i])
			}
		}
		outcomes[i] = o
	}
	return outcomes, batch.Summarize(results)
}
