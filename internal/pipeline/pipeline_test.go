package pipeline

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/regiongrow-mcp/internal/batch"
	"github.com/ironsheep/regiongrow-mcp/internal/imaging"
	"github.com/ironsheep/regiongrow-mcp/internal/segment"
)

// syntheticMammogram has a dark pectoral wedge in the upper-left corner,
// brighter tissue elsewhere, and the breast on the right half.
func syntheticMammogram(size int, breastOnRight bool) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			col := x
			if breastOnRight {
				col = size - 1 - x
			}
			v := uint8(30)
			switch {
			case col+y < size/3:
				v = 200
			case col < size*2/3:
				v = 120
			}
			img.Pix[y*img.Stride+x] = v
		}
	}
	return img
}

func smallOptions() Options {
	pre := imaging.DefaultPreprocessOptions()
	pre.Size = 32
	pre.ContrastFactor = 1
	return Options{Segmentation: segment.DefaultConfig(), Preprocess: pre}
}

func TestSegment_SkipPreprocess(t *testing.T) {
	opts := Options{Segmentation: segment.DefaultConfig(), SkipPreprocess: true}
	out, err := Segment(image.NewGray(image.Rect(0, 0, 4, 4)), opts, zerolog.Nop())
	require.NoError(t, err)

	_, err = uuid.Parse(out.RunID)
	assert.NoError(t, err)
	assert.Nil(t, out.Report)
	assert.Nil(t, out.Markers)
	assert.Equal(t, 0, out.Result.Rung)
	assert.Equal(t, 16, out.Measurement.Area)
	assert.Equal(t, 100.0, out.Measurement.CoveragePercent)
	assert.Equal(t, segment.StopExhausted, out.Result.Stats.StopReason)
}

func TestSegment_Preprocessed(t *testing.T) {
	out, err := Segment(syntheticMammogram(64, true), smallOptions(), zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, out.Report)

	assert.True(t, out.Report.Flipped)
	assert.Equal(t, out.Report.Width, out.Grid.Width)
	assert.Equal(t, out.Report.Height, out.Grid.Height)
	b := out.Result.Output.Bounds()
	assert.Equal(t, out.Grid.Width, b.Dx())
	assert.Equal(t, out.Grid.Height, b.Dy())
	assert.Positive(t, out.Measurement.Area)
	assert.Equal(t, out.Result.Stats.RegionSize, out.Measurement.Area)
}

func TestSegment_KnownLateralitySkipsOCR(t *testing.T) {
	opts := smallOptions()
	opts.Preprocess.Align = imaging.AlignMarkers
	opts.Preprocess.Laterality = "R"

	out, err := Segment(syntheticMammogram(64, false), opts, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, out.Markers)
	assert.True(t, out.Report.Flipped)
	assert.Equal(t, "right laterality marker", out.Report.FlipReason)
}

func TestSegment_InvalidConfig(t *testing.T) {
	opts := smallOptions()
	opts.Segmentation.Connectivity = 6
	_, err := Segment(syntheticMammogram(16, false), opts, zerolog.Nop())
	assert.ErrorIs(t, err, segment.ErrInvalidConfig)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "mdb001_segmented.png"), OutputPath("out", "/data/mias/mdb001.pgm"))
	assert.Equal(t, filepath.Join("out", "scan_segmented.png"), OutputPath("out", "scan"))
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestSegmentFiles(t *testing.T) {
	src := t.TempDir()
	outDir := t.TempDir()
	paths := []string{
		writePNG(t, src, "left.png", syntheticMammogram(48, false)),
		filepath.Join(src, "missing.png"),
		writePNG(t, src, "right.png", syntheticMammogram(48, true)),
	}
	cache := imaging.NewImageCache()

	outcomes, summary := SegmentFiles(context.Background(), cache, paths, outDir, 2, smallOptions(), zerolog.Nop())

	require.Len(t, outcomes, 3)
	assert.Equal(t, batch.Summary{Succeeded: 2, Failed: 1}, summary)
	assert.Zero(t, cache.Len(), "processed images are evicted")

	for _, i := range []int{0, 2} {
		o := outcomes[i]
		assert.Equal(t, paths[i], o.Path)
		assert.Empty(t, o.Error)
		require.NotNil(t, o.Stats)
		assert.FileExists(t, o.OutputPath)
		assert.NotEmpty(t, o.Attempts)
	}
	assert.NotEmpty(t, outcomes[1].Error)
	assert.Error(t, outcomes[1].Err)
	assert.Empty(t, outcomes[1].OutputPath)
	assert.NotEqual(t, outcomes[0].RunID, outcomes[2].RunID)
}

func TestSegmentFiles_KeepsPreloadedImages(t *testing.T) {
	src := t.TempDir()
	kept := writePNG(t, src, "kept.png", syntheticMammogram(32, false))
	fresh := writePNG(t, src, "fresh.png", syntheticMammogram(32, true))
	cache := imaging.NewImageCache()
	_, err := cache.Load(kept)
	require.NoError(t, err)

	_, summary := SegmentFiles(context.Background(), cache, []string{kept, fresh}, "", 2, smallOptions(), zerolog.Nop())

	assert.Equal(t, 2, summary.Succeeded)
	assert.True(t, cache.Contains(kept), "image cached before the batch must stay cached")
	assert.False(t, cache.Contains(fresh))
	assert.Equal(t, 1, cache.Len())
}

func TestSegmentFiles_NoOutputDir(t *testing.T) {
	src := t.TempDir()
	path := writePNG(t, src, "a.png", syntheticMammogram(32, false))

	outcomes, summary := SegmentFiles(context.Background(), imaging.NewImageCache(), []string{path}, "", 1, smallOptions(), zerolog.Nop())
	assert.Equal(t, 1, summary.Succeeded)
	assert.Empty(t, outcomes[0].OutputPath)
	assert.NotNil(t, outcomes[0].Output)

	entries, err := os.ReadDir(src)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "nothing written next to the source")
}

func TestSegmentFiles_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcomes, summary := SegmentFiles(ctx, imaging.NewImageCache(), []string{"a.png", "b.png"}, "", 2, smallOptions(), zerolog.Nop())
	assert.Equal(t, batch.Summary{Skipped: 2}, summary)
	for _, o := range outcomes {
		assert.True(t, o.Skipped)
	}
}
