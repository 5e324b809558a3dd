package imaging

import (
	"fmt"
	"math"

	"github.com/ironsheep/regiongrow-mcp/internal/segment"
)

// BoundingBox is an inclusive row/column range.
type BoundingBox struct {
	MinRow int `json:"min_row"`
	MinCol int `json:"min_col"`
	MaxRow int `json:"max_row"`
	MaxCol int `json:"max_col"`
}

// Centroid is the mean position of the region's pixels.
type Centroid struct {
	Row float64 `json:"row"`
	Col float64 `json:"col"`
}

// RegionMeasurement describes the pixels absorbed into a segmented region.
type RegionMeasurement struct {
	Area            int          `json:"area"`
	FrontierPixels  int          `json:"frontier_pixels"`
	CoveragePercent float64      `json:"coverage_percent"`
	BoundingBox     *BoundingBox `json:"bounding_box,omitempty"`
	Centroid        *Centroid    `json:"centroid,omitempty"`
	MeanIntensity   float64      `json:"mean_intensity"`
}

// MeasureRegion computes area, coverage, bounding box, centroid and mean
// intensity of the Member pixels of m over g. The box and centroid are nil
// when nothing was absorbed. Values are rounded to two decimals.
func MeasureRegion(g *segment.Grid, m *segment.SegmentationMap) (*RegionMeasurement, error) {
	if g.Height != m.Height || g.Width != m.Width {
		return nil, fmt.Errorf("grid is %dx%d, segmentation is %dx%d",
			g.Height, g.Width, m.Height, m.Width)
	}

	res := &RegionMeasurement{}
	var sumRow, sumCol, sumVal float64
	box := BoundingBox{MinRow: m.Height, MinCol: m.Width, MaxRow: -1, MaxCol: -1}

	for i, s := range m.States {
		switch s {
		case segment.Frontier:
			res.FrontierPixels++
			continue
		case segment.Member:
		default:
			continue
		}
		r, c := i/m.Width, i%m.Width
		res.Area++
		sumRow += float64(r)
		sumCol += float64(c)
		sumVal += float64(g.Pix[i])
		box.MinRow = minInt(box.MinRow, r)
		box.MinCol = minInt(box.MinCol, c)
		box.MaxRow = maxInt(box.MaxRow, r)
		box.MaxCol = maxInt(box.MaxCol, c)
	}

	total := m.Height * m.Width
	res.CoveragePercent = round2(float64(res.Area) / float64(total) * 100)
	if res.Area == 0 {
		return res, nil
	}
	n := float64(res.Area)
	res.BoundingBox = &box
	res.Centroid = &Centroid{Row: round2(sumRow / n), Col: round2(sumCol / n)}
	res.MeanIntensity = round2(sumVal / n)
	return res, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
