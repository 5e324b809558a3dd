package imaging

import (
	"testing"

	"github.com/ironsheep/regiongrow-mcp/internal/segment"
)

func TestMeasureRegion(t *testing.T) {
	g, _ := segment.FromRows([][]int{
		{10, 20, 0, 0},
		{0, 30, 0, 0},
		{0, 0, 0, 0},
	})
	m := segment.NewSegmentationMap(3, 4)
	// Members at (0,0), (0,1) and (1,1); one frontier cell at (2,3).
	m.States[0] = segment.Member
	m.States[1] = segment.Member
	m.States[5] = segment.Member
	m.States[11] = segment.Frontier

	res, err := MeasureRegion(g, m)
	if err != nil {
		t.Fatalf("MeasureRegion failed: %v", err)
	}
	if res.Area != 3 {
		t.Errorf("Area: got %d, want 3", res.Area)
	}
	if res.FrontierPixels != 1 {
		t.Errorf("FrontierPixels: got %d, want 1", res.FrontierPixels)
	}
	if res.CoveragePercent != 25 {
		t.Errorf("CoveragePercent: got %v, want 25", res.CoveragePercent)
	}
	want := BoundingBox{MinRow: 0, MinCol: 0, MaxRow: 1, MaxCol: 1}
	if res.BoundingBox == nil || *res.BoundingBox != want {
		t.Errorf("BoundingBox: got %+v, want %+v", res.BoundingBox, want)
	}
	if res.Centroid == nil || res.Centroid.Row != 0.33 || res.Centroid.Col != 0.67 {
		t.Errorf("Centroid: got %+v, want {0.33 0.67}", res.Centroid)
	}
	if res.MeanIntensity != 20 {
		t.Errorf("MeanIntensity: got %v, want 20", res.MeanIntensity)
	}
}

func TestMeasureRegion_Empty(t *testing.T) {
	g, _ := segment.NewGrid(2, 2)
	res, err := MeasureRegion(g, segment.NewSegmentationMap(2, 2))
	if err != nil {
		t.Fatalf("MeasureRegion failed: %v", err)
	}
	if res.Area != 0 || res.CoveragePercent != 0 {
		t.Errorf("unexpected measurement: %+v", res)
	}
	if res.BoundingBox != nil || res.Centroid != nil {
		t.Error("empty region should have no box or centroid")
	}
}

func TestMeasureRegion_ShapeMismatch(t *testing.T) {
	g, _ := segment.NewGrid(2, 2)
	if _, err := MeasureRegion(g, segment.NewSegmentationMap(2, 3)); err == nil {
		t.Error("expected error for mismatched shapes")
	}
}
