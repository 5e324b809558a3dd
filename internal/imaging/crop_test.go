package imaging

import (
	"image"
	"testing"
)

// mirror returns img flipped horizontally without going through the
// functions under test.
func mirror(img *image.Gray) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = img.Pix[y*img.Stride+b.Dx()-1-x]
		}
	}
	return out
}

func TestBarWidth(t *testing.T) {
	tests := []struct {
		name string
		img  *image.Gray
		want int
	}{
		{"three column bar", createMammogram(20, 10, 3), 3},
		{"no bar", createMammogram(20, 10, 0), 0},
		{"fully dark row", createGray([][]uint8{{0, 0, 0}, {0, 0, 0}}), 0},
		{"single row", createGray([][]uint8{{0, 0, 200, 200}}), 2},
		{"empty", image.NewGray(image.Rect(0, 0, 0, 0)), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BarWidth(tt.img); got != tt.want {
				t.Errorf("BarWidth: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBarWidth_UsesSecondRow(t *testing.T) {
	// Row 0 is bright everywhere; row 1 starts with two dark pixels.
	img := createGray([][]uint8{
		{200, 200, 200, 200},
		{0, 0, 200, 200},
		{200, 200, 200, 200},
	})
	if got := BarWidth(img); got != 2 {
		t.Errorf("BarWidth: got %d, want 2", got)
	}
}

func TestRemoveBar(t *testing.T) {
	img := createMammogram(20, 10, 3)
	cropped, width := RemoveBar(img)
	if width != 3 {
		t.Fatalf("width: got %d, want 3", width)
	}
	b := cropped.Bounds()
	if b.Dx() != 17 || b.Dy() != 10 {
		t.Errorf("cropped size: got %dx%d, want 17x10", b.Dx(), b.Dy())
	}
	if b.Min != (image.Point{}) {
		t.Errorf("cropped origin: got %v, want (0,0)", b.Min)
	}
	if v := cropped.GrayAt(0, 5).Y; v != 180 {
		t.Errorf("first column after crop: got %d, want 180", v)
	}

	same, width := RemoveBar(createMammogram(20, 10, 0))
	if width != 0 || same.Bounds().Dx() != 20 {
		t.Errorf("image without bar should be unchanged, got width %d", width)
	}
}

func TestLeftAlign(t *testing.T) {
	left := createMammogram(20, 10, 3)
	if NeedsFlip(left) {
		t.Error("left-oriented image should not need a flip")
	}
	out, flipped := LeftAlign(left)
	if flipped || out != left {
		t.Error("LeftAlign should return a left-oriented image unchanged")
	}

	right := mirror(left)
	if !NeedsFlip(right) {
		t.Fatal("right-oriented image should need a flip")
	}
	out, flipped = LeftAlign(right)
	if !flipped {
		t.Fatal("LeftAlign should report a flip")
	}
	for i := range left.Pix {
		if out.Pix[i] != left.Pix[i] {
			t.Fatalf("pixel %d: got %d, want %d", i, out.Pix[i], left.Pix[i])
		}
	}
}

func TestNeedsFlip_Narrow(t *testing.T) {
	if NeedsFlip(createGray([][]uint8{{0}, {255}})) {
		t.Error("single-column image should never flip")
	}
}
