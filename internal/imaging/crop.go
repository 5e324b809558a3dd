package imaging

import (
	"image"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"
)

// grayMean returns the mean gray level of img.
func grayMean(img *image.Gray) float64 {
	b := img.Bounds()
	values := make([]float64, 0, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for _, v := range img.Pix[y*img.Stride : y*img.Stride+b.Dx()] {
			values = append(values, float64(v))
		}
	}
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// columnMean returns the mean gray level of columns [x0, x1).
func columnMean(img *image.Gray, x0, x1 int) float64 {
	b := img.Bounds()
	values := make([]float64, 0, (x1-x0)*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := x0; x < x1; x++ {
			values = append(values, float64(img.Pix[y*img.Stride+x]))
		}
	}
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// BarWidth measures the dark scanner bar along the left edge: the number of
// leading pixels in the second row whose value does not exceed the image
// mean. A row that is dark all the way across yields 0, since there is no
// breast tissue to keep.
func BarWidth(img *image.Gray) int {
	img = ToGray(img)
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return 0
	}
	row := 1
	if b.Dy() < 2 {
		row = 0
	}
	mean := grayMean(img)
	pix := img.Pix[row*img.Stride : row*img.Stride+b.Dx()]

	width := 0
	for width < len(pix) && float64(pix[width]) <= mean {
		width++
	}
	if width == len(pix) {
		return 0
	}
	return width
}

// RemoveBar crops the dark left bar measured by BarWidth and returns the
// cropped image with the number of columns removed.
func RemoveBar(img *image.Gray) (*image.Gray, int) {
	width := BarWidth(img)
	if width == 0 {
		return img, 0
	}
	b := img.Bounds()
	cropped := imaging.Crop(img, image.Rect(width, 0, b.Dx(), b.Dy()))
	return ToGray(cropped), width
}

// NeedsFlip reports whether the left half of img is darker than the right
// half, meaning the breast lies on the right and the image should be
// mirrored.
func NeedsFlip(img *image.Gray) bool {
	img = ToGray(img)
	w := img.Bounds().Dx()
	if w < 2 {
		return false
	}
	return columnMean(img, 0, w/2) < columnMean(img, w/2, w)
}

// LeftAlign mirrors img horizontally when NeedsFlip reports so.
func LeftAlign(img *image.Gray) (*image.Gray, bool) {
	if !NeedsFlip(img) {
		return img, false
	}
	return ToGray(imaging.FlipH(img)), true
}
