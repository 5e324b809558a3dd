package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/regiongrow-mcp/internal/segment"
)

// ImageResult is an encoded image returned to MCP clients.
type ImageResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// ToGray converts img to 8-bit grayscale using ITU-R BT.601 luma weights,
// the same weights used by the reference preprocessing. The result always
// has its origin at (0,0).
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) {
		return g
	}
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// GridFromImage converts img to grayscale and copies it into an intensity
// grid. Pixel (X, Y) becomes cell (Row=Y, Col=X).
func GridFromImage(img image.Image) (*segment.Grid, error) {
	gray := ToGray(img)
	b := gray.Bounds()
	g, err := segment.NewGrid(b.Dy(), b.Dx())
	if err != nil {
		return nil, fmt.Errorf("image has no pixels: %w", err)
	}
	for y := 0; y < g.Height; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+g.Width]
		for x, v := range row {
			g.Pix[y*g.Width+x] = int(v)
		}
	}
	return g, nil
}

// GrayFromGrid renders a grid as an 8-bit image, clamping values above 255.
func GrayFromGrid(g *segment.Grid) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			v := g.Pix[r*g.Width+c]
			if v > 255 {
				v = 255
			}
			out.Pix[r*out.Stride+c] = uint8(v)
		}
	}
	return out
}

// EncodePNG encodes img as PNG and wraps it for transport.
func EncodePNG(img image.Image) (*ImageResult, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	b := img.Bounds()
	return &ImageResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SavePNG writes img to path as PNG.
func SavePNG(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
