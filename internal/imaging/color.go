package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/regiongrow-mcp/internal/segment"
)

// DefaultOverlayColor is the highlight used when none is given.
const DefaultOverlayColor = "#FF3030"

// OverlayOptions configures RenderOverlay.
type OverlayOptions struct {
	// Color is the highlight as "#RRGGBB" or "#RGB".
	Color string `json:"color" yaml:"color"`

	// Opacity is the blend weight of the highlight over member pixels, 0..1.
	Opacity float64 `json:"opacity" yaml:"opacity"`

	// ShowFrontier also tints pixels left on the frontier, at half opacity.
	ShowFrontier bool `json:"show_frontier" yaml:"show_frontier"`
}

// DefaultOverlayOptions returns a half-opaque red highlight without frontier.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{Color: DefaultOverlayColor, Opacity: 0.5}
}

// ParseColor parses a hex color string like "#FF0000" or "#F00".
func ParseColor(hex string) (colorful.Color, error) {
	if hex == "" {
		return colorful.Color{}, fmt.Errorf("empty color string")
	}
	if hex[0] != '#' {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c, nil
}

// RenderOverlay draws the segmented region on top of the grayscale base
// image. Member pixels are blended toward the highlight color in CIE L*a*b*,
// which keeps the underlying texture visible.
//
// base must have the same dimensions as m.
func RenderOverlay(base *image.Gray, m *segment.SegmentationMap, opts OverlayOptions) (*image.NRGBA, error) {
	base = ToGray(base)
	b := base.Bounds()
	if b.Dx() != m.Width || b.Dy() != m.Height {
		return nil, fmt.Errorf("overlay base is %dx%d, segmentation is %dx%d",
			b.Dx(), b.Dy(), m.Width, m.Height)
	}
	if opts.Color == "" {
		opts.Color = DefaultOverlayColor
	}
	highlight, err := ParseColor(opts.Color)
	if err != nil {
		return nil, err
	}
	if opts.Opacity < 0 || opts.Opacity > 1 {
		return nil, fmt.Errorf("opacity %g outside 0..1", opts.Opacity)
	}

	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			g := float64(base.Pix[y*base.Stride+x]) / 255
			c := colorful.Color{R: g, G: g, B: g}

			switch m.States[y*m.Width+x] {
			case segment.Member:
				c = c.BlendLab(highlight, opts.Opacity).Clamped()
			case segment.Frontier:
				if opts.ShowFrontier {
					c = c.BlendLab(highlight, opts.Opacity/2).Clamped()
				}
			}

			r, gg, bb := c.RGB255()
			out.SetNRGBA(x, y, color.NRGBA{R: r, G: gg, B: bb, A: 255})
		}
	}
	return out, nil
}
