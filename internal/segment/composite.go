package segment

import "image"

// Composite merges the grid with a segmentation map: every output pixel is
// min(intensity, state value), which always fits in 8 bits. Member pixels
// become black, Unvisited pixels keep their intensity and leftover Frontier
// pixels are capped at 150.
//
// Composite does not modify its inputs. It panics if the shapes differ.
func Composite(g *Grid, m *SegmentationMap) *image.Gray {
	if g.Height != m.Height || g.Width != m.Width {
		panic("segment: grid and segmentation map shapes differ")
	}
	out := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			i := r*g.Width + c
			v := g.Pix[i]
			if s := int(m.States[i]); s < v {
				v = s
			}
			out.Pix[r*out.Stride+c] = uint8(v)
		}
	}
	return out
}
