package imaging

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

// The mini-MIAS mammogram set ships as PGM, which neither the standard
// library nor golang.org/x/image decodes. Both the binary (P5) and the
// plain (P2) variants are registered with the image package.
func init() {
	image.RegisterFormat("pgm", "P5", decodePGM, decodePGMConfig)
	image.RegisterFormat("pgm", "P2", decodePGM, decodePGMConfig)
}

// maxPGMPixels bounds width*height so a hostile header cannot demand an
// arbitrarily large raster.
const maxPGMPixels = 1 << 28

var (
	errPGMHeader = errors.New("pgm: malformed header")
	errPGMSize   = errors.New("pgm: image too large")
)

type pgmHeader struct {
	plain         bool
	width, height int
	maxVal        int
}

func decodePGMConfig(r io.Reader) (image.Config, error) {
	h, err := readPGMHeader(bufio.NewReader(r))
	if err != nil {
		return image.Config{}, err
	}
	model := color.GrayModel
	if h.maxVal > 255 {
		model = color.Gray16Model
	}
	return image.Config{ColorModel: model, Width: h.width, Height: h.height}, nil
}

func decodePGM(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	h, err := readPGMHeader(br)
	if err != nil {
		return nil, err
	}
	rect := image.Rect(0, 0, h.width, h.height)

	if h.maxVal > 255 {
		img := image.NewGray16(rect)
		for y := 0; y < h.height; y++ {
			for x := 0; x < h.width; x++ {
				v, err := h.sample(br)
				if err != nil {
					return nil, err
				}
				img.SetGray16(x, y, color.Gray16{Y: uint16(v * 65535 / h.maxVal)})
			}
		}
		return img, nil
	}

	img := image.NewGray(rect)
	for y := 0; y < h.height; y++ {
		for x := 0; x < h.width; x++ {
			v, err := h.sample(br)
			if err != nil {
				return nil, err
			}
			img.Pix[y*img.Stride+x] = uint8(v * 255 / h.maxVal)
		}
	}
	return img, nil
}

// sample reads the next raster value and rejects values above maxVal.
func (h pgmHeader) sample(br *bufio.Reader) (int, error) {
	v, err := h.rawSample(br)
	if err != nil {
		return 0, err
	}
	if v > h.maxVal {
		return 0, fmt.Errorf("pgm: sample %d exceeds maxval %d", v, h.maxVal)
	}
	return v, nil
}

func (h pgmHeader) rawSample(br *bufio.Reader) (int, error) {
	if h.plain {
		return readPGMInt(br)
	}
	b, err := br.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("pgm: short raster: %w", err)
	}
	if h.maxVal <= 255 {
		return int(b), nil
	}
	lo, err := br.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("pgm: short raster: %w", err)
	}
	return int(b)<<8 | int(lo), nil
}

func readPGMHeader(br *bufio.Reader) (pgmHeader, error) {
	var h pgmHeader
	magic := make([]byte, 2)
	if _, err := io.ReadFull(br, magic); err != nil {
		return h, errPGMHeader
	}
	switch string(magic) {
	case "P5":
	case "P2":
		h.plain = true
	default:
		return h, fmt.Errorf("pgm: unsupported magic %q", magic)
	}

	var err error
	if h.width, err = readPGMInt(br); err != nil {
		return h, err
	}
	if h.height, err = readPGMInt(br); err != nil {
		return h, err
	}
	if h.maxVal, err = readPGMInt(br); err != nil {
		return h, err
	}
	if h.width <= 0 || h.height <= 0 || h.maxVal <= 0 || h.maxVal > 65535 {
		return h, errPGMHeader
	}
	if int64(h.width)*int64(h.height) > maxPGMPixels {
		return h, fmt.Errorf("%w: %dx%d", errPGMSize, h.width, h.height)
	}
	return h, nil
}

// readPGMInt reads one decimal field, skipping whitespace and # comments, and
// consumes the single whitespace byte that terminates it.
func readPGMInt(br *bufio.Reader) (int, error) {
	var b byte
	var err error
	for {
		b, err = br.ReadByte()
		if err != nil {
			return 0, errPGMHeader
		}
		if b == '#' {
			if _, err := br.ReadString('\n'); err != nil {
				return 0, errPGMHeader
			}
			continue
		}
		if !isPGMSpace(b) {
			break
		}
	}

	n := 0
	digits := 0
	for {
		if b < '0' || b > '9' {
			return 0, fmt.Errorf("pgm: unexpected byte %q", b)
		}
		n = n*10 + int(b-'0')
		digits++
		if digits > 9 {
			return 0, errPGMHeader
		}
		b, err = br.ReadByte()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		if isPGMSpace(b) {
			return n, nil
		}
	}
}

func isPGMSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}
