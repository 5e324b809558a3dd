package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"testing"
)

func TestDecodePGM_Plain(t *testing.T) {
	data := "P2\n# created by scanner\n3 2\n15\n0 5 10\n15 0 15\n"
	img, format, err := image.Decode(bytes.NewReader([]byte(data)))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != "pgm" {
		t.Errorf("format: got %s, want pgm", format)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("got %T, want *image.Gray", img)
	}
	want := []uint8{0, 85, 170, 255, 0, 255}
	for i, v := range want {
		if gray.Pix[i] != v {
			t.Errorf("pixel %d: got %d, want %d", i, gray.Pix[i], v)
		}
	}
}

func TestDecodePGM_Binary(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("P5\n4 1\n255\n")
	buf.Write([]byte{0, 64, 128, 255})

	img, _, err := image.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	gray := img.(*image.Gray)
	for i, v := range []uint8{0, 64, 128, 255} {
		if gray.Pix[i] != v {
			t.Errorf("pixel %d: got %d, want %d", i, gray.Pix[i], v)
		}
	}
}

func TestDecodePGM_SixteenBit(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("P5 2 1 65535\n")
	buf.Write([]byte{0xFF, 0xFF, 0x00, 0x00})

	img, _, err := image.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	g16, ok := img.(*image.Gray16)
	if !ok {
		t.Fatalf("got %T, want *image.Gray16", img)
	}
	if g16.Gray16At(0, 0).Y != 65535 || g16.Gray16At(1, 0).Y != 0 {
		t.Errorf("unexpected samples: %v %v", g16.Gray16At(0, 0), g16.Gray16At(1, 0))
	}
}

func TestDecodePGM_Config(t *testing.T) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader([]byte("P5\n640 480\n255\n")))
	if err != nil {
		t.Fatalf("DecodeConfig failed: %v", err)
	}
	if format != "pgm" || cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("got %s %dx%d, want pgm 640x480", format, cfg.Width, cfg.Height)
	}
}

func TestDecodePGM_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"zero width", "P5\n0 2\n255\n"},
		{"missing maxval", "P5\n2 2\n"},
		{"maxval too large", "P5\n2 2\n70000\n"},
		{"short raster", "P5\n2 2\n255\n\x01"},
		{"bad plain sample", "P2\n2 1\n255\n10 x\n"},
		{"oversized raster", "P5 999999999 999999999 255\n\x00"},
		{"plain sample above maxval", "P2 2 1 1\n1 5\n"},
		{"binary sample above maxval", "P5 2 1 15\n\x0f\x10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := image.Decode(bytes.NewReader([]byte(tt.data))); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestDecodeBase64_OversizedPGM(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("P5 999999999 999999999 255\n\x00"))
	_, _, err := DecodeBase64(payload)
	if err == nil {
		t.Fatal("expected error for oversized PGM")
	}
	if !errors.Is(err, errPGMSize) {
		t.Errorf("got %v, want errPGMSize", err)
	}
}
