package annotation

import (
	"bytes"
	"fmt"
	"image"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is the Tesseract language used when none is given.
const DefaultLanguage = "eng"

// Laterality identifies the imaged breast.
type Laterality string

const (
	LateralityUnknown Laterality = ""
	LateralityLeft    Laterality = "L"
	LateralityRight   Laterality = "R"
)

// View identifies the projection.
type View string

const (
	ViewUnknown View = ""
	ViewCC      View = "CC"
	ViewMLO     View = "MLO"
)

// Bounds is a word's bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Word is one recognized word with its OCR confidence (0 to 1).
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Bounds     Bounds  `json:"bounds"`
}

// Markers is what could be read from the image annotations.
type Markers struct {
	Laterality Laterality `json:"laterality"`
	View       View       `json:"view"`

	// Text is the raw recognized text.
	Text string `json:"text"`

	// Words holds word boxes with at least MinWordConfidence. It may be
	// empty when Tesseract cannot produce boxes; Text is still set.
	Words []Word `json:"words"`
}

// MinWordConfidence drops word boxes Tesseract is unsure about.
const MinWordConfidence = 0.3

// compact tokens combine laterality and view, e.g. "RMLO".
var compact = map[string]struct {
	lat  Laterality
	view View
}{
	"LCC":  {LateralityLeft, ViewCC},
	"RCC":  {LateralityRight, ViewCC},
	"LMLO": {LateralityLeft, ViewMLO},
	"RMLO": {LateralityRight, ViewMLO},
}

// ParseMarkers extracts laterality and view from recognized text. Tokens are
// split on anything that is not a letter or digit and matched without case.
// The first laterality token and the first view token win.
//
// Recognized laterality tokens: L, LEFT, R, RIGHT. Recognized view tokens:
// CC, MLO. Combined tokens LCC, RCC, LMLO and RMLO set both.
func ParseMarkers(text string) Markers {
	m := Markers{Text: text}
	tokens := strings.FieldsFunc(strings.ToUpper(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, tok := range tokens {
		var lat Laterality
		var view View
		switch tok {
		case "L", "LEFT":
			lat = LateralityLeft
		case "R", "RIGHT":
			lat = LateralityRight
		case "CC":
			view = ViewCC
		case "MLO":
			view = ViewMLO
		default:
			c, ok := compact[tok]
			if !ok {
				continue
			}
			lat, view = c.lat, c.view
		}
		if m.Laterality == LateralityUnknown {
			m.Laterality = lat
		}
		if m.View == ViewUnknown {
			m.View = view
		}
	}
	return m
}

// ReadMarkers runs OCR on img and parses the result with ParseMarkers.
//
// Parameters:
//   - img: the mammogram, any decoded image.
//   - language: Tesseract language code; "" means DefaultLanguage.
//
// Returns the markers, or an error when the image cannot be encoded or
// Tesseract fails. A missing marker is not an error: the corresponding field
// is left unknown.
func ReadMarkers(img image.Image, language string) (*Markers, error) {
	if language == "" {
		language = DefaultLanguage
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	m := ParseMarkers(text)
	m.Words = []Word{}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Boxes are best effort.
		return &m, nil
	}
	for _, box := range boxes {
		conf := float64(box.Confidence) / 100.0
		if strings.TrimSpace(box.Word) == "" || conf < MinWordConfidence {
			continue
		}
		m.Words = append(m.Words, Word{
			Text:       box.Word,
			Confidence: conf,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}
	return &m, nil
}

// EngineInfo reports whether Tesseract is usable.
type EngineInfo struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Backend   string `json:"backend"`
}

// Engine returns information about the OCR engine.
func Engine() EngineInfo {
	client := gosseract.NewClient()
	defer client.Close()

	v := client.Version()
	return EngineInfo{
		Available: v != "",
		Version:   v,
		Backend:   "gosseract",
	}
}
