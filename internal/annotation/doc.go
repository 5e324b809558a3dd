// Package annotation reads the burned-in markers printed on a mammogram film
// or digital view: the laterality letter ("L"/"R") and the view code
// ("CC"/"MLO").
//
// Text recognition uses the Tesseract engine through gosseract/v2, so
// Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// ParseMarkers holds the token rules and needs no OCR engine, which makes it
// usable on text obtained elsewhere (for example DICOM header fields read by
// another tool).
//
// The preprocessing pipeline consults the laterality when the alignment
// source is "markers"; a right-breast view is mirrored so the breast lies on
// the left regardless of the intensity balance.
package annotation
