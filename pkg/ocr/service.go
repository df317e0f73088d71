// Package ocr extracts Japanese text from images using the Google Cloud
// Vision API.
//
// The engine itself never calls OCR; commands run extraction here and
// feed the resulting text into analysis. Credentials come from the
// application config (a service-account file path, typically via
// GOOGLE_APPLICATION_CREDENTIALS), falling back to the default
// credential chain.
//
// Vision API limitations that apply here:
//   - Maximum image size: 20MB for synchronous annotation
//   - One image per call; pages of a book are separate calls
package ocr

import (
	"context"
	"io"
	"time"
)

// Service is the interface commands depend on, so tests can substitute a
// canned implementation.
type Service interface {
	// ProcessImage extracts text from one image.
	ProcessImage(ctx context.Context, image io.Reader) (*Result, error)
}

// Result is extracted text with detection metadata.
type Result struct {
	// Text is the extracted text in reading order.
	Text string `json:"text"`

	// Confidence is the average detection confidence (0.0 to 1.0).
	Confidence float32 `json:"confidence"`

	// Languages contains the language codes detected in the image.
	Languages []string `json:"languages,omitempty"`

	// ProcessedAt is when the extraction completed.
	ProcessedAt time.Time `json:"processedAt"`

	// Duration is how long the extraction took.
	Duration time.Duration `json:"duration"`
}
