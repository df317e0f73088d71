package ocr

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials is returned when no Google Cloud credentials
	// are configured and the default chain finds none either.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set ocr.credentials_file or GOOGLE_APPLICATION_CREDENTIALS")

	// ErrImageTooLarge is returned when the image exceeds the Vision
	// API's 20MB synchronous limit.
	ErrImageTooLarge = errors.New("image exceeds the maximum size (20MB)")

	// ErrEmptyImage is returned when no image data was provided.
	ErrEmptyImage = errors.New("image data is empty")

	// ErrOCRFailed is returned when the Vision API call fails.
	ErrOCRFailed = errors.New("OCR processing failed")

	// ErrNoText is returned when the image contains no readable text.
	// Callers usually treat this as "nothing to analyze", not a failure.
	ErrNoText = errors.New("image contains no readable text")
)

// Error wraps OCR failures with the failing operation and extra context.
type Error struct {
	// Op is the operation that failed (e.g. "ProcessImage").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches against the underlying error so errors.Is works through the
// wrapper.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// wrapErr wraps err as an *Error unless it already is one.
func wrapErr(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var ocrErr *Error
	if errors.As(err, &ocrErr) {
		return err
	}
	return &Error{Op: op, Err: err, Details: details}
}
