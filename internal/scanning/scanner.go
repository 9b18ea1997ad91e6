package scanning

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrRecognitionFailed wraps any error from the OCR backend
	ErrRecognitionFailed = errors.New("recognizing text")
	// ErrUnreadableImage is returned when the upload cannot be converted for OCR
	ErrUnreadableImage = errors.New("unreadable image")
	// ErrNoBackend is returned for image uploads when no OCR backend is configured
	ErrNoBackend = errors.New("no OCR backend configured")
)

// ReceiptData contains the fields extracted from a scanned receipt
type ReceiptData struct {
	Merchant      string          `json:"merchant"`
	Total         decimal.Decimal `json:"total"`
	TotalResolved bool            `json:"total_resolved"`
	Date          string          `json:"date"` // verbatim token as printed on the receipt
	RawText       string          `json:"raw_text"`
}

// Scanner defines the interface for receipt scanning operations
type Scanner interface {
	// ScanReceipt recognizes the text of a receipt image/PDF and extracts its fields
	ScanReceipt(ctx context.Context, imageData []byte, contentType string) (*ReceiptData, error)
	// Close closes the scanner and releases resources
	Close() error
}

// Recognizer turns an image into text. An empty string with a nil error means
// nothing was recognized.
type Recognizer interface {
	Recognize(ctx context.Context, imageData []byte, contentType string) (string, error)
	Close() error
}
