package scanning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zombor/receipt-extractor/internal/extraction"
	"github.com/zombor/receipt-extractor/internal/metrics"
)

// TextScanner implements Scanner by running a Recognizer and then the extraction engine
// over the recognized text. Plain-text uploads skip the recognizer.
type TextScanner struct {
	backend    string
	recognizer Recognizer
	extractor  *extraction.Extractor
	metrics    *metrics.Metrics
}

// NewTextScanner creates a TextScanner. backend names the recognizer in logs and metrics.
func NewTextScanner(backend string, recognizer Recognizer, extractor *extraction.Extractor, m *metrics.Metrics) *TextScanner {
	if extractor == nil {
		extractor = extraction.New()
	}
	return &TextScanner{
		backend:    backend,
		recognizer: recognizer,
		extractor:  extractor,
		metrics:    m,
	}
}

// ScanReceipt recognizes and extracts a receipt. A recognizer failure is returned as is
// and the extraction engine is not run.
func (s *TextScanner) ScanReceipt(ctx context.Context, imageData []byte, contentType string) (*ReceiptData, error) {
	start := time.Now()
	text, err := s.recognize(ctx, imageData, contentType)
	s.metrics.ObserveScan(s.backend, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	result, err := s.extractor.Extract(text)
	if err != nil {
		return nil, fmt.Errorf("extracting receipt fields: %w", err)
	}
	s.metrics.ObserveExtraction(result)

	slog.Debug("Scanned receipt",
		"backend", s.backend,
		"merchant", result.Merchant,
		"total", result.Total.StringFixed(2),
		"total_resolved", result.TotalResolved,
		"date", result.Date,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &ReceiptData{
		Merchant:      result.Merchant,
		Total:         result.Total,
		TotalResolved: result.TotalResolved,
		Date:          result.Date,
		RawText:       text,
	}, nil
}

func (s *TextScanner) recognize(ctx context.Context, imageData []byte, contentType string) (string, error) {
	if normalizeMIME(contentType) == mimeText {
		return string(imageData), nil
	}
	if s.recognizer == nil {
		return "", fmt.Errorf("%w for %s", ErrNoBackend, contentType)
	}
	text, err := s.recognizer.Recognize(ctx, imageData, contentType)
	if err != nil {
		return "", fmt.Errorf("%w with %s: %w", ErrRecognitionFailed, s.backend, err)
	}
	return text, nil
}

// Close closes the underlying recognizer
func (s *TextScanner) Close() error {
	if s.recognizer == nil {
		return nil
	}
	return s.recognizer.Close()
}
