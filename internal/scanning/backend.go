package scanning

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Backend names accepted by NewRecognizer
const (
	BackendTesseract = "tesseract"
	BackendGemini    = "gemini"
	BackendOllama    = "ollama"
	BackendNone      = "none"
)

// BackendConfig selects and configures an OCR backend
type BackendConfig struct {
	Backend string

	TesseractLanguages string // "eng" or "eng+deu"
	TessdataPrefix     string

	GeminiKey   string
	GeminiModel string

	OllamaURL     string
	OllamaModel   string
	OllamaTimeout time.Duration

	// remote backends only
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// NewRecognizer builds the configured backend. Remote backends are wrapped in a
// Breaker. BackendNone returns a nil Recognizer, which only accepts text uploads.
func NewRecognizer(ctx context.Context, cfg BackendConfig) (Recognizer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendTesseract:
		return NewTesseract(cfg.TessdataPrefix, splitLanguages(cfg.TesseractLanguages)...), nil
	case BackendGemini:
		g, err := NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return NewBreaker(BackendGemini, g, cfg.BreakerFailures, cfg.BreakerTimeout), nil
	case BackendOllama:
		o, err := NewOllama(cfg.OllamaURL, cfg.OllamaModel, cfg.OllamaTimeout)
		if err != nil {
			return nil, err
		}
		return NewBreaker(BackendOllama, o, cfg.BreakerFailures, cfg.BreakerTimeout), nil
	case BackendNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown ocr backend %q (want tesseract, gemini, ollama or none)", cfg.Backend)
	}
}

func splitLanguages(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})
}
