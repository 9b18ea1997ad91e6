package extraction

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	// UnknownMerchant is returned when the text has no non-blank line
	UnknownMerchant = "Unknown Merchant"
	// UnknownDate is returned when no date-shaped token is found
	UnknownDate = "Unknown Date"
)

// Result holds the fields resolved from one piece of OCR text.
// Every field is always populated; a field that could not be resolved carries its sentinel.
type Result struct {
	Merchant string `json:"merchant"`
	// Total is 0.00 when TotalResolved is false, which keeps the legacy zero default
	// while letting callers tell "no total found" apart from a real zero.
	Total         decimal.Decimal `json:"total"`
	TotalResolved bool            `json:"total_resolved"`
	Date          string          `json:"date"`
}

// TotalFloat returns the total as a float64 for consumers that do not use decimals
func (r Result) TotalFloat() float64 {
	return r.Total.InexactFloat64()
}

// MarshalJSON renders the total with exactly two decimals ("10.00", not "10")
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Merchant      string `json:"merchant"`
		Total         string `json:"total"`
		TotalResolved bool   `json:"total_resolved"`
		Date          string `json:"date"`
	}{
		Merchant:      r.Merchant,
		Total:         r.Total.StringFixed(2),
		TotalResolved: r.TotalResolved,
		Date:          r.Date,
	})
}

// DateResolved reports whether a date token was found
func (r Result) DateResolved() bool {
	return r.Date != UnknownDate
}

// MerchantResolved reports whether a merchant line was found
func (r Result) MerchantResolved() bool {
	return r.Merchant != UnknownMerchant
}

// Extractor resolves merchant, total and date from raw OCR text.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	strategy TotalStrategy
}

// Option configures an Extractor
type Option func(*Extractor)

// WithTotalStrategy selects how the total is picked when several keyword/amount pairs exist
func WithTotalStrategy(s TotalStrategy) Option {
	return func(e *Extractor) {
		e.strategy = s
	}
}

// New creates an Extractor. Without options the first keyword/amount pair wins.
func New(opts ...Option) *Extractor {
	e := &Extractor{strategy: FirstMatch}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strategy returns the total strategy in use
func (e *Extractor) Strategy() TotalStrategy {
	return e.strategy
}

var defaultExtractor = New()

// Extract runs the default extractor over rawText
func Extract(rawText string) (Result, error) {
	return defaultExtractor.Extract(rawText)
}

// ExtractBytes runs the default extractor over an OCR output buffer
func ExtractBytes(raw []byte) (Result, error) {
	return defaultExtractor.ExtractBytes(raw)
}

// Extract resolves the three fields of rawText independently.
// The only error is *InvalidInputError for text that is not valid UTF-8; missing
// fields never produce an error.
func (e *Extractor) Extract(rawText string) (Result, error) {
	if !utf8.ValidString(rawText) {
		return Result{}, &InvalidInputError{Offset: invalidOffset(rawText)}
	}

	total, ok := e.resolveTotal(rawText)
	return Result{
		Merchant:      resolveMerchant(rawText),
		Total:         total,
		TotalResolved: ok,
		Date:          resolveDate(rawText),
	}, nil
}

// ExtractBytes is Extract for a byte buffer
func (e *Extractor) ExtractBytes(raw []byte) (Result, error) {
	if raw == nil {
		return Result{}, &InvalidInputError{Offset: -1}
	}
	return e.Extract(string(raw))
}

// resolveMerchant takes the first non-blank line
func resolveMerchant(text string) string {
	for _, line := range strings.FieldsFunc(text, isLineBreak) {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return UnknownMerchant
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

func (e *Extractor) resolveTotal(text string) (decimal.Decimal, bool) {
	var candidates []string
	switch e.strategy {
	case LargestAmount, LastMatch:
		for _, m := range totalPattern.FindAllStringSubmatch(text, -1) {
			candidates = append(candidates, m[1])
		}
	default:
		if m := totalPattern.FindStringSubmatch(text); m != nil {
			candidates = append(candidates, m[1])
		}
	}

	var (
		best  decimal.Decimal
		found bool
	)
	for _, c := range candidates {
		amount, ok := parseAmount(c)
		if !ok {
			continue
		}
		switch {
		case !found:
			best, found = amount, true
		case e.strategy == LastMatch:
			best = amount
		case e.strategy == LargestAmount && amount.GreaterThan(best):
			best = amount
		}
	}
	if !found {
		return decimal.Zero, false
	}
	return best, true
}

// parseAmount strips thousands separators and parses a two-decimal amount
func parseAmount(s string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil || amount.IsNegative() {
		return decimal.Zero, false
	}
	return amount.Round(2), true
}

func resolveDate(text string) string {
	if m, ok := earliestMatch(text, datePatterns); ok {
		return m
	}
	return UnknownDate
}

func invalidOffset(s string) int {
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return i
			}
		}
	}
	return -1
}
