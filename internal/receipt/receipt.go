package receipt

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Receipt represents a scanned receipt with its extracted fields
type Receipt struct {
	ID            string          `json:"id"`
	Merchant      string          `json:"merchant"`
	Total         decimal.Decimal `json:"total"` // 0.00 when TotalResolved is false
	TotalResolved bool            `json:"total_resolved"`
	Date          string          `json:"date"` // verbatim token from the receipt, or "Unknown Date"
	RawText       string          `json:"raw_text,omitempty"`
	Filename      string          `json:"filename"`
	ContentType   string          `json:"content_type"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// MarshalJSON writes the total with exactly two decimals ("10.50", not "10.5").
// Decoding uses decimal's own UnmarshalJSON.
func (r Receipt) MarshalJSON() ([]byte, error) {
	type plain Receipt
	return json.Marshal(struct {
		plain
		Total string `json:"total"`
	}{
		plain: plain(r),
		Total: r.Total.StringFixed(2),
	})
}
