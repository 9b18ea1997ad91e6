package extraction

import (
	"fmt"
	"strings"
)

// TotalStrategy decides which keyword/amount pair becomes the total
type TotalStrategy int

const (
	// FirstMatch takes the first pair in document order. A SUBTOTAL printed before
	// TOTAL is therefore returned as the total.
	FirstMatch TotalStrategy = iota
	// LargestAmount takes the largest amount among all pairs
	LargestAmount
	// LastMatch takes the last pair in document order
	LastMatch
)

func (s TotalStrategy) String() string {
	switch s {
	case FirstMatch:
		return "first"
	case LargestAmount:
		return "largest"
	case LastMatch:
		return "last"
	}
	return fmt.Sprintf("TotalStrategy(%d)", int(s))
}

// ParseTotalStrategy maps a configuration value to a TotalStrategy
func ParseTotalStrategy(s string) (TotalStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return FirstMatch, nil
	case "largest":
		return LargestAmount, nil
	case "last":
		return LastMatch, nil
	}
	return FirstMatch, fmt.Errorf("unknown total strategy %q (valid: first, largest, last)", s)
}
