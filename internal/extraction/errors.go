package extraction

import (
	"errors"
	"fmt"
)

// ErrInvalidInput matches any *InvalidInputError via errors.Is
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError is returned for input that is not a valid UTF-8 text buffer.
// Offset is the byte position of the first invalid sequence, or -1 for a nil buffer.
type InvalidInputError struct {
	Offset int
}

func (e *InvalidInputError) Error() string {
	if e.Offset < 0 {
		return "invalid input: no text buffer"
	}
	return fmt.Sprintf("invalid input: text is not valid UTF-8 at byte %d", e.Offset)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}
