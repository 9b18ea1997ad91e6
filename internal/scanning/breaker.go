package scanning

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrBackendUnavailable is returned while the breaker is open
var ErrBackendUnavailable = errors.New("ocr backend unavailable")

// Breaker wraps a remote Recognizer in a circuit breaker so a dead backend fails
// fast instead of holding every upload for the full timeout
type Breaker struct {
	next Recognizer
	cb   *gobreaker.CircuitBreaker[string]
}

// NewBreaker trips after maxFailures consecutive failures and probes again after openTimeout
func NewBreaker(name string, next Recognizer, maxFailures uint32, openTimeout time.Duration) *Breaker {
	if maxFailures == 0 {
		maxFailures = 5
	}
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up or a bad upload is not a backend failure
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrUnreadableImage)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("OCR backend circuit breaker state change", "backend", name, "from", from.String(), "to", to.String())
		},
	}

	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[string](settings),
	}
}

// Recognize calls the wrapped recognizer unless the breaker is open
func (b *Breaker) Recognize(ctx context.Context, imageData []byte, contentType string) (string, error) {
	text, err := b.cb.Execute(func() (string, error) {
		return b.next.Recognize(ctx, imageData, contentType)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", errors.Join(ErrBackendUnavailable, err)
	}
	return text, err
}

// State reports the breaker state
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Close closes the wrapped recognizer
func (b *Breaker) Close() error {
	return b.next.Close()
}
