package classify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// BreakerClassifier guards a Classifier with a circuit breaker so a
// misbehaving model endpoint fails fast instead of stalling the worker.
type BreakerClassifier struct {
	inner   Classifier
	breaker *gobreaker.CircuitBreaker[*Result]
}

func NewBreaker(inner Classifier, logger zerolog.Logger) *BreakerClassifier {
	settings := gobreaker.Settings{
		Name:        "classify",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}
	return &BreakerClassifier{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[*Result](settings),
	}
}

func (b *BreakerClassifier) Classify(ctx context.Context, text string) (*Result, error) {
	return b.breaker.Execute(func() (*Result, error) {
		return b.inner.Classify(ctx, text)
	})
}
