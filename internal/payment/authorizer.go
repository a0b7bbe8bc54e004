package payment

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const (
	DefaultSuccessRate = 0.9
	DefaultMinDelay    = time.Second
	DefaultMaxDelay    = 3 * time.Second
)

// SimulatedAuthorizer stands in for a payment gateway: it waits a random
// delay and approves with a fixed probability.
type SimulatedAuthorizer struct {
	SuccessRate float64
	MinDelay    time.Duration
	MaxDelay    time.Duration

	// Float64 returns a value in [0, 1). Defaults to math/rand/v2.
	Float64 func() float64
	// Sleep waits for d or until ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewSimulatedAuthorizer(successRate float64, minDelay, maxDelay time.Duration) *SimulatedAuthorizer {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}

	return &SimulatedAuthorizer{
		SuccessRate: successRate,
		MinDelay:    minDelay,
		MaxDelay:    maxDelay,
		Float64:     rand.Float64,
		Sleep:       sleep,
	}
}

func (a *SimulatedAuthorizer) Authorize(ctx context.Context, req domain.AuthorizationRequest) (bool, error) {
	delay := a.MinDelay
	if spread := a.MaxDelay - a.MinDelay; spread > 0 {
		delay += time.Duration(a.Float64() * float64(spread))
	}

	if err := a.Sleep(ctx, delay); err != nil {
		return false, err
	}

	return a.Float64() < a.SuccessRate, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
