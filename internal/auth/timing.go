package auth

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// TimingDelay pads failed credential checks to a randomized floor so that
// unknown accounts, inactive accounts and wrong passwords take similar time.
type TimingDelay struct {
	base   time.Duration
	jitter time.Duration
}

func NewTimingDelay(base, jitter time.Duration) *TimingDelay {
	return &TimingDelay{base: base, jitter: jitter}
}

func (td *TimingDelay) target() time.Duration {
	d := td.base
	if td.jitter > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(int64(td.jitter))); err == nil {
			d += time.Duration(n.Int64())
		}
	}
	return d
}

// WaitFrom sleeps until at least the delay has elapsed since start, or ctx ends.
func (td *TimingDelay) WaitFrom(ctx context.Context, start time.Time) {
	if td == nil {
		return
	}
	remaining := td.target() - time.Since(start)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
