package protocol

import (
	"context"
	"time"

	"github.com/arloliu/go-julabo/internal/pool"
)

// Clock is the time source of an engine. Tests replace it to observe the
// back-pressure floor without real sleeps.
type Clock interface {
	Now() time.Time
	// Sleep blocks the calling goroutine for d.
	Sleep(d time.Duration)
	// Wait blocks for d or until ctx is done.
	Wait(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// SystemClock returns the wall clock (monotonic readings).
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

func (systemClock) Wait(ctx context.Context, d time.Duration) error { return pool.Wait(ctx, d) }
