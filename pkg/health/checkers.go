package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when the number of goroutines exceeds threshold.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		count := runtime.NumGoroutine()
		if count > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", count, threshold)
		}
		return nil
	}
}

// GCMaxPauseCheck fails when a recent stop-the-world GC pause exceeds
// threshold.
func GCMaxPauseCheck(threshold time.Duration) CheckFunc {
	return func(_ context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)

		for _, pause := range stats.Pause {
			if pause > threshold {
				return errors.Errorf("GC pause %s exceeds threshold %s", pause, threshold)
			}
		}
		return nil
	}
}

// NonEmptyCheck fails while size reports zero, e.g. before a catalog is
// loaded.
func NonEmptyCheck(what string, size func() int) CheckFunc {
	return func(_ context.Context) error {
		if size() == 0 {
			return errors.Errorf("%s is empty", what)
		}
		return nil
	}
}

// CapacityCheck fails once used reaches limit. A non-positive limit never
// fails.
func CapacityCheck(what string, used func() int, limit int) CheckFunc {
	return func(_ context.Context) error {
		if limit <= 0 {
			return nil
		}
		if n := used(); n >= limit {
			return errors.Errorf("%s at capacity: %d/%d", what, n, limit)
		}
		return nil
	}
}
