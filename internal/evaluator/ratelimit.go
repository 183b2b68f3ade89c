package evaluator

import (
	"time"

	"github.com/r3e-network/ledgerchain/pkg/errors"
)

// checkInterval enforces a minimum gap since last, measured against the
// deterministic block time now rather than a wall clock, so replay is
// bit-identical across nodes (spec.md §5's "no wall-clock reads inside
// evaluators" discipline rules out golang.org/x/time/rate's real-time
// token bucket here; see DESIGN.md).
func checkInterval(op string, last time.Time, interval time.Duration, now time.Time) error {
	if last.IsZero() {
		return nil
	}
	elapsed := now.Sub(last)
	if elapsed < interval {
		return errors.RateLimited(op, int64((interval - elapsed).Seconds()))
	}
	return nil
}
