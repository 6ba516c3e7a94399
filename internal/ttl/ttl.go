// Package ttl parses the sweep-interval duration mcpcore's periodic
// maintenance job is configured with: the rate limiter's stale
// client-table eviction and the metrics history snapshot, both run as a
// single cron.v3 job (see cmd/mcpcored, internal/ratelimit.SweepStale,
// internal/metrics.RecordSnapshot).
package ttl

import (
	"fmt"
	"time"
)

// MinTTL is the shortest sweep interval mcpcore accepts. Anything shorter
// risks a maintenance job starving the goroutine pool it shares with
// request handling.
const MinTTL = time.Minute

// ParseTTL parses s as a Go duration, with mcpcore's conventions layered on
// top: an empty string means "unlimited" (returns 0, not an error), and any
// non-empty duration below MinTTL is rejected.
func ParseTTL(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("ttl: invalid duration %q: %w", s, err)
	}
	if d < MinTTL {
		return 0, fmt.Errorf("ttl: %q is below the minimum sweep interval of %s", s, MinTTL)
	}
	return d, nil
}
