// Package ratelimit implements the multi-algorithm rate limiter (mcpcore
// §4.4): per-key-type priority-ordered rules, pattern matching shared with
// the template engine's glob grammar, and a client table tracking peak
// concurrency for metrics. Algorithm state itself — fixed/sliding window,
// token/leaky bucket — is delegated to github.com/krishna-kudari/ratelimit,
// one instance per rule, keyed internally by the caller-supplied client
// string so a single rule serves every client observed under it.
package ratelimit

import (
	"fmt"

	goratelimit "github.com/krishna-kudari/ratelimit"
)

// KeyType is the identity axis a rule discriminates on.
type KeyType int

const (
	KeyIP KeyType = iota
	KeyUserID
	KeyAPIKey
	KeyCustom
)

func (k KeyType) String() string {
	switch k {
	case KeyIP:
		return "ip"
	case KeyUserID:
		return "user_id"
	case KeyAPIKey:
		return "api_key"
	case KeyCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Algorithm selects the bucket/window discipline a rule enforces.
type Algorithm int

const (
	FixedWindow Algorithm = iota
	SlidingWindow
	TokenBucket
	LeakyBucket
)

func (a Algorithm) String() string {
	switch a {
	case FixedWindow:
		return "fixed_window"
	case SlidingWindow:
		return "sliding_window"
	case TokenBucket:
		return "token_bucket"
	case LeakyBucket:
		return "leaky_bucket"
	default:
		return "unknown"
	}
}

// Params holds the union of algorithm-specific construction parameters.
// Which fields apply depends on Algorithm; unused fields are ignored.
type Params struct {
	// Fixed/sliding window.
	MaxPerWindow  int64
	WindowSeconds int64

	// Token bucket.
	MaxTokens  int64
	RefillRate int64

	// Leaky bucket.
	BurstCapacity int64
	LeakRate      int64
	Shaping       bool // false = policing (drop), true = shaping (queue)
}

// newLimiter builds the underlying algorithm implementation for a rule. Each
// rule gets exactly one Limiter instance, shared across every client key
// that matches the rule's pattern — the library multiplexes per-key state
// internally off the key string passed to Allow.
func newLimiter(algo Algorithm, p Params) (goratelimit.Limiter, error) {
	switch algo {
	case FixedWindow:
		return goratelimit.NewFixedWindow(p.MaxPerWindow, p.WindowSeconds)
	case SlidingWindow:
		return goratelimit.NewSlidingWindow(p.MaxPerWindow, p.WindowSeconds)
	case TokenBucket:
		return goratelimit.NewTokenBucket(p.MaxTokens, p.RefillRate)
	case LeakyBucket:
		mode := goratelimit.Policing
		if p.Shaping {
			mode = goratelimit.Shaping
		}
		return goratelimit.NewLeakyBucket(p.BurstCapacity, p.LeakRate, mode)
	default:
		return nil, fmt.Errorf("ratelimit: unknown algorithm %v", algo)
	}
}
