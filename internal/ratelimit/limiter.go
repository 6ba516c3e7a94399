package ratelimit

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brennhill/mcpcore/internal/hashtable"
	"github.com/brennhill/mcpcore/internal/rwlock"
)

var errTooManyRules = errors.New("ratelimit: rule limit reached for key type")

// clientKey identifies a rate-limit client table entry (mcpcore §3: "keyed
// by (key_type, key_string)").
type clientKey struct {
	keyType KeyType
	key     string
}

// clientEntry is the bookkeeping mcpcore's client table keeps per observed
// client. The algorithm state itself lives inside the matched rule's
// Limiter; this entry exists so Check can detect "the applicable rule
// changed" (by rule identity) and so peak concurrency is observable for
// metrics, per mcpcore §4.4's client table section.
type clientEntry struct {
	rule     *Rule
	lastSeen time.Time
}

// Limiter is the top-level rate limiter: one ruleSet per key type, a client
// table for bookkeeping, and atomic total/allowed/denied counters. The zero
// value is not usable; construct with New.
type Limiter struct {
	rules [4]*ruleSet
	lock  *rwlock.RWLock
	table *hashtable.Table[clientKey, *clientEntry]
	log   *logrus.Entry

	total   atomic.Int64
	allowed atomic.Int64
	denied  atomic.Int64

	peakClients atomic.Int64
}

// New constructs an empty Limiter.
func New(log *logrus.Entry) *Limiter {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	l := &Limiter{
		lock: rwlock.New(),
		log:  log,
	}
	for i := range l.rules {
		l.rules[i] = &ruleSet{}
	}
	l.table = hashtable.New[clientKey, *clientEntry](hashClientKey, equalClientKey, nil)
	return l
}

func hashClientKey(k clientKey) uint64 {
	// FNV-1a over (key_type, key_string); key_type is folded in as a distinct
	// seed per type so "ip:x" and "user_id:x" never collide even though
	// neither field alone distinguishes them.
	h := uint64(14695981039346656037) ^ uint64(k.keyType)*1099511628211
	for i := 0; i < len(k.key); i++ {
		h ^= uint64(k.key[i])
		h *= 1099511628211
	}
	return h
}

func equalClientKey(a, b clientKey) bool {
	return a.keyType == b.keyType && a.key == b.key
}

// AddRule registers a rule, building its algorithm Limiter eagerly so
// construction errors (bad parameters) surface at registration time rather
// than on the first Check. Rules per key type are bounded at 32.
func (l *Limiter) AddRule(r *Rule) error {
	lim, err := newLimiter(r.Algorithm, r.Params)
	if err != nil {
		return err
	}
	r.limiter = lim

	l.lock.WriteLock()
	defer l.lock.WriteUnlock()
	return l.rules[r.KeyType].add(r)
}

// RemoveRule removes the first rule for keyType matching (pattern, priority).
func (l *Limiter) RemoveRule(keyType KeyType, pattern *string, priority int) bool {
	l.lock.WriteLock()
	defer l.lock.WriteUnlock()
	return l.rules[keyType].remove(pattern, priority)
}

// Reset clears the client table and all counters. Intended for tests and
// administrative data-reset, guarded by the writer lock per mcpcore §4.4
// Thread safety.
func (l *Limiter) Reset() {
	l.lock.WriteLock()
	defer l.lock.WriteUnlock()
	l.table = hashtable.New[clientKey, *clientEntry](hashClientKey, equalClientKey, nil)
	l.total.Store(0)
	l.allowed.Store(0)
	l.denied.Store(0)
	l.peakClients.Store(0)
}

// SweepStale removes client table entries not touched within maxAge,
// keeping the table from growing unbounded with one-shot clients. Unlike
// Reset, it never touches the cumulative total/allowed/denied counters.
// Intended to run on a periodic schedule (see cmd/mcpcored's cron-driven
// maintenance sweep).
func (l *Limiter) SweepStale(maxAge time.Duration) int {
	l.lock.ReadLock()
	defer l.lock.ReadUnlock()

	cutoff := time.Now().Add(-maxAge)
	var stale []clientKey
	l.table.Range(func(key clientKey, entry *clientEntry) {
		if entry.lastSeen.Before(cutoff) {
			stale = append(stale, key)
		}
	})
	for _, key := range stale {
		l.table.Delete(key)
	}
	return len(stale)
}

// Counters is a snapshot of the limiter's invocation counters.
type Counters struct {
	Total       int64
	Allowed     int64
	Denied      int64
	PeakClients int64
}

// Stats returns a snapshot of the limiter's counters.
func (l *Limiter) Stats() Counters {
	return Counters{
		Total:       l.total.Load(),
		Allowed:     l.allowed.Load(),
		Denied:      l.denied.Load(),
		PeakClients: l.peakClients.Load(),
	}
}

// evalOrder is the fixed key evaluation order mcpcore §4.4 specifies:
// api_key → user_id → ip → custom.
var evalOrder = [4]KeyType{KeyAPIKey, KeyUserID, KeyIP, KeyCustom}

// Check evaluates the four identity hints in the fixed order api_key →
// user_id → ip → custom. Any may be nil. The first matching rule that
// allows short-circuits to allow; if a key has no matching rule it is
// implicitly allowed with no tracking (mcpcore §4.4 Client table); if no key
// yields allow, the request is denied. Every call atomically increments the
// total counter and exactly one of allowed/denied.
func (l *Limiter) Check(ip, userID, apiKey, custom *string) bool {
	l.lock.ReadLock()
	defer l.lock.ReadUnlock()

	hints := map[KeyType]*string{
		KeyIP:     ip,
		KeyUserID: userID,
		KeyAPIKey: apiKey,
		KeyCustom: custom,
	}

	allowed := false
	for _, kt := range evalOrder {
		key := hints[kt]
		if key == nil {
			continue
		}
		if l.checkOne(kt, *key) {
			allowed = true
			break
		}
	}

	l.total.Add(1)
	if allowed {
		l.allowed.Add(1)
	} else {
		l.denied.Add(1)
	}
	return allowed
}

// checkOne evaluates a single key type/value pair against its rule set.
func (l *Limiter) checkOne(kt KeyType, key string) bool {
	rule := l.rules[kt].match(key)
	if rule == nil {
		// No rule governs this key: implicitly allowed, not tracked.
		return true
	}

	l.touchClient(kt, key, rule)

	result, err := rule.limiter.Allow(context.Background(), key)
	if err != nil {
		l.log.WithError(err).WithField("key_type", kt.String()).Warn("ratelimit: algorithm error, denying")
		return false
	}
	return result.Allowed
}

// touchClient records/updates the client table entry for (kt, key). If the
// previously-recorded entry was matched against a different rule (a reload
// changed which rule applies), the old entry is discarded rather than
// mutated in place, per mcpcore §3's data-model invariant.
func (l *Limiter) touchClient(kt KeyType, key string, rule *Rule) {
	ck := clientKey{keyType: kt, key: key}
	if existing, ok := l.table.Get(ck); ok && existing.rule == rule {
		existing.lastSeen = time.Now()
		return
	}
	l.table.Put(ck, &clientEntry{rule: rule, lastSeen: time.Now()})
	if n := int64(l.table.Len()); n > l.peakClients.Load() {
		l.peakClients.Store(n)
	}
}
