package template

import "testing"

func TestParseInvariant(t *testing.T) {
	p, err := Parse("example://{user}/posts/{post_id:int}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(p.StaticParts) != len(p.ParamNames)+1 {
		t.Fatalf("invariant violated: %d static parts, %d params", len(p.StaticParts), len(p.ParamNames))
	}
}

func TestExtractTypedInt(t *testing.T) {
	p, err := Parse("example://{user}/posts/{post_id:int}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	params, err := Extract(p, "example://john/posts/42")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if params["user"] != "john" {
		t.Fatalf("expected user=john, got %v", params["user"])
	}
	n, ok := params["post_id"].(float64)
	if !ok || n != 42 {
		t.Fatalf("expected post_id=42 (number), got %v (%T)", params["post_id"], params["post_id"])
	}
}

func TestExpandExtractRoundTrip(t *testing.T) {
	p, err := Parse("example://{user}/posts/{post_id:int}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	uri, err := Expand(p, map[string]any{"user": "john", "post_id": float64(42)})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if uri != "example://john/posts/42" {
		t.Fatalf("unexpected expansion: %s", uri)
	}
	params, err := Extract(p, uri)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if params["user"] != "john" || params["post_id"].(float64) != 42 {
		t.Fatalf("round trip mismatch: %+v", params)
	}
}

func TestExpandMissingRequired(t *testing.T) {
	p, _ := Parse("example://{user}")
	_, err := Expand(p, map[string]any{})
	if err == nil {
		t.Fatalf("expected missing_required error")
	}
	ve, ok := err.(*ValidationError)
	if !ok || ve.Err != ErrMissingRequired {
		t.Fatalf("expected ErrMissingRequired, got %v", err)
	}
}

func TestOptionalWithDefault(t *testing.T) {
	p, err := Parse("example://{user=guest}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	uri, err := Expand(p, map[string]any{})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if uri != "example://guest" {
		t.Fatalf("expected default substitution, got %s", uri)
	}
}

func TestEmptyTemplateEmptyURINoMatch(t *testing.T) {
	p, err := Parse("{x}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if Match(p, "") {
		t.Fatalf("expected no match for empty URI against required placeholder")
	}
}

func TestPatternPlaceholder(t *testing.T) {
	p, err := Parse("file://{name:pattern:*.txt}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !Match(p, "file://report.txt") {
		t.Fatalf("expected glob match")
	}
	if Match(p, "file://report.csv") {
		t.Fatalf("expected glob mismatch")
	}
}

func TestRangeValidation(t *testing.T) {
	p, err := Parse("example://{age:int[0,120]}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !Match(p, "example://30") {
		t.Fatalf("expected in-range match")
	}
	if Match(p, "example://200") {
		t.Fatalf("expected out-of-range mismatch")
	}
}

func TestMatchesIffExtracts(t *testing.T) {
	p, _ := Parse("example://{user}/posts/{post_id:int}")
	cases := []string{"example://john/posts/42", "example://john/posts/abc", ""}
	for _, uri := range cases {
		params, err := Extract(p, uri)
		want := err == nil
		got := Match(p, uri)
		if got != want {
			t.Fatalf("Match/Extract disagree for %q: match=%v extractErr=%v params=%v", uri, got, err, params)
		}
	}
}

func TestGlobForms(t *testing.T) {
	cases := []struct {
		pattern, s string
		want       bool
	}{
		{"foo*", "foobar", true},
		{"foo*", "barfoo", false},
		{"*foo", "barfoo", true},
		{"*foo*", "xxfooyy", true},
		{"foo", "foo", true},
		{"foo", "foobar", false},
	}
	for _, c := range cases {
		if got := MatchGlob(c.pattern, c.s); got != c.want {
			t.Errorf("MatchGlob(%q,%q) = %v, want %v", c.pattern, c.s, got, c.want)
		}
	}
}

func TestCacheHitMissEviction(t *testing.T) {
	c := NewCache()
	tpl := "example://{user}"

	if _, err := c.Lookup(tpl); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	stats := c.Stats()
	if stats.Misses != 1 || stats.Hits != 0 {
		t.Fatalf("expected 1 miss, got %+v", stats)
	}

	if _, err := c.Lookup(tpl); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	stats = c.Stats()
	if stats.Hits != 1 {
		t.Fatalf("expected 1 hit, got %+v", stats)
	}

	if _, err := c.Lookup("{unterminated"); err == nil {
		t.Fatalf("expected parse error")
	}
	stats = c.Stats()
	if stats.Size != 1 {
		t.Fatalf("expected parse failure to not poison cache, size=%d", stats.Size)
	}
}

func TestCacheEvictsBeyondCapacity(t *testing.T) {
	c := NewCache()
	for i := 0; i < CacheCapacity+10; i++ {
		if _, err := c.Lookup(templateN(i)); err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
	}
	stats := c.Stats()
	if stats.Size != CacheCapacity {
		t.Fatalf("expected size capped at %d, got %d", CacheCapacity, stats.Size)
	}
	if stats.Evictions != 10 {
		t.Fatalf("expected 10 evictions, got %d", stats.Evictions)
	}
}

func templateN(i int) string {
	return "example://{user}/n/" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
