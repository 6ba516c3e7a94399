package gateway

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const basicConfig = `
backends:
  - id: tools
    address: localhost:9001
  - id: resources
    address: localhost:9002
routes:
  - method: call_tool
    backend: tools
  - method_prefix: list_
    backend: resources
`

func TestLookupResolvesExactAndPrefixRoutes(t *testing.T) {
	g := New(nil)
	path := writeConfig(t, basicConfig)
	if err := g.Reload(path); err != nil {
		t.Fatalf("reload: %v", err)
	}

	b, ok := g.Lookup("call_tool")
	if !ok || b.ID != "tools" {
		t.Fatalf("expected call_tool to route to tools, got %+v ok=%v", b, ok)
	}

	b2, ok2 := g.Lookup("list_resources")
	if !ok2 || b2.ID != "resources" {
		t.Fatalf("expected list_resources to route to resources, got %+v ok=%v", b2, ok2)
	}
}

func TestLookupCachesNegativeResult(t *testing.T) {
	g := New(nil)
	path := writeConfig(t, basicConfig)
	if err := g.Reload(path); err != nil {
		t.Fatalf("reload: %v", err)
	}

	b, ok := g.Lookup("unrouteable_method")
	if ok || b != nil {
		t.Fatalf("expected a negative result, got %+v ok=%v", b, ok)
	}
	// Second lookup should hit the cached negative entry, not re-scan.
	b2, ok2 := g.Lookup("unrouteable_method")
	if ok2 || b2 != nil {
		t.Fatalf("expected cached negative result, got %+v ok=%v", b2, ok2)
	}
}

func TestReloadClearsCacheAndSwapsBackends(t *testing.T) {
	g := New(nil)
	path := writeConfig(t, basicConfig)
	if err := g.Reload(path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	first, _ := g.Lookup("call_tool")

	newConfig := `
backends:
  - id: tools-v2
    address: localhost:9101
routes:
  - method: call_tool
    backend: tools-v2
`
	path2 := writeConfig(t, newConfig)
	if err := g.Reload(path2); err != nil {
		t.Fatalf("reload: %v", err)
	}

	second, ok := g.Lookup("call_tool")
	if !ok || second.ID != "tools-v2" {
		t.Fatalf("expected call_tool to route to tools-v2 after reload, got %+v", second)
	}
	if first.ID == second.ID {
		t.Fatal("expected a distinct backend instance after reload")
	}
	// The dropped backend should eventually be released to zero and closed;
	// at minimum it must not panic on a late release.
	if !first.closed.Load() {
		t.Fatalf("expected old backend to be closed after reload drops its last reference")
	}
}

func TestDuplicateBackendIDRejected(t *testing.T) {
	g := New(nil)
	path := writeConfig(t, `
backends:
  - id: tools
    address: localhost:9001
  - id: tools
    address: localhost:9002
routes: []
`)
	if err := g.Reload(path); err == nil {
		t.Fatal("expected duplicate backend id to be rejected")
	}
}

func TestRouteReferencingUnknownBackendRejected(t *testing.T) {
	g := New(nil)
	path := writeConfig(t, `
backends:
  - id: tools
    address: localhost:9001
routes:
  - method: call_tool
    backend: missing
`)
	if err := g.Reload(path); err == nil {
		t.Fatal("expected route referencing an unknown backend to be rejected")
	}
}

func TestBackendsCount(t *testing.T) {
	g := New(nil)
	path := writeConfig(t, basicConfig)
	if err := g.Reload(path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if g.Backends() != 2 {
		t.Fatalf("expected 2 backends, got %d", g.Backends())
	}
}
