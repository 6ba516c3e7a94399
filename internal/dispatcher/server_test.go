package dispatcher

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/brennhill/mcpcore/internal/mcp"
	"github.com/brennhill/mcpcore/internal/metrics"
)

func echoTool(name string, params map[string]any) ([]ContentItem, bool, string) {
	return []ContentItem{{Type: "text", Text: "ok"}}, false, ""
}

func TestPingAndUnknownMethod(t *testing.T) {
	s := New(Config{})
	defer s.Destroy()

	resp, _ := s.OnMessage(context.Background(), "c1", []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	var pingResp mcp.JSONRPCResponse
	if err := json.Unmarshal(resp, &pingResp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if pingResp.Error != nil {
		t.Fatalf("unexpected error: %+v", pingResp.Error)
	}

	resp2, _ := s.OnMessage(context.Background(), "c1", []byte(`{"jsonrpc":"2.0","id":2,"method":"bogus"}`))
	var unknownResp mcp.JSONRPCResponse
	json.Unmarshal(resp2, &unknownResp)
	if unknownResp.Error == nil || unknownResp.Error.Code != mcp.CodeMethodNotFound {
		t.Fatalf("expected method_not_found, got %+v", unknownResp.Error)
	}
}

func TestCallToolPipeline(t *testing.T) {
	s := New(Config{})
	defer s.Destroy()
	s.AddTool(Tool{Name: "echo", Handler: echoTool})

	req := []byte(`{"jsonrpc":"2.0","id":1,"method":"call_tool","params":{"name":"echo","arguments":{}}}`)
	resp, _ := s.OnMessage(context.Background(), "c1", req)

	var r mcp.JSONRPCResponse
	if err := json.Unmarshal(resp, &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Error != nil {
		t.Fatalf("unexpected error: %+v", r.Error)
	}
	var result mcp.MCPToolResult
	json.Unmarshal(r.Result, &result)
	if len(result.Content) != 1 || result.Content[0].Text != "ok" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCallToolNotFound(t *testing.T) {
	s := New(Config{})
	defer s.Destroy()

	req := []byte(`{"jsonrpc":"2.0","id":1,"method":"call_tool","params":{"name":"missing","arguments":{}}}`)
	resp, _ := s.OnMessage(context.Background(), "c1", req)
	var r mcp.JSONRPCResponse
	json.Unmarshal(resp, &r)
	if r.Error == nil || r.Error.Code != mcp.CodeToolNotFound {
		t.Fatalf("expected tool_not_found, got %+v", r.Error)
	}
}

func TestCallToolWarnsOnUnknownArgument(t *testing.T) {
	s := New(Config{})
	defer s.Destroy()
	s.AddTool(Tool{
		Name:    "echo",
		Handler: echoTool,
		InputSchema: map[string]any{
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
		},
	})

	req := []byte(`{"jsonrpc":"2.0","id":1,"method":"call_tool","params":{"name":"echo","arguments":{"txet":"oops"}}}`)
	resp, _ := s.OnMessage(context.Background(), "c1", req)

	var r mcp.JSONRPCResponse
	if err := json.Unmarshal(resp, &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Error != nil {
		t.Fatalf("unexpected error: %+v", r.Error)
	}
	var result mcp.MCPToolResult
	json.Unmarshal(r.Result, &result)
	warnings, _ := result.Metadata["warnings"].([]any)
	if len(warnings) != 1 {
		t.Fatalf("expected one unknown-argument warning, got %+v", result.Metadata)
	}
}

func TestBatchPreservesOrder(t *testing.T) {
	s := New(Config{})
	defer s.Destroy()

	batch := []byte(`[{"jsonrpc":"2.0","id":1,"method":"ping"},{"jsonrpc":"2.0","id":2,"method":"ping"}]`)
	resp, _ := s.OnMessage(context.Background(), "c1", batch)

	var responses []mcp.JSONRPCResponse
	if err := json.Unmarshal(resp, &responses); err != nil {
		t.Fatalf("unmarshal batch: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	id0, _ := responses[0].ID.(float64)
	id1, _ := responses[1].ID.(float64)
	if id0 != 1 || id1 != 2 {
		t.Fatalf("expected order preserved, got ids %v, %v", responses[0].ID, responses[1].ID)
	}
}

func TestRemoveToolPreservesOrder(t *testing.T) {
	s := New(Config{})
	defer s.Destroy()
	s.AddTool(Tool{Name: "a", Handler: echoTool})
	s.AddTool(Tool{Name: "b", Handler: echoTool})
	s.AddTool(Tool{Name: "c", Handler: echoTool})
	s.RemoveTool("b")

	tools := s.reg.listTools()
	if len(tools) != 2 || tools[0].Name != "a" || tools[1].Name != "c" {
		t.Fatalf("expected [a c] in order, got %+v", tools)
	}
}

func TestRateLimiterDeniesCallTool(t *testing.T) {
	s := New(Config{RateLimiter: denyAll{}})
	defer s.Destroy()
	s.AddTool(Tool{Name: "echo", Handler: echoTool})

	req := []byte(`{"jsonrpc":"2.0","id":1,"method":"call_tool","params":{"name":"echo","arguments":{}}}`)
	resp, _ := s.OnMessage(context.Background(), "c1", req)
	var r mcp.JSONRPCResponse
	json.Unmarshal(resp, &r)
	if r.Error == nil || r.Error.Code != mcp.CodeRateLimited {
		t.Fatalf("expected rate_limited, got %+v", r.Error)
	}
}

type denyAll struct{}

func (denyAll) Check(ip, userID, apiKey, custom *string) bool { return false }

func TestMetricsRecordsOutcomesPerRequest(t *testing.T) {
	collector := metrics.New(metrics.Config{})
	s := New(Config{Metrics: collector, RateLimiter: denyAll{}})
	defer s.Destroy()
	s.AddTool(Tool{Name: "echo", Handler: echoTool})

	// Denied by the rate limiter.
	deniedReq := []byte(`{"jsonrpc":"2.0","id":1,"method":"call_tool","params":{"name":"echo","arguments":{}}}`)
	s.OnMessage(context.Background(), "c1", deniedReq)

	// Successful built-in ping.
	s.OnMessage(context.Background(), "c1", []byte(`{"jsonrpc":"2.0","id":2,"method":"ping"}`))

	// Failed: unknown method.
	s.OnMessage(context.Background(), "c1", []byte(`{"jsonrpc":"2.0","id":3,"method":"bogus"}`))

	snap := collector.Snapshot()
	if snap.TotalRequests != 3 {
		t.Fatalf("expected 3 total requests, got %d", snap.TotalRequests)
	}
	if snap.DeniedRequests != 1 {
		t.Fatalf("expected 1 denied request, got %d", snap.DeniedRequests)
	}
	if snap.SuccessfulRequests != 1 {
		t.Fatalf("expected 1 successful request, got %d", snap.SuccessfulRequests)
	}
	if snap.FailedRequests != 1 {
		t.Fatalf("expected 1 failed request, got %d", snap.FailedRequests)
	}
}
