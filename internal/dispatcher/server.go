// Package dispatcher implements mcpcore's request router and server
// (§4.7): JSON-RPC envelope decoding, built-in method routing, the
// call_tool pipeline (rate limiting → handler; template security is applied
// only to read_resource, not to call_tool), tool and resource registries,
// and the worker pool requests run on.
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brennhill/mcpcore/internal/mcp"
	"github.com/brennhill/mcpcore/internal/metrics"
	"github.com/brennhill/mcpcore/internal/template"
	"github.com/brennhill/mcpcore/internal/transport"
)

// RateLimiter is the subset of internal/ratelimit.Limiter the dispatcher
// depends on. Defined here (not imported concretely) so the dispatcher
// doesn't need to know about rules/algorithms, only the admission check —
// mirrors the teacher's deps.go composable-interface pattern.
type RateLimiter interface {
	Check(ip, userID, apiKey, custom *string) bool
}

// TemplateSecurity is the subset of internal/security.ACL the dispatcher
// depends on for authorizing template-addressed resource access.
type TemplateSecurity interface {
	Authorize(templateURI, role string, params map[string]any) bool
}

// IdentityHints are the transport-provided identity values used to key
// rate limiting (mcpcore §4.7 step 4 / §4.4).
type IdentityHints struct {
	IP     *string
	UserID *string
	APIKey *string
	Custom *string
	Role   string // used by TemplateSecurity; "" if unauthenticated
}

// Config configures a Server.
type Config struct {
	Name            string
	Version         string
	Instructions    string
	Pool            PoolConfig
	RateLimiter     RateLimiter      // nil disables rate limiting
	Security        TemplateSecurity // nil disables ACL checks
	TemplateCache   *template.Cache  // nil constructs a private cache
	Metrics         *metrics.Collector // nil disables request accounting (§4.10)
	Log             *logrus.Entry
}

// Server is mcpcore's dispatcher (§4.7). The zero value is not usable;
// construct with New.
type Server struct {
	cfg      Config
	log      *logrus.Entry
	reg      *registry
	pool     *pool
	tplCache *template.Cache

	started   atomic.Bool
	stopped   atomic.Bool
	destroyed atomic.Bool

	transport transport.Transport
}

var _ transport.Handler = (*Server)(nil)

// New constructs a Server. It does not start accepting requests until
// Start is called with a transport.
func New(cfg Config) *Server {
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.New())
	}
	if cfg.TemplateCache == nil {
		cfg.TemplateCache = template.NewCache()
	}
	return &Server{
		cfg:      cfg,
		log:      cfg.Log,
		reg:      newRegistry(),
		pool:     newPool(cfg.Pool, cfg.Log),
		tplCache: cfg.TemplateCache,
	}
}

// AddTool registers t, deep-copying its descriptor (mcpcore §4.7
// Registration).
func (s *Server) AddTool(t Tool) { s.reg.addTool(t) }

// RemoveTool removes the tool named name, preserving the order of
// surviving entries.
func (s *Server) RemoveTool(name string) bool { return s.reg.removeTool(name) }

// FindTool looks up a registered tool by name.
func (s *Server) FindTool(name string) (Tool, bool) { return s.reg.findTool(name) }

// AddResource registers a concrete or template-addressed resource.
func (s *Server) AddResource(r Resource) { s.reg.addResource(r) }

// RemoveResource removes a resource by its URI or TemplateURI.
func (s *Server) RemoveResource(key string) bool { return s.reg.removeResource(key) }

// PoolStats returns the worker pool's current counters.
func (s *Server) PoolStats() PoolStats { return s.pool.stats() }

// ResizePool changes the worker pool's live goroutine count (mcpcore §4.7:
// "Pool supports dynamic resize").
func (s *Server) ResizePool(n int) { s.pool.resize(n) }

// Start begins accepting requests through t. Idempotent after the first
// call.
func (s *Server) Start(t transport.Transport) error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}
	s.transport = t
	return t.Start(s)
}

// Stop is idempotent after the first call.
func (s *Server) Stop() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if s.transport != nil {
		return s.transport.Stop()
	}
	return nil
}

// Destroy is idempotent after Stop. It shuts down the worker pool and
// releases the transport.
func (s *Server) Destroy() error {
	if !s.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	s.Stop()
	s.pool.shutdown()
	if s.transport != nil {
		return s.transport.Destroy()
	}
	return nil
}

// OnMessage implements transport.Handler. It decodes one JSON-RPC envelope
// or batch and routes it; errCode is always 0 here since framing-level
// errors are the transport's concern, not the dispatcher's.
func (s *Server) OnMessage(ctx context.Context, clientID string, msg []byte) ([]byte, int) {
	trimmed := trimLeadingSpace(msg)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var envelopes []json.RawMessage
		if err := json.Unmarshal(trimmed, &envelopes); err != nil {
			return s.marshalError(nil, mcp.NewJSONRPCError(mcp.CodeParseError, "invalid_json", err.Error())), 0
		}
		responses := make([]json.RawMessage, len(envelopes))
		for i, raw := range envelopes {
			responses[i] = s.routeOne(raw, clientID)
		}
		out, _ := json.Marshal(responses)
		return out, 0
	}

	resp := s.routeOne(trimmed, clientID)
	return resp, 0
}

// OnError implements transport.Handler.
func (s *Server) OnError(ctx context.Context, clientID string, err error) {
	s.log.WithError(err).WithField("client", clientID).Warn("dispatcher: transport error")
}

func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\n', '\r':
			i++
			continue
		}
		break
	}
	return b[i:]
}

// routeOne decodes and dispatches a single JSON-RPC request, returning the
// marshaled JSON-RPC response.
func (s *Server) routeOne(raw json.RawMessage, clientID string) json.RawMessage {
	start := time.Now()
	var rpcErr *mcp.JSONRPCError
	defer func() { s.recordOutcome(rpcErr, time.Since(start)) }()

	var req mcp.JSONRPCRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		rpcErr = mcp.NewJSONRPCError(mcp.CodeParseError, mcp.ErrInvalidJSON, err.Error())
		return s.marshalError(nil, rpcErr)
	}
	if req.HasInvalidID() {
		rpcErr = mcp.NewJSONRPCError(mcp.CodeInvalidRequest, "invalid_request", "id must be a string, number, or absent")
		return s.marshalError(nil, rpcErr)
	}

	var result json.RawMessage

	switch req.Method {
	case "ping":
		result, _ = json.Marshal(map[string]string{"result": "pong"})
	case "initialize":
		result, _ = json.Marshal(mcp.MCPInitializeResult{
			ProtocolVersion: "2024-11-05",
			ServerInfo:      mcp.MCPServerInfo{Name: s.cfg.Name, Version: s.cfg.Version},
			Capabilities:    mcp.MCPCapabilities{},
			Instructions:    s.cfg.Instructions,
		})
	case "list_resources":
		result, rpcErr = s.handleListResources()
	case "list_resource_templates":
		result, rpcErr = s.handleListResourceTemplates()
	case "read_resource":
		result, rpcErr = s.handleReadResource(req.Params, clientID)
	case "list_tools":
		result, rpcErr = s.handleListTools()
	case "call_tool":
		result, rpcErr = s.handleCallTool(req.Params, clientID)
	default:
		rpcErr = mcp.NewJSONRPCError(mcp.CodeMethodNotFound, mcp.ErrMethodNotFound, fmt.Sprintf("unknown method %q", req.Method))
	}

	if rpcErr != nil {
		return s.marshalError(req.ID, rpcErr)
	}
	return s.marshalResult(req.ID, result)
}

func (s *Server) marshalResult(id any, result json.RawMessage) json.RawMessage {
	resp := mcp.JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
	out, _ := json.Marshal(resp)
	return out
}

func (s *Server) marshalError(id any, rpcErr *mcp.JSONRPCError) json.RawMessage {
	resp := mcp.JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: rpcErr}
	out, _ := json.Marshal(resp)
	return out
}

// recordOutcome reports one routeOne call to the configured metrics
// collector (mcpcore §4.10). A nil rpcErr is a success; CodeRateLimited
// and CodeUnauthorized are denials, everything else a failure.
func (s *Server) recordOutcome(rpcErr *mcp.JSONRPCError, latency time.Duration) {
	if s.cfg.Metrics == nil {
		return
	}
	outcome := metrics.OutcomeSuccess
	if rpcErr != nil {
		switch rpcErr.Code {
		case mcp.CodeRateLimited, mcp.CodeUnauthorized:
			outcome = metrics.OutcomeDenied
		default:
			outcome = metrics.OutcomeFailed
		}
	}
	s.cfg.Metrics.RecordRequest(outcome, latency)
}
