// Package client is a JSON-RPC 2.0 client for talking to a running
// mcpcored instance over its reference TCP transport (mcpcore §4.6/§6):
// a 4-byte big-endian length prefix followed by the JSON-RPC payload,
// one request/response pair per dial.
package client

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/brennhill/mcpcore/internal/mcp"
)

const maxMessageSize = 1 << 20 // mirrors transport/tcp.DefaultMaxMessageSize

// Client connects to a running mcpcored server over TCP.
type Client struct {
	addr      string
	timeout   time.Duration
	requestID atomic.Int64
}

// New creates a Client dialing addr (host:port) for each call.
func New(addr string) *Client {
	return &Client{addr: addr, timeout: 5 * time.Second}
}

// Addr returns the target address this client dials.
func (c *Client) Addr() string {
	return c.addr
}

// Ping performs the MCP "ping" method call.
func (c *Client) Ping() error {
	_, err := c.call("ping", nil)
	return err
}

// ListTools fetches the server's registered tool catalog.
func (c *Client) ListTools() ([]mcp.MCPTool, error) {
	result, err := c.call("list_tools", nil)
	if err != nil {
		return nil, err
	}
	var out mcp.MCPToolsListResult
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, fmt.Errorf("decode list_tools result: %w", err)
	}
	return out.Tools, nil
}

// ListResources fetches the server's registered static resource catalog.
func (c *Client) ListResources() ([]mcp.MCPResource, error) {
	result, err := c.call("list_resources", nil)
	if err != nil {
		return nil, err
	}
	var out mcp.MCPResourcesListResult
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, fmt.Errorf("decode list_resources result: %w", err)
	}
	return out.Resources, nil
}

// ReadResource reads a resource (static or template-matched) by URI.
func (c *Client) ReadResource(uri string) (*mcp.MCPResourcesReadResult, error) {
	params, err := json.Marshal(struct {
		URI string `json:"uri"`
	}{URI: uri})
	if err != nil {
		return nil, fmt.Errorf("marshal read_resource params: %w", err)
	}
	result, err := c.call("read_resource", params)
	if err != nil {
		return nil, err
	}
	var out mcp.MCPResourcesReadResult
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, fmt.Errorf("decode read_resource result: %w", err)
	}
	return &out, nil
}

// CallTool invokes a registered tool with the given arguments.
func (c *Client) CallTool(name string, arguments map[string]any) (*mcp.MCPToolResult, error) {
	if arguments == nil {
		arguments = map[string]any{}
	}
	params, err := json.Marshal(struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}{Name: name, Arguments: arguments})
	if err != nil {
		return nil, fmt.Errorf("marshal call_tool params: %w", err)
	}
	result, err := c.call("call_tool", params)
	if err != nil {
		return nil, err
	}
	var out mcp.MCPToolResult
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, fmt.Errorf("decode call_tool result: %w", err)
	}
	return &out, nil
}

// HealthCheck reports whether a ping round-trip against addr succeeds.
func (c *Client) HealthCheck() bool {
	return c.Ping() == nil
}

// call sends a single JSON-RPC request and returns its result field,
// translating a JSON-RPC error envelope into a Go error.
func (c *Client) call(method string, params json.RawMessage) (json.RawMessage, error) {
	req := mcp.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      c.nextID(),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	respBody, err := c.roundTrip(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	var resp mcp.JSONRPCResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", method, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%s: server error [%d]: %s", method, resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

// roundTrip dials addr, writes a single length-prefixed frame, and reads
// a single length-prefixed frame back, per mcpcore's TCP wire format.
func (c *Client) roundTrip(payload []byte) ([]byte, error) {
	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.addr, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	if err := writeFrame(conn, payload); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return readFrame(conn)
}

func writeFrame(w io.Writer, payload []byte) error {
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read length prefix: %w", err)
	}
	length := binary.BigEndian.Uint32(header)
	if length == 0 || int(length) > maxMessageSize {
		return nil, fmt.Errorf("out-of-range frame length %d", length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return payload, nil
}

// nextID returns a monotonically increasing request ID.
func (c *Client) nextID() int64 {
	return c.requestID.Add(1)
}
