package client

import (
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brennhill/mcpcore/internal/mcp"
)

// serveOnce accepts a single connection, decodes one framed JSON-RPC
// request, and writes back a framed response built by respond.
func serveOnce(t *testing.T, ln net.Listener, respond func(mcp.JSONRPCRequest) mcp.JSONRPCResponse) {
	t.Helper()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		reqBody, err := readFrame(conn)
		if err != nil {
			return
		}
		var req mcp.JSONRPCRequest
		json.Unmarshal(reqBody, &req)

		resp := respond(req)
		respBody, _ := json.Marshal(resp)
		writeFrame(conn, respBody)
	}()
}

func TestPingSuccess(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serveOnce(t, ln, func(req mcp.JSONRPCRequest) mcp.JSONRPCResponse {
		result, _ := json.Marshal(map[string]string{"result": "pong"})
		return mcp.JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: result}
	})

	c := New(ln.Addr().String())
	require.NoError(t, c.Ping())
}

func TestCallToolReturnsServerError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serveOnce(t, ln, func(req mcp.JSONRPCRequest) mcp.JSONRPCResponse {
		return mcp.JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &mcp.JSONRPCError{Code: mcp.CodeToolNotFound, Message: "no tool registered under this name"},
		}
	})

	c := New(ln.Addr().String())
	_, err = c.CallTool("missing", nil)
	require.Error(t, err)
}

func TestListToolsDecodesResult(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serveOnce(t, ln, func(req mcp.JSONRPCRequest) mcp.JSONRPCResponse {
		result, _ := json.Marshal(mcp.MCPToolsListResult{Tools: []mcp.MCPTool{{Name: "echo", Description: "echoes input"}}})
		return mcp.JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: result}
	})

	c := New(ln.Addr().String())
	tools, err := c.ListTools()
	require.NoError(t, err)
	require.Len(t, tools, 1)
	require.Equal(t, "echo", tools[0].Name)
}

func TestHealthCheckFailsWhenNothingListening(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close() // nothing listening anymore

	c := New(addr)
	require.False(t, c.HealthCheck())
}
