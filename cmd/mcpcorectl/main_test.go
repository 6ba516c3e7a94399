package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brennhill/mcpcore/internal/dispatcher"
	"github.com/brennhill/mcpcore/internal/transport/tcp"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ping", "status", "list-tools", "list-resources", "read-resource", "call-tool"} {
		require.True(t, names[want], "expected a %q subcommand, got %v", want, names)
	}
}

func TestParseToolArgumentsDefaultsToEmptyObject(t *testing.T) {
	args, err := parseToolArguments("")
	require.NoError(t, err)
	require.Empty(t, args)
}

func TestParseToolArgumentsRejectsNonObjectJSON(t *testing.T) {
	_, err := parseToolArguments("[1,2,3]")
	require.Error(t, err)
}

// echoTool mirrors the dispatcher test package's fixture tool: it returns a
// single text content block.
func echoTool(name string, params map[string]any) ([]dispatcher.ContentItem, bool, string) {
	return []dispatcher.ContentItem{{Type: "text", Text: "ok"}}, false, ""
}

func TestPingAndCallToolAgainstLiveServer(t *testing.T) {
	server := dispatcher.New(dispatcher.Config{})
	defer server.Destroy()
	server.AddTool(dispatcher.Tool{Name: "echo", Handler: echoTool})

	transport := tcp.New(tcp.Config{Addr: "127.0.0.1:0"})
	require.NoError(t, server.Start(transport))
	addr := transport.Addr().String()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--addr", addr, "--format", "json", "ping"})
	require.NoError(t, root.Execute(), "output: %s", out.String())

	out.Reset()
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--addr", addr, "--format", "json", "call-tool", "echo"})
	require.NoError(t, root.Execute(), "output: %s", out.String())
}
