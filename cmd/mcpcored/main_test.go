package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommandHasServeAndGatewaySubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	require.True(t, names["serve"], "expected a serve subcommand")
	require.True(t, names["gateway"], "expected a gateway subcommand")
}

func TestServeCommandRejectsUnknownTransport(t *testing.T) {
	t.Setenv("MCPCORE_STATE_DIR", t.TempDir())
	root := newRootCmd()
	root.SetArgs([]string{"serve", "--transport", "quic", "--port", "0"})
	root.SilenceUsage = true
	root.SilenceErrors = true
	require.Error(t, root.Execute(), "expected an error for an unrecognized --transport value")
}

func TestFlagOverridesOnlyPopulatesChangedFlags(t *testing.T) {
	cmd := newServeCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--port", "9999"}))

	overrides := flagOverrides(cmd)
	require.NotNil(t, overrides.Port)
	require.Equal(t, 9999, *overrides.Port)
	require.Nil(t, overrides.Host, "expected Host override to stay nil when --host was not set")
}

func TestGatewayReloadRequiresRunningPIDFile(t *testing.T) {
	t.Setenv("MCPCORE_STATE_DIR", t.TempDir())
	require.Error(t, runGatewayReload(65535), "expected an error when no PID file exists for the given port")
}
