// Command mcpcorectl is a diagnostic client CLI for a running mcpcored
// instance: it dials the reference TCP transport directly and issues one
// JSON-RPC call per invocation, replacing the teacher's HTTP-based
// gasoline-cmd client (gasoline-mcp speaks HTTP; mcpcore's reference
// transports are TCP/WebSocket, so this client speaks TCP).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brennhill/mcpcore/cmd/mcpcorectl/client"
	"github.com/brennhill/mcpcore/cmd/mcpcorectl/output"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mcpcorectl",
		Short:         "diagnostic client for a running mcpcored server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("addr", "127.0.0.1:7890", "host:port of the running mcpcored instance")
	root.PersistentFlags().String("format", "human", "output format (human|json|csv)")

	root.AddCommand(newPingCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newListToolsCmd())
	root.AddCommand(newListResourcesCmd())
	root.AddCommand(newReadResourceCmd())
	root.AddCommand(newCallToolCmd())

	return root
}

// clientFor builds a client.Client from the --addr persistent flag.
func clientFor(cmd *cobra.Command) *client.Client {
	addr, _ := cmd.Flags().GetString("addr")
	return client.New(addr)
}

// emit formats and writes result to stdout using the --format persistent
// flag, then returns an error if the underlying command failed so cobra
// exits non-zero.
func emit(cmd *cobra.Command, result *output.Result) error {
	format, _ := cmd.Flags().GetString("format")
	formatter := output.GetFormatter(format)
	if err := formatter.Format(cmd.OutOrStdout(), result); err != nil {
		return fmt.Errorf("format output: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("%s %s: %s", result.Method, result.Target, result.Error)
	}
	return nil
}
