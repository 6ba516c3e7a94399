// Command mcpcored is mcpcore's reference server daemon (spec.md §6 CLI
// surface): it wires the dispatcher, a reference transport, the gateway
// router, and metrics export behind a cobra root command, replacing the
// teacher's hand-rolled stdlib flag parsing in cmd/dev-console/main.go.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/brennhill/mcpcore/internal/config"
)

// version is set at build time via -ldflags.
var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "mcpcored",
		Short:   "mcpcore MCP JSON-RPC server daemon",
		Version: version,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newGatewayCmd())

	return root
}

// flagOverrides reads the cobra command's flags into a
// config.FlagOverrides, leaving a field nil when its flag was never set so
// the load cascade's lower-priority sources are preserved.
func flagOverrides(cmd *cobra.Command) *config.FlagOverrides {
	f := &config.FlagOverrides{}
	flags := cmd.Flags()

	if flags.Changed("host") {
		v, _ := flags.GetString("host")
		f.Host = &v
	}
	if flags.Changed("port") {
		v, _ := flags.GetInt("port")
		f.Port = &v
	}
	if flags.Changed("config") {
		v, _ := flags.GetString("config")
		f.GatewayConfig = &v
	}
	if flags.Changed("doc-root") {
		v, _ := flags.GetString("doc-root")
		f.DocRoot = &v
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		f.LogLevel = &v
	}
	if flags.Changed("log-file") {
		v, _ := flags.GetString("log-file")
		f.LogFile = &v
	}
	if flags.Changed("ssl") {
		v, _ := flags.GetBool("ssl")
		f.SSL = &v
	}
	if flags.Changed("cert") {
		v, _ := flags.GetString("cert")
		f.CertFile = &v
	}
	if flags.Changed("key") {
		v, _ := flags.GetString("key")
		f.KeyFile = &v
	}
	return f
}

func addServerFlags(cmd *cobra.Command) {
	defaults := config.Defaults()
	flags := cmd.Flags()
	flags.String("host", defaults.Host, "listen host")
	flags.Int("port", defaults.Port, "listen port")
	flags.String("config", "", "gateway routing configuration file (YAML)")
	flags.String("doc-root", "", "document root for resource reads")
	flags.String("log-level", defaults.LogLevel, "log level (trace|debug|info|warn|error|fatal|panic)")
	flags.String("log-file", "", "structured log file path (defaults under the state directory)")
	flags.Bool("ssl", false, "serve HTTPS/WSS using --cert/--key")
	flags.String("cert", "", "TLS certificate file (requires --ssl)")
	flags.String("key", "", "TLS private key file (requires --ssl)")
}
