package main

import (
	"fmt"
	"os"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brennhill/mcpcore/internal/config"
	"github.com/brennhill/mcpcore/internal/state"
)

// newGatewayCmd groups admin operations on a running mcpcored's gateway
// router (mcpcore §6: "reload on SIGHUP (or equivalent admin API)").
func newGatewayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "operate a running mcpcored's gateway router",
	}
	cmd.AddCommand(newGatewayReloadCmd())
	return cmd
}

func newGatewayReloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reload",
		Short: "signal a running mcpcored to reload its gateway routing configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetInt("port")
			return runGatewayReload(port)
		},
	}
	defaults := config.Defaults()
	cmd.Flags().Int("port", defaults.Port, "port the target mcpcored instance is listening on (identifies its PID file)")
	return cmd
}

func runGatewayReload(port int) error {
	pidPath, err := state.PIDFile(port)
	if err != nil {
		return fmt.Errorf("resolve pid file: %w", err)
	}
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return fmt.Errorf("read pid file %s: %w", pidPath, err)
	}
	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("parse pid file %s: %w", pidPath, err)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGHUP); err != nil {
		return fmt.Errorf("signal process %d: %w", pid, err)
	}
	fmt.Printf("mcpcored (pid %d) signaled to reload its gateway configuration\n", pid)
	return nil
}
