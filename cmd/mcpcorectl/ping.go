package main

import (
	"github.com/spf13/cobra"

	"github.com/brennhill/mcpcore/cmd/mcpcorectl/output"
)

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "send a ping request and report round-trip success",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := clientFor(cmd)
			result := &output.Result{Method: "ping", Target: c.Addr()}
			if err := c.Ping(); err != nil {
				result.Error = err.Error()
				return emit(cmd, result)
			}
			result.Success = true
			return emit(cmd, result)
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "report whether the target mcpcored instance is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := clientFor(cmd)
			result := &output.Result{Method: "status", Target: c.Addr()}
			result.Success = c.HealthCheck()
			if !result.Success {
				result.Error = "no response to ping"
			}
			return emit(cmd, result)
		},
	}
}
