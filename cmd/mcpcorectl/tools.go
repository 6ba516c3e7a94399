package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brennhill/mcpcore/cmd/mcpcorectl/output"
)

func newListToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-tools",
		Short: "list the tools registered on the target server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := clientFor(cmd)
			result := &output.Result{Method: "list_tools", Target: c.Addr()}

			tools, err := c.ListTools()
			if err != nil {
				result.Error = err.Error()
				return emit(cmd, result)
			}

			names := make([]string, 0, len(tools))
			for _, t := range tools {
				names = append(names, t.Name)
			}
			result.Success = true
			result.Data = map[string]any{"count": len(tools), "tools": names}
			return emit(cmd, result)
		},
	}
}

func newListResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-resources",
		Short: "list the static resources registered on the target server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := clientFor(cmd)
			result := &output.Result{Method: "list_resources", Target: c.Addr()}

			resources, err := c.ListResources()
			if err != nil {
				result.Error = err.Error()
				return emit(cmd, result)
			}

			uris := make([]string, 0, len(resources))
			for _, r := range resources {
				uris = append(uris, r.URI)
			}
			result.Success = true
			result.Data = map[string]any{"count": len(resources), "uris": uris}
			return emit(cmd, result)
		},
	}
}

func newReadResourceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-resource <uri>",
		Short: "read a resource (static or URI-template matched) by URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uri := args[0]
			c := clientFor(cmd)
			result := &output.Result{Method: "read_resource", Target: uri}

			read, err := c.ReadResource(uri)
			if err != nil {
				result.Error = err.Error()
				return emit(cmd, result)
			}

			result.Success = true
			if len(read.Contents) == 1 && read.Contents[0].Text != "" {
				result.TextContent = read.Contents[0].Text
			}
			result.Data = map[string]any{"contents": len(read.Contents)}
			return emit(cmd, result)
		},
	}
}

func newCallToolCmd() *cobra.Command {
	var argsJSON string
	cmd := &cobra.Command{
		Use:   "call-tool <name>",
		Short: "invoke a registered tool with JSON-encoded arguments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			arguments, err := parseToolArguments(argsJSON)
			if err != nil {
				return fmt.Errorf("parse --args: %w", err)
			}

			c := clientFor(cmd)
			result := &output.Result{Method: "call_tool", Target: name}

			toolResult, err := c.CallTool(name, arguments)
			if err != nil {
				result.Error = err.Error()
				return emit(cmd, result)
			}

			result.Success = !toolResult.IsError
			if len(toolResult.Content) == 1 && toolResult.Content[0].Type == "text" {
				result.TextContent = toolResult.Content[0].Text
			}
			result.Data = map[string]any{"content_blocks": len(toolResult.Content), "is_error": toolResult.IsError}
			if toolResult.IsError && result.Error == "" && len(toolResult.Content) > 0 {
				result.Error = toolResult.Content[len(toolResult.Content)-1].Text
			}
			return emit(cmd, result)
		},
	}
	cmd.Flags().StringVar(&argsJSON, "args", "{}", "JSON object of tool arguments")
	return cmd
}
