package dispatcher

import (
	"encoding/json"

	"github.com/brennhill/mcpcore/internal/mcp"
	"github.com/brennhill/mcpcore/internal/template"
)

func (s *Server) handleListTools() (json.RawMessage, *mcp.JSONRPCError) {
	tools := s.reg.listTools()
	out := make([]mcp.MCPTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, mcp.MCPTool{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	result, _ := json.Marshal(mcp.MCPToolsListResult{Tools: out})
	return result, nil
}

func (s *Server) handleListResources() (json.RawMessage, *mcp.JSONRPCError) {
	resources := s.reg.listResources()
	out := make([]mcp.MCPResource, 0, len(resources))
	for _, r := range resources {
		out = append(out, mcp.MCPResource{URI: r.URI, Name: r.Name, Description: r.Description, MimeType: r.MimeType})
	}
	result, _ := json.Marshal(mcp.MCPResourcesListResult{Resources: out})
	return result, nil
}

func (s *Server) handleListResourceTemplates() (json.RawMessage, *mcp.JSONRPCError) {
	templates := s.reg.listResourceTemplates()
	out := make([]mcp.MCPResourceTemplate, 0, len(templates))
	for _, r := range templates {
		out = append(out, mcp.MCPResourceTemplate{URITemplate: r.TemplateURI, Name: r.Name, Description: r.Description, MimeType: r.MimeType})
	}
	result, _ := json.Marshal(mcp.MCPResourceTemplatesListResult{ResourceTemplates: out})
	return result, nil
}

func (s *Server) handleReadResource(params json.RawMessage, clientID string) (json.RawMessage, *mcp.JSONRPCError) {
	var args struct {
		URI string `json:"uri"`
	}
	warnings, err := mcp.UnmarshalWithWarnings(params, &args)
	if err != nil || args.URI == "" {
		return nil, mcp.NewJSONRPCError(mcp.CodeInvalidParams, mcp.ErrInvalidParam, "read_resource requires a string \"uri\" parameter")
	}
	for _, w := range warnings {
		s.log.WithField("client", clientID).Warn("dispatcher: read_resource: " + w)
	}

	res, tplParams, ok := s.reg.findResourceForURI(args.URI, func(tpl, uri string) (map[string]any, bool) {
		parsed, err := s.tplCache.Lookup(tpl)
		if err != nil {
			return nil, false
		}
		params, err := template.Extract(parsed, uri)
		if err != nil {
			return nil, false
		}
		return params, true
	})
	if !ok {
		return nil, mcp.NewJSONRPCError(mcp.CodeResourceNotFound, mcp.ErrResourceNotFound, "no resource or resource template matches the given uri")
	}

	if res.TemplateURI != "" && s.cfg.Security != nil {
		hints := identityHintsFor(clientID)
		if !s.cfg.Security.Authorize(res.TemplateURI, hints.Role, tplParams) {
			return nil, mcp.NewJSONRPCError(mcp.CodeUnauthorized, mcp.ErrUnauthorized, "access to this resource template is not permitted")
		}
	}

	content, err := res.Handler(args.URI, tplParams)
	if err != nil {
		return nil, mcp.NewJSONRPCError(mcp.CodeInternalError, mcp.ErrInternal, err.Error())
	}

	contents := make([]mcp.MCPResourceContent, 0, len(content))
	for _, c := range content {
		contents = append(contents, mcp.MCPResourceContent{
			URI: args.URI, MimeType: c.MimeType, Text: c.Text, Data: c.Data, DataSize: c.DataSize,
		})
	}
	result, _ := json.Marshal(mcp.MCPResourcesReadResult{Contents: contents})
	return result, nil
}

// handleCallTool implements the call_tool pipeline of mcpcore §4.7:
// extract name → look up tool → rate limit → invoke handler on the worker
// pool → serialize. No template security check is made here; template
// security is applied only by handleReadResource, to template-addressed
// resources.
func (s *Server) handleCallTool(params json.RawMessage, clientID string) (json.RawMessage, *mcp.JSONRPCError) {
	var args struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	warnings, err := mcp.UnmarshalWithWarnings(params, &args)
	if err != nil || args.Name == "" {
		return nil, mcp.NewJSONRPCError(mcp.CodeInvalidParams, mcp.ErrInvalidParam, "call_tool requires a string \"name\" parameter")
	}

	tool, ok := s.reg.findTool(args.Name)
	if !ok {
		return nil, mcp.NewJSONRPCError(mcp.CodeToolNotFound, mcp.ErrToolNotFound, "no tool registered under this name", mcp.WithParam("name"))
	}

	if tool.InputSchema != nil {
		if rawArgs, err := json.Marshal(args.Arguments); err == nil {
			warnings = append(warnings, mcp.ValidateParamsAgainstSchema(rawArgs, tool.InputSchema)...)
		}
	}

	hints := identityHintsFor(clientID)
	if s.cfg.RateLimiter != nil {
		if !s.cfg.RateLimiter.Check(hints.IP, hints.UserID, hints.APIKey, hints.Custom) {
			return nil, mcp.NewJSONRPCError(mcp.CodeRateLimited, mcp.ErrRateLimited, "rate limit exceeded for this client")
		}
	}

	type callResult struct {
		content    []ContentItem
		isError    bool
		errMessage string
	}
	done := make(chan callResult, 1)
	submitErr := s.pool.submit(func() {
		content, isError, errMessage := tool.Handler(args.Name, args.Arguments)
		done <- callResult{content, isError, errMessage}
	})
	if submitErr != nil {
		return nil, mcp.NewJSONRPCError(mcp.CodeInternalError, mcp.ErrInternal, "worker pool task queue is full", mcp.WithRetryable(true), mcp.WithRetryAfterMs(500))
	}

	cr := <-done

	blocks := make([]mcp.MCPContentBlock, 0, len(cr.content)+1)
	for _, c := range cr.content {
		blocks = append(blocks, mcp.MCPContentBlock{Type: c.Type, Text: c.Text, MimeType: c.MimeType, Data: c.Data, DataSize: c.DataSize})
	}
	if cr.isError && cr.errMessage != "" {
		blocks = append(blocks, mcp.MCPContentBlock{Type: "text", Text: cr.errMessage})
	}

	toolResult := mcp.MCPToolResult{Content: blocks, IsError: cr.isError}
	if len(warnings) > 0 {
		toolResult.Metadata = map[string]any{"warnings": warnings}
	}
	result, _ := json.Marshal(toolResult)
	return result, nil
}

// identityHintsFor derives rate-limit identity hints from the transport-
// level client ID. The TCP and WebSocket transports key clients by remote
// address, which mcpcore treats as the ip hint; user_id/api_key/custom
// require an authentication layer this core doesn't implement (mcpcore's
// Non-goals explicitly exclude an authentication scheme) and are left nil.
func identityHintsFor(clientID string) IdentityHints {
	if clientID == "" {
		return IdentityHints{}
	}
	ip := clientID
	return IdentityHints{IP: &ip}
}
