package dispatcher

import "sync"

// ToolFunc is a registered tool's handler. params is the raw "arguments"
// object from call_tool; the return values populate (content, is_error,
// error_message) per mcpcore §4.7 step 5.
type ToolFunc func(name string, params map[string]any) (content []ContentItem, isError bool, errMessage string)

// ContentItem mirrors mcp.MCPContentBlock's shape without importing the
// mcp package into the dispatcher's public API — handlers shouldn't need
// to know about the JSON-RPC envelope to produce content.
type ContentItem struct {
	Type     string // "text" | "json" | "blob"
	Text     string
	MimeType string
	Data     string
	DataSize int
}

// Tool is a registered tool descriptor.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     ToolFunc
}

func (t Tool) deepCopy() Tool {
	cp := t
	if t.InputSchema != nil {
		cp.InputSchema = make(map[string]any, len(t.InputSchema))
		for k, v := range t.InputSchema {
			cp.InputSchema[k] = v
		}
	}
	return cp
}

// ResourceFunc reads a concrete resource (or a URI matching a resource
// template) and returns its contents.
type ResourceFunc func(uri string, params map[string]any) (content []ContentItem, err error)

// Resource is a registered resource or resource-template descriptor.
// TemplateURI is set for template-addressed resources (mcpcore §4.8/§4.9);
// URI is set for concrete, non-templated resources.
type Resource struct {
	URI         string
	TemplateURI string
	Name        string
	Description string
	MimeType    string
	Handler     ResourceFunc
}

func (r Resource) deepCopy() Resource { return r }

// registry holds tools and resources with insertion order preserved.
// Removal uses contiguous-shift-left semantics so list_tools/list_resources
// output stays stable for survivors (mcpcore §4.7 Registration).
type registry struct {
	mu sync.RWMutex

	toolOrder []string
	tools     map[string]Tool

	resourceOrder []string
	resources     map[string]Resource
}

func newRegistry() *registry {
	return &registry{
		tools:     make(map[string]Tool),
		resources: make(map[string]Resource),
	}
}

func (r *registry) addTool(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := t.deepCopy()
	if _, exists := r.tools[t.Name]; !exists {
		r.toolOrder = append(r.toolOrder, t.Name)
	}
	r.tools[t.Name] = cp
}

func (r *registry) removeTool(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; !ok {
		return false
	}
	delete(r.tools, name)
	for i, n := range r.toolOrder {
		if n == name {
			r.toolOrder = append(r.toolOrder[:i], r.toolOrder[i+1:]...)
			break
		}
	}
	return true
}

func (r *registry) findTool(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

func (r *registry) listTools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.toolOrder))
	for _, n := range r.toolOrder {
		out = append(out, r.tools[n])
	}
	return out
}

func (r *registry) addResource(res Resource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := res.URI
	if key == "" {
		key = res.TemplateURI
	}
	cp := res.deepCopy()
	if _, exists := r.resources[key]; !exists {
		r.resourceOrder = append(r.resourceOrder, key)
	}
	r.resources[key] = cp
}

func (r *registry) removeResource(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.resources[key]; !ok {
		return false
	}
	delete(r.resources, key)
	for i, k := range r.resourceOrder {
		if k == key {
			r.resourceOrder = append(r.resourceOrder[:i], r.resourceOrder[i+1:]...)
			break
		}
	}
	return true
}

func (r *registry) listResources() []Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Resource, 0, len(r.resourceOrder))
	for _, k := range r.resourceOrder {
		res := r.resources[k]
		if res.TemplateURI == "" {
			out = append(out, res)
		}
	}
	return out
}

func (r *registry) listResourceTemplates() []Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Resource, 0)
	for _, k := range r.resourceOrder {
		res := r.resources[k]
		if res.TemplateURI != "" {
			out = append(out, res)
		}
	}
	return out
}

// findResourceForURI returns the resource matching uri exactly, or the
// first resource template whose grammar matches uri along with the
// extracted params. matchFn is injected (rather than importing
// internal/template directly) to keep the registry's storage concerns
// separate from template grammar concerns.
func (r *registry) findResourceForURI(uri string, matchFn func(tpl, uri string) (map[string]any, bool)) (Resource, map[string]any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if res, ok := r.resources[uri]; ok && res.TemplateURI == "" {
		return res, nil, true
	}
	for _, k := range r.resourceOrder {
		res := r.resources[k]
		if res.TemplateURI == "" {
			continue
		}
		if params, ok := matchFn(res.TemplateURI, uri); ok {
			return res, params, true
		}
	}
	return Resource{}, nil, false
}
