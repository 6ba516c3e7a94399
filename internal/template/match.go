package template

// Match reports whether uri is derivable from p under the template grammar,
// without surfacing extracted values. Per mcpcore §8's round-trip property,
// Match(uri, tpl) == (Extract(uri, tpl) != null).
func Match(p *Parsed, uri string) bool {
	_, err := Extract(p, uri)
	return err == nil
}
