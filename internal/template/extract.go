package template

import "strings"

// Extract walks uri left-to-right against p's static parts and placeholders.
// For each placeholder, it locates the next static part by a bytewise search
// in the remaining URI, greedily taking the leftmost occurrence (not the
// longest match); the slice between the cursor and that match is the
// captured raw value, which is then type-validated and coerced. An empty
// static part matches end-of-string. Returns nil on any failure — partial
// state is never visible to the caller.
func Extract(p *Parsed, uri string) (map[string]any, error) {
	if len(p.StaticParts) == 0 {
		return nil, &ParseError{Template: p.TemplateURI, Reason: "empty template"}
	}

	remaining := uri
	if !strings.HasPrefix(remaining, p.StaticParts[0]) {
		return nil, &ValidationError{Param: "", Err: ErrTypeMismatch}
	}
	remaining = remaining[len(p.StaticParts[0]):]

	result := make(map[string]any, len(p.ParamNames))
	for i, name := range p.ParamNames {
		nextStatic := p.StaticParts[i+1]
		var raw string

		if nextStatic == "" {
			// Empty static part matches end-of-string: the rest of the URI
			// (if this is the last placeholder) or, for a mid-template empty
			// static part, the shortest possible greedy capture of nothing.
			if i == len(p.ParamNames)-1 {
				raw = remaining
				remaining = ""
			} else {
				raw = ""
			}
		} else {
			idx := strings.Index(remaining, nextStatic)
			if idx < 0 {
				return nil, &ValidationError{Param: name, Err: ErrTypeMismatch}
			}
			raw = remaining[:idx]
			remaining = remaining[idx+len(nextStatic):]
		}

		v := p.Validations[i]

		// An empty capture is a miss for a required placeholder even when
		// the declared type would otherwise happily coerce "" (TypeString,
		// or TypePattern against a glob that matches the empty string).
		if raw == "" && v.Required {
			return nil, &ValidationError{Param: name, Err: ErrMissingRequired}
		}

		val, err := coerce(v, raw)
		if err != nil {
			if raw == "" && !v.Required {
				if v.HasDefault {
					defVal, derr := coerce(v, v.Default)
					if derr != nil {
						return nil, derr
					}
					result[name] = defVal
					continue
				}
				continue
			}
			return nil, err
		}
		result[name] = val
	}

	if remaining != "" {
		return nil, &ValidationError{Param: "", Err: ErrTypeMismatch}
	}
	return result, nil
}
