package template

import "strings"

// Expand produces a concrete URI from p and a key→value map. Fails with a
// *ValidationError wrapping ErrMissingRequired if a required placeholder has
// no value, or ErrTypeMismatch if a supplied value fails type validation.
func Expand(p *Parsed, params map[string]any) (string, error) {
	var b strings.Builder
	for i, name := range p.ParamNames {
		b.WriteString(p.StaticParts[i])

		v := p.Validations[i]
		val, present := params[name]
		if !present {
			if v.Required {
				return "", &ValidationError{Param: name, Err: ErrMissingRequired}
			}
			if v.HasDefault {
				b.WriteString(v.Default)
			}
			continue
		}

		rendered, err := stringify(v, val)
		if err != nil {
			return "", err
		}
		b.WriteString(rendered)
	}
	b.WriteString(p.StaticParts[len(p.StaticParts)-1])
	return b.String(), nil
}
