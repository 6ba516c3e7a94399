// Package template implements the URI template engine (mcpcore §4.3):
// grammar parsing, matching, extraction, expansion, and a bounded parsed-
// template cache.
//
// Grammar forms recognized inside `{...}` placeholders:
//
//	{name}               required, type=string
//	{name?}              optional, no default
//	{name=literal}        optional, default=literal
//	{name:type}           required, typed (int|float|bool|string)
//	{name:type[min,max]}  typed with an inclusive numeric range
//	{name:pattern:glob}   required, glob with * wildcard (prefix/suffix/contains/exact)
//	{name:type=default}   typed + default
//	{name:type?}          typed + optional
package template

import (
	"fmt"
	"strconv"
	"strings"
)

// ParamType is the declared type of a placeholder's captured value.
type ParamType int

const (
	TypeString ParamType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypePattern
)

func (t ParamType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypePattern:
		return "pattern"
	default:
		return "string"
	}
}

// Validation describes one placeholder's type, optionality, default, and
// (for typed numeric placeholders) range, or (for pattern placeholders) the
// glob to match against.
type Validation struct {
	Name       string
	Type       ParamType
	Required   bool
	HasDefault bool
	Default    string
	Pattern    string // glob, only meaningful when Type == TypePattern
	HasRange   bool
	Min, Max   float64
}

// Parsed is a parsed template: alternating static text and placeholders.
// Invariant: len(StaticParts) == len(ParamNames) + 1; adjacent static parts
// are joined by exactly one parameter slot.
type Parsed struct {
	TemplateURI string
	StaticParts []string
	ParamNames  []string
	Validations []Validation
}

// ParseError reports why a template string failed to parse. Parse failures
// never poison the cache (see Cache.Lookup).
type ParseError struct {
	Template string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("template: parse %q: %s", e.Template, e.Reason)
}

// Parse compiles a template string into its static/placeholder structure.
// Returns a *ParseError (as error) on malformed grammar.
func Parse(tpl string) (*Parsed, error) {
	p := &Parsed{TemplateURI: tpl}

	var staticBuf strings.Builder
	i := 0
	for i < len(tpl) {
		c := tpl[i]
		if c == '{' {
			end := strings.IndexByte(tpl[i:], '}')
			if end < 0 {
				return nil, &ParseError{Template: tpl, Reason: "unterminated placeholder"}
			}
			end += i
			content := tpl[i+1 : end]
			if content == "" {
				return nil, &ParseError{Template: tpl, Reason: "empty placeholder"}
			}
			v, err := parsePlaceholder(content)
			if err != nil {
				return nil, &ParseError{Template: tpl, Reason: err.Error()}
			}
			p.StaticParts = append(p.StaticParts, staticBuf.String())
			staticBuf.Reset()
			p.ParamNames = append(p.ParamNames, v.Name)
			p.Validations = append(p.Validations, v)
			i = end + 1
			continue
		}
		staticBuf.WriteByte(c)
		i++
	}
	p.StaticParts = append(p.StaticParts, staticBuf.String())

	if len(p.StaticParts) != len(p.ParamNames)+1 {
		return nil, &ParseError{Template: tpl, Reason: "static/param count invariant violated"}
	}
	return p, nil
}

// parsePlaceholder parses the content between { and } of one placeholder.
func parsePlaceholder(content string) (Validation, error) {
	// Pattern form: name:pattern:glob
	if idx := strings.Index(content, ":pattern:"); idx >= 0 {
		name := content[:idx]
		glob := content[idx+len(":pattern:"):]
		if name == "" || glob == "" {
			return Validation{}, fmt.Errorf("malformed pattern placeholder %q", content)
		}
		return Validation{Name: name, Type: TypePattern, Required: true, Pattern: glob}, nil
	}

	colonIdx := strings.IndexByte(content, ':')
	if colonIdx < 0 {
		// Untyped forms: name | name? | name=literal
		return parseUntyped(content)
	}

	name := content[:colonIdx]
	rest := content[colonIdx+1:]
	if name == "" {
		return Validation{}, fmt.Errorf("missing placeholder name in %q", content)
	}
	return parseTyped(name, rest)
}

func parseUntyped(content string) (Validation, error) {
	if content == "" {
		return Validation{}, fmt.Errorf("empty placeholder name")
	}
	if strings.HasSuffix(content, "?") {
		name := strings.TrimSuffix(content, "?")
		if name == "" {
			return Validation{}, fmt.Errorf("empty placeholder name")
		}
		return Validation{Name: name, Type: TypeString, Required: false}, nil
	}
	if idx := strings.IndexByte(content, '='); idx >= 0 {
		name := content[:idx]
		def := content[idx+1:]
		if name == "" {
			return Validation{}, fmt.Errorf("empty placeholder name")
		}
		return Validation{Name: name, Type: TypeString, Required: false, HasDefault: true, Default: def}, nil
	}
	return Validation{Name: content, Type: TypeString, Required: true}, nil
}

// parseTyped handles the content after "name:" for typed placeholders:
// type | type? | type=default | type[min,max] | type[min,max]? | type[min,max]=default
func parseTyped(name, rest string) (Validation, error) {
	typeWord := rest
	suffix := ""
	for idx, c := range rest {
		if c == '?' || c == '=' || c == '[' {
			typeWord = rest[:idx]
			suffix = rest[idx:]
			break
		}
	}

	pt, err := parseTypeWord(typeWord)
	if err != nil {
		return Validation{}, err
	}

	v := Validation{Name: name, Type: pt, Required: true}

	if strings.HasPrefix(suffix, "[") {
		closeIdx := strings.IndexByte(suffix, ']')
		if closeIdx < 0 {
			return Validation{}, fmt.Errorf("malformed range in %q", suffix)
		}
		rangeBody := suffix[1:closeIdx]
		parts := strings.SplitN(rangeBody, ",", 2)
		if len(parts) != 2 {
			return Validation{}, fmt.Errorf("malformed range %q, want min,max", rangeBody)
		}
		min, errMin := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		max, errMax := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errMin != nil || errMax != nil {
			return Validation{}, fmt.Errorf("malformed range bounds %q", rangeBody)
		}
		v.HasRange = true
		v.Min, v.Max = min, max
		suffix = suffix[closeIdx+1:]
	}

	switch {
	case suffix == "":
		v.Required = true
	case suffix == "?":
		v.Required = false
	case strings.HasPrefix(suffix, "="):
		v.Required = false
		v.HasDefault = true
		v.Default = suffix[1:]
	default:
		return Validation{}, fmt.Errorf("malformed placeholder suffix %q", suffix)
	}
	return v, nil
}

func parseTypeWord(w string) (ParamType, error) {
	switch w {
	case "string", "":
		return TypeString, nil
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "bool":
		return TypeBool, nil
	default:
		return 0, fmt.Errorf("unknown type %q", w)
	}
}
