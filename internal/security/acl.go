// Package security implements mcpcore's per-template access control (§4.8):
// a role-set ACL plus validator hooks consulted before a template-addressed
// resource read is served.
package security

import "sync"

// Validator checks whether params extracted from templateURI are allowed
// for userData (the caller's role, or any opaque identity value a future
// authentication layer supplies).
type Validator func(templateURI string, params map[string]any, userData any) bool

const wildcardRole = "*"

// entry is one template's ACL registration. Registered distinguishes "no
// ACL entry at all" (fully permissive) from "entry exists, role set empty"
// (deny-all) — the two collapse to the same zero value otherwise.
type entry struct {
	registered bool
	roles      map[string]struct{}
	validator  Validator
}

func (e *entry) rolesAllow(role string) bool {
	if len(e.roles) == 0 {
		return false // registered with an empty role set: deny-all
	}
	if _, ok := e.roles[wildcardRole]; ok {
		return true
	}
	if role == "" {
		return false
	}
	_, ok := e.roles[role]
	return ok
}

// ACL is mcpcore's template access-control list. The zero value is usable:
// every template is fully permissive until Register is called for it.
type ACL struct {
	mu               sync.RWMutex
	entries          map[string]*entry
	defaultValidator Validator
}

// New constructs an empty ACL.
func New() *ACL {
	return &ACL{entries: make(map[string]*entry)}
}

// Register binds templateURI's allowed roles. An empty roles slice
// registers the template as deny-all (see REFINEMENTS (a)); a roles slice
// containing "*" makes the role check always pass. Calling Register
// overwrites any previous role set for templateURI but leaves its
// per-template validator (if set separately) untouched.
func (a *ACL) Register(templateURI string, roles []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e := a.entries[templateURI]
	if e == nil {
		e = &entry{}
		a.entries[templateURI] = e
	}
	e.registered = true
	e.roles = make(map[string]struct{}, len(roles))
	for _, r := range roles {
		e.roles[r] = struct{}{}
	}
}

// SetValidator installs a per-template validator, consulted after the role
// check passes. A nil validator clears it, falling back to the default
// validator (if any).
func (a *ACL) SetValidator(templateURI string, v Validator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e := a.entries[templateURI]
	if e == nil {
		e = &entry{}
		a.entries[templateURI] = e
	}
	e.validator = v
}

// SetDefaultValidator installs the validator consulted for templates with
// no per-template validator of their own.
func (a *ACL) SetDefaultValidator(v Validator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.defaultValidator = v
}

// Unregister removes templateURI's ACL entry entirely, reverting it to
// fully permissive.
func (a *ACL) Unregister(templateURI string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.entries, templateURI)
}

// Authorize implements dispatcher.TemplateSecurity (mcpcore §4.8 check
// order): role check first, then the template-specific validator if set
// else the default validator; fully permissive if no ACL is registered for
// templateURI and no default validator is set.
func (a *ACL) Authorize(templateURI, role string, params map[string]any) bool {
	a.mu.RLock()
	e, ok := a.entries[templateURI]
	defaultValidator := a.defaultValidator
	a.mu.RUnlock()

	if !ok || !e.registered {
		if defaultValidator != nil {
			return defaultValidator(templateURI, params, role)
		}
		return true
	}

	if !e.rolesAllow(role) {
		return false
	}

	if e.validator != nil {
		return e.validator(templateURI, params, role)
	}
	if defaultValidator != nil {
		return defaultValidator(templateURI, params, role)
	}
	return true
}
