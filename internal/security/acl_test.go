package security

import "testing"

func TestUnregisteredTemplateIsPermissive(t *testing.T) {
	a := New()
	if !a.Authorize("file:///{path}", "", nil) {
		t.Fatal("expected unregistered template to be permissive")
	}
}

func TestRegisteredEmptyRoleSetDeniesAll(t *testing.T) {
	a := New()
	a.Register("file:///{path}", nil)
	if a.Authorize("file:///{path}", "admin", nil) {
		t.Fatal("expected registered-empty role set to deny all")
	}
	if a.Authorize("file:///{path}", "", nil) {
		t.Fatal("expected registered-empty role set to deny all, including anonymous")
	}
}

func TestWildcardRoleAllowsAnyCaller(t *testing.T) {
	a := New()
	a.Register("file:///{path}", []string{"*"})
	if !a.Authorize("file:///{path}", "", nil) {
		t.Fatal("expected wildcard role set to allow anonymous caller")
	}
	if !a.Authorize("file:///{path}", "nobody", nil) {
		t.Fatal("expected wildcard role set to allow any role")
	}
}

func TestRoleCheckDeniesMissingRole(t *testing.T) {
	a := New()
	a.Register("file:///{path}", []string{"admin"})
	if a.Authorize("file:///{path}", "", nil) {
		t.Fatal("expected deny for absent role against non-empty role set")
	}
	if a.Authorize("file:///{path}", "guest", nil) {
		t.Fatal("expected deny for non-matching role")
	}
	if !a.Authorize("file:///{path}", "admin", nil) {
		t.Fatal("expected allow for matching role")
	}
}

func TestPerTemplateValidatorConsultedAfterRoleCheck(t *testing.T) {
	a := New()
	a.Register("file:///{path}", []string{"admin"})
	a.SetValidator("file:///{path}", func(tpl string, params map[string]any, userData any) bool {
		return params["path"] == "allowed.txt"
	})

	if a.Authorize("file:///{path}", "guest", map[string]any{"path": "allowed.txt"}) {
		t.Fatal("role check should deny before the validator ever runs")
	}
	if a.Authorize("file:///{path}", "admin", map[string]any{"path": "secret.txt"}) {
		t.Fatal("expected validator to deny a disallowed path")
	}
	if !a.Authorize("file:///{path}", "admin", map[string]any{"path": "allowed.txt"}) {
		t.Fatal("expected validator to allow an explicitly permitted path")
	}
}

func TestDefaultValidatorAppliesWhenNoACLRegistered(t *testing.T) {
	a := New()
	a.SetDefaultValidator(func(tpl string, params map[string]any, userData any) bool {
		return tpl == "file:///{path}"
	})
	if !a.Authorize("file:///{path}", "", nil) {
		t.Fatal("expected default validator to allow a matching template")
	}
	if a.Authorize("other:///{id}", "", nil) {
		t.Fatal("expected default validator to deny a non-matching template")
	}
}

func TestUnregisterRevertsToPermissive(t *testing.T) {
	a := New()
	a.Register("file:///{path}", nil)
	if a.Authorize("file:///{path}", "admin", nil) {
		t.Fatal("expected deny before unregister")
	}
	a.Unregister("file:///{path}")
	if !a.Authorize("file:///{path}", "admin", nil) {
		t.Fatal("expected permissive after unregister")
	}
}
