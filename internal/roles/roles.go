// Package roles holds the static role→capability table. The table is
// declared with inheritance edges and flattened once at startup;
// lookups afterwards are plain map reads.
package roles

import (
	"fmt"
)

type Scope string

const (
	ScopeOwn Scope = "own"
	ScopeAny Scope = "any"
)

type Grant struct {
	Action   string
	Resource string
	Scope    Scope
}

type roleDef struct {
	extends []string
	grants  []Grant
}

// table mirrors the school's access policy: pupils manage their own
// profile, teachers can additionally read anyone's profile and publish
// notes, admins manage the whole catalog.
var table = map[string]roleDef{
	"basic": {
		grants: []Grant{
			{"read", "profile", ScopeOwn},
		},
	},
	"pupil": {
		extends: []string{"basic"},
		grants: []Grant{
			{"update", "profile", ScopeOwn},
		},
	},
	"teacher": {
		extends: []string{"basic", "pupil"},
		grants: []Grant{
			{"read", "profile", ScopeAny},
			{"create", "note", ScopeAny},
		},
	},
	"admin": {
		extends: []string{"basic", "pupil", "teacher"},
		grants: []Grant{
			{"update", "profile", ScopeAny},
			{"delete", "profile", ScopeAny},
			{"create", "department", ScopeAny},
			{"update", "department", ScopeAny},
			{"delete", "department", ScopeAny},
			{"create", "instrument", ScopeAny},
			{"update", "instrument", ScopeAny},
			{"delete", "instrument", ScopeAny},
			{"update", "note", ScopeAny},
			{"delete", "note", ScopeAny},
		},
	},
}

type grantKey struct {
	action   string
	resource string
}

// Table is the flattened policy: role → (action, resource) → widest scope.
type Table map[string]map[grantKey]Scope

// Resolve flattens the inheritance graph into a Table. It fails if a
// role extends an unknown role or the graph has a cycle.
func Resolve() (Table, error) {
	return resolve(table)
}

func resolve(defs map[string]roleDef) (Table, error) {
	resolved := Table{}
	for name := range defs {
		grants := map[grantKey]Scope{}
		if err := collect(defs, name, grants, map[string]bool{}); err != nil {
			return nil, err
		}
		resolved[name] = grants
	}
	return resolved, nil
}

func collect(defs map[string]roleDef, name string, into map[grantKey]Scope, visiting map[string]bool) error {
	if visiting[name] {
		return fmt.Errorf("role inheritance cycle through %q", name)
	}
	def, ok := defs[name]
	if !ok {
		return fmt.Errorf("unknown role %q", name)
	}

	visiting[name] = true
	for _, parent := range def.extends {
		if err := collect(defs, parent, into, visiting); err != nil {
			return err
		}
	}
	visiting[name] = false

	for _, g := range def.grants {
		key := grantKey{g.Action, g.Resource}
		// "any" wins over an inherited "own" grant
		if cur, ok := into[key]; !ok || cur == ScopeOwn {
			into[key] = g.Scope
		}
	}
	return nil
}

// Can reports whether role may perform action on resource and with
// which scope.
func (t Table) Can(role, action, resource string) (Scope, bool) {
	grants, ok := t[role]
	if !ok {
		return "", false
	}
	scope, ok := grants[grantKey{action, resource}]
	return scope, ok
}

// Known reports whether role exists in the policy at all.
func (t Table) Known(role string) bool {
	_, ok := t[role]
	return ok
}
