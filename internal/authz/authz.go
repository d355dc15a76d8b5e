// Package authz holds the declarative role -> permission table consulted
// once per request by the Require middleware.
package authz

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed permissions.yaml
var permissionsYAML []byte

// Table answers whether a role holds a permission.
type Table struct {
	grants map[string]map[string]bool
}

// Load parses the embedded permission table.
func Load() (*Table, error) {
	return parse(permissionsYAML)
}

func parse(raw []byte) (*Table, error) {
	var doc struct {
		Roles map[string][]string `yaml:"roles"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse permission table: %w", err)
	}

	if len(doc.Roles) == 0 {
		return nil, fmt.Errorf("permission table declares no roles")
	}

	grants := make(map[string]map[string]bool, len(doc.Roles))
	for role, perms := range doc.Roles {
		set := make(map[string]bool, len(perms))
		for _, p := range perms {
			set[p] = true
		}
		grants[role] = set
	}

	return &Table{grants: grants}, nil
}

// Allowed reports whether role holds permission. Unknown roles hold
// nothing.
func (t *Table) Allowed(role, permission string) bool {
	return t.grants[role][permission]
}

// Roles lists every role the table knows.
func (t *Table) Roles() []string {
	roles := make([]string, 0, len(t.grants))
	for role := range t.grants {
		roles = append(roles, role)
	}
	return roles
}
