package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	table, err := Load()
	require.NoError(t, err)
	assert.Len(t, table.Roles(), 5)
}

func TestTable_Allowed(t *testing.T) {
	table, err := Load()
	require.NoError(t, err)

	tests := []struct {
		role       string
		permission string
		want       bool
	}{
		{"owner", "wholesale:write", true},
		{"owner", "packages:write", true},
		{"admin", "products:write", true},
		{"admin", "wholesale:write", false},
		{"partner", "products:read", true},
		{"partner", "products:write", false},
		{"partner", "stocks:write", true},
		{"seller", "packages:read", true},
		{"seller", "packages:write", false},
		{"reseller", "packages:read", true},
		{"reseller", "wholesale:read", false},
		{"ghost", "products:read", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, table.Allowed(tt.role, tt.permission),
			"Allowed(%q, %q)", tt.role, tt.permission)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := parse([]byte("roles: {}"))
	assert.Error(t, err)

	_, err = parse([]byte(":::"))
	assert.Error(t, err)
}
