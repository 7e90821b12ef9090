package storage

import "fmt"

// Logical table names recognized by the backends
const (
	TableClients                 = "clients"
	TableClientEndpoints         = "client_endpoints"
	TableTokens                  = "tokens"
	TableTokenScopes             = "token_scopes"
	TableAuthorizationCodes      = "authorization_codes"
	TableAuthorizationCodeScopes = "authorization_code_scopes"
	TableScopes                  = "scopes"
)

var logicalTables = []string{
	TableClients,
	TableClientEndpoints,
	TableTokens,
	TableTokenScopes,
	TableAuthorizationCodes,
	TableAuthorizationCodeScopes,
	TableScopes,
}

// Tables maps logical table names to physical table names (or key prefixes)
type Tables map[string]string

// DefaultTables returns the default mapping: every logical name prefixed with "oauth_"
func DefaultTables() Tables {
	t := make(Tables, len(logicalTables))
	for _, name := range logicalTables {
		t[name] = "oauth_" + name
	}
	return t
}

// Merge returns a copy of t with overrides applied.
// Unknown logical names are rejected.
func (t Tables) Merge(overrides map[string]string) (Tables, error) {
	merged := make(Tables, len(t))
	for k, v := range t {
		merged[k] = v
	}
	for k, v := range overrides {
		if !isLogicalTable(k) {
			return nil, fmt.Errorf("unknown table %q", k)
		}
		if v == "" {
			return nil, fmt.Errorf("table %q mapped to empty name", k)
		}
		merged[k] = v
	}
	return merged, nil
}

// Name returns the physical name of a logical table, falling back to the default
func (t Tables) Name(logical string) string {
	if name, ok := t[logical]; ok && name != "" {
		return name
	}
	return "oauth_" + logical
}

func isLogicalTable(name string) bool {
	for _, l := range logicalTables {
		if l == name {
			return true
		}
	}
	return false
}
