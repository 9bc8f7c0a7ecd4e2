package guard

import (
	"github.com/aussiebroadwan/tokentrust/internal/authz"
)

// Decision is the outcome of an authorization check.
type Decision bool

const (
	Deny   Decision = false
	Permit Decision = true
)

func (d Decision) String() string {
	if d {
		return "permit"
	}
	return "deny"
}

// Scope names understood by the default rule table.
const (
	ScopeRead   = "read"
	ScopeWrite  = "write"
	ScopeDelete = "delete"
	ScopeAdmin  = "admin"
)

// Rule permits a principal when it holds any of Roles. An empty Roles list
// permits every authenticated principal.
type Rule struct {
	Roles []string
}

func (r Rule) permits(p *Principal) bool {
	if len(r.Roles) == 0 {
		return true
	}
	return authz.HasAnyRole(p.Roles, r.Roles...)
}

// DefaultRules is the read/write/delete/admin table.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		ScopeRead:   {},
		ScopeWrite:  {Roles: []string{authz.RoleUser, authz.RoleAdmin}},
		ScopeDelete: {Roles: []string{authz.RoleAdmin}},
		ScopeAdmin:  {Roles: []string{authz.RoleAdmin}},
	}
}

// Enforcer maps a verified principal and a required scope to a Decision.
type Enforcer struct {
	rules map[string]Rule
}

// NewEnforcer uses rules, or DefaultRules when rules is nil.
func NewEnforcer(rules map[string]Rule) *Enforcer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Enforcer{rules: rules}
}

// Authorize denies nil principals and unknown scopes.
func (e *Enforcer) Authorize(p *Principal, required string) Decision {
	if p == nil {
		return Deny
	}
	rule, ok := e.rules[required]
	if !ok {
		return Deny
	}
	return Decision(rule.permits(p))
}
