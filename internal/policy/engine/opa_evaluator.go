// Package engine evaluates dashboard access policy with OPA Rego. The
// policy lives in one module so role rules can be changed without
// touching handler code.
package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	userdomain "txdash/internal/user/domain"
)

const policyPackage = "txdash.access"

// Default Rego policy: every authenticated user may read and mutate
// transactions and manage their own presets; the audit trail is
// admin-only.
const defaultRegoPolicy = `package txdash.access

default allow = false

allow if {
	input.action == "transactions:read"
	input.user.id != ""
}

allow if {
	input.action == "transactions:write"
	input.user.id != ""
}

allow if {
	input.action == "presets:manage"
	input.user.id != ""
}

allow if {
	input.action == "audit:read"
	input.user.role == "ADMIN"
}
`

// OPAEvaluator evaluates access policy using the in-process OPA engine.
type OPAEvaluator struct {
	compiler *ast.Compiler
}

// NewOPAEvaluator compiles the access policy. rules may be empty, in
// which case the default policy applies.
func NewOPAEvaluator(rules string) (*OPAEvaluator, error) {
	if rules == "" {
		rules = defaultRegoPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"access.rego": rules})
	if err != nil {
		return nil, fmt.Errorf("compile access policy: %w", err)
	}
	return &OPAEvaluator{compiler: compiler}, nil
}

// HealthCheck verifies the compiled policy evaluates. Returns nil on
// success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.eval(ctx, map[string]interface{}{
		"action": ActionReadTransactions,
		"user":   map[string]interface{}{"id": "", "role": ""},
	})
	return err
}

// Allow reports whether user may perform action. A nil user is
// anonymous and denied everything.
func (e *OPAEvaluator) Allow(ctx context.Context, user *userdomain.User, action string) (bool, error) {
	userMap := map[string]interface{}{"id": "", "role": ""}
	if user != nil {
		userMap["id"] = user.ID
		userMap["role"] = string(user.Role)
	}
	return e.eval(ctx, map[string]interface{}{
		"action": action,
		"user":   userMap,
	})
}

func (e *OPAEvaluator) eval(ctx context.Context, input map[string]interface{}) (bool, error) {
	q := rego.New(
		rego.Query("data."+policyPackage+".allow"),
		rego.Compiler(e.compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval access policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("access policy query returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("access policy returned non-boolean")
	}
	return allowed, nil
}
