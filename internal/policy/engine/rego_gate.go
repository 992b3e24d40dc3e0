// Package engine evaluates optional per-area custom access rules written in
// OPA Rego. Areas without custom rules skip the gate entirely.
package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const rulesPackage = "facility.access"

// RuleInput is the document handed to custom rules as `input`.
type RuleInput struct {
	UserID       string `json:"user_id"`
	DeviceID     string `json:"device_id"`
	AreaID       string `json:"area_id"`
	Direction    string `json:"direction"`
	VerifyMethod string `json:"verify_method"`
	Hour         int    `json:"hour"`
	Weekday      int    `json:"weekday"` // 1=Monday..7=Sunday
}

// RegoGate compiles and evaluates per-area Rego deny rules. Rules live in the
// area ext config; an area with empty rules always passes. Compile or eval
// failure fails open with a warning, consistent with the other advisory gates.
type RegoGate struct{}

// NewRegoGate returns a custom-rules gate.
func NewRegoGate() *RegoGate {
	return &RegoGate{}
}

// HealthCheck verifies the in-process Rego engine can compile and evaluate a
// trivial deny rule. Returns nil on success.
func (g *RegoGate) HealthCheck(ctx context.Context) error {
	module := "package " + rulesPackage + "\n\ndefault deny = false\n"
	allowed, err := g.eval(ctx, module, RuleInput{})
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("trivial policy denied")
	}
	return nil
}

// Allows evaluates the area's custom rules against the attempt input.
// Returns true when rules is empty, when no deny rule fires, or when the
// rules cannot be compiled or evaluated (fail open, logged).
func (g *RegoGate) Allows(ctx context.Context, rules string, input RuleInput) bool {
	if rules == "" {
		return true
	}
	allowed, err := g.eval(ctx, rules, input)
	if err != nil {
		log.Printf("policy: custom rules for area %s unusable, allowing: %v", input.AreaID, err)
		return true
	}
	return allowed
}

func (g *RegoGate) eval(ctx context.Context, module string, input RuleInput) (bool, error) {
	compiler, err := ast.CompileModules(map[string]string{"area_rules.rego": module})
	if err != nil {
		return false, fmt.Errorf("compile custom rules: %w", err)
	}

	q := rego.New(
		rego.Query("data."+rulesPackage+".deny"),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval custom rules: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		// No deny rule defined in the module; treat as allow.
		return true, nil
	}
	deny, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("custom rules: deny is not boolean")
	}
	return !deny, nil
}
