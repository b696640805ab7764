package domain

import "context"

// Implication records one target a genotype implicates and the alleles on the path.
type Implication struct {
	Target Target
	Basis  string
	Via    []Allele
}

// Assessment is the genotype-level outcome of target implication.
// Exactly one of Implicated, Ambiguous or Exhausted is meaningful.
type Assessment struct {
	Implicated []Implication
	Ambiguous  string
	Exhausted  bool
}

// Implicates reports whether t is among the implicated targets.
func (a *Assessment) Implicates(t Target) bool {
	if a == nil {
		return false
	}
	for _, imp := range a.Implicated {
		if imp.Target.Kind == t.Kind && imp.Target.Key == t.Key {
			return true
		}
	}
	return false
}

// Tuple is the unit rules evaluate: one candidate along one path to a target.
// Target is zero for genotype-level tuples that implicate nothing.
type Tuple struct {
	Variant    Variant
	Candidate  *Candidate
	Assessment *Assessment
	Target     Target
	Basis      string
	Via        []Allele
}

// Rule is a named predicate over a tuple.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, tuple Tuple) (Result, error)
}

// RulesEngine evaluates registered rules conjunctively.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine. Registration order is diagnostic order.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns the registered rule names in order.
func (e *RulesEngine) Rules() []string {
	names := make([]string, 0, len(e.rules))
	for _, r := range e.rules {
		names = append(names, r.Name())
	}
	return names
}

// Evaluate executes every registered rule and aggregates their violations.
// All rules run even after one fails so every failing reason is reported.
func (e *RulesEngine) Evaluate(ctx context.Context, tuple Tuple) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, tuple)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule   string
	Reason string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Fail returns a single-violation result.
func Fail(rule, reason string) Result {
	return Result{Violations: []Violation{{Rule: rule, Reason: reason}}}
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// Passed reports whether no rule failed.
func (r Result) Passed() bool { return len(r.Violations) == 0 }

// Primary returns the first violation in rule declaration order.
func (r Result) Primary() (Violation, bool) {
	if len(r.Violations) == 0 {
		return Violation{}, false
	}
	return r.Violations[0], true
}
