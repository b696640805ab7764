package domain

import (
	"context"
	"errors"
	"testing"
)

func TestResultMergeAndPrimary(t *testing.T) {
	var result Result
	if !result.Passed() {
		t.Fatalf("expected empty result to pass")
	}
	if _, ok := result.Primary(); ok {
		t.Fatalf("expected no primary violation")
	}
	result.Merge(Fail("first", "a"))
	result.Merge(Result{})
	result.Merge(Fail("second", "b"))
	if result.Passed() {
		t.Fatalf("expected failure")
	}
	primary, ok := result.Primary()
	if !ok || primary.Rule != "first" {
		t.Fatalf("expected first violation to be primary, got %+v", primary)
	}
	if len(result.Violations) != 2 {
		t.Fatalf("expected two violations, got %d", len(result.Violations))
	}
}

func TestRulesEngineEvaluatesAllRules(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{name: "pass"})
	engine.Register(staticRule{name: "one", fail: true})
	engine.Register(staticRule{name: "two", fail: true})
	res, err := engine.Evaluate(context.Background(), Tuple{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 2 || res.Violations[0].Rule != "one" || res.Violations[1].Rule != "two" {
		t.Fatalf("unexpected violations %+v", res.Violations)
	}
	names := engine.Rules()
	if len(names) != 3 || names[0] != "pass" {
		t.Fatalf("unexpected rule names %v", names)
	}
}

func TestRulesEnginePropagatesError(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{name: "boom", err: errors.New("boom")})
	if _, err := engine.Evaluate(context.Background(), Tuple{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestAssessmentImplicates(t *testing.T) {
	m := Marker{Key: 7, Accession: "MGI:7"}
	a := &Assessment{Implicated: []Implication{{Target: MarkerTarget(m)}}}
	if !a.Implicates(MarkerTarget(m)) {
		t.Fatalf("expected marker implicated")
	}
	if a.Implicates(Target{Kind: TargetAllele, Key: 7}) {
		t.Fatalf("kind must be part of identity")
	}
	var nilAssessment *Assessment
	if nilAssessment.Implicates(MarkerTarget(m)) {
		t.Fatalf("nil assessment implicates nothing")
	}
}

type staticRule struct {
	name string
	fail bool
	err  error
}

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(context.Context, Tuple) (Result, error) {
	if r.err != nil {
		return Result{}, r.err
	}
	if r.fail {
		return Fail(r.name, "static"), nil
	}
	return Result{}, nil
}
