package clojuredart

import (
	"strings"
	"testing"
)

// classEmitFor analyzes src then returns the Dart text of the one
// synthesized invoke-style class it produced, found by scanning the
// namespace's definitions for the first KindClass entry.
func classEmitFor(t *testing.T, src string) string {
	t.Helper()
	reg, an := newTestPipeline()
	analyzeSource(t, an, reg, "app.core", src)
	ns, _ := reg.Namespace("app.core")
	for _, name := range ns.DefOrder {
		def := ns.Definitions[name]
		if def != nil && def.Kind == KindClass {
			return def.Emitted
		}
	}
	t.Fatal("expected a synthesized class definition")
	return ""
}

func Test_Functions_MultiArity_InvokeExtN_Selection(t *testing.T) {
	params12 := "[a0 a1 a2 a3 a4 a5 a6 a7 a8 a9 a10 a11]"
	src := `(def f (fn* ([x] x) (` + params12 + ` a0)))`
	out := classEmitFor(t, src)

	extMethod := Mangle("-invoke$ext12")
	if !strings.Contains(out, "dynamic "+extMethod+"(") {
		t.Fatalf("expected an %s method, got:\n%s", extMethod, out)
	}
	plainInvoke := Mangle("-invoke")
	// The unary clause must be folded into -invoke's own optional-positional
	// parameter, not declared as a second same-named method (Dart has no
	// overloading): exactly one declaration of -invoke, with an optional a0
	// slot rather than a fixed one.
	if strings.Count(out, "dynamic "+plainInvoke+"(") != 1 {
		t.Fatalf("expected exactly one %s method declaration, got:\n%s", plainInvoke, out)
	}
	if !strings.Contains(out, "dynamic "+plainInvoke+"([dynamic a0 = ") {
		t.Fatalf("expected %s to declare a0 as an optional positional parameter, got:\n%s", plainInvoke, out)
	}

	moreMethod := Mangle("-invoke-more")
	if !strings.Contains(out, moreMethod) {
		t.Fatalf("expected an %s overflow method, got:\n%s", moreMethod, out)
	}
	// -invoke-more must redispatch to -invoke$ext12 by testing the packed
	// rest list's actual runtime length (12 - (InvokeThreshold-1) = 3), not
	// a hardcoded arity.
	if !strings.Contains(out, "length)==(3)") {
		t.Fatalf("expected -invoke-more to test more.length == 3, got:\n%s", out)
	}
	if !strings.Contains(out, extMethod+"(") {
		t.Fatalf("expected -invoke-more's match branch to call %s, got:\n%s", extMethod, out)
	}
	// no variadic clause here, so -invoke-more's fallback must throw rather
	// than redispatch to a vararg method that doesn't exist.
	if !strings.Contains(out, "throw ") {
		t.Fatalf("expected a throw fallback when no arity matches, got:\n%s", out)
	}
}

func Test_Functions_InvokeMore_RedispatchesToVararg(t *testing.T) {
	src := `(def f (fn* [x & more] more))`
	out := classEmitFor(t, src)

	varargMethod := Mangle("-invoke$vararg")
	moreMethod := Mangle("-invoke-more")
	if !strings.Contains(out, varargMethod) {
		t.Fatalf("expected a %s method, got:\n%s", varargMethod, out)
	}
	if !strings.Contains(out, moreMethod) {
		t.Fatalf("expected an %s overflow method, got:\n%s", moreMethod, out)
	}
	// With only a variadic clause and no ext arities, -invoke-more's body
	// must unpack by concatenating its own positionals past the variadic
	// clause's base arity with the packed rest, via followedBy/toList, then
	// hand the result to -invoke$vararg.
	if !strings.Contains(out, ".followedBy(more)") {
		t.Fatalf("expected a followedBy(more) concatenation, got:\n%s", out)
	}
	if !strings.Contains(out, ".toList()") {
		t.Fatalf("expected a toList() call after followedBy, got:\n%s", out)
	}
	if !strings.Contains(out, varargMethod+"(") {
		t.Fatalf("expected -invoke-more to call %s, got:\n%s", varargMethod, out)
	}
	moreText := out
	if start := strings.Index(out, "dynamic "+moreMethod+"("); start >= 0 {
		moreText = out[start:]
		if end := strings.Index(moreText, "dynamic "+Mangle("call")+"("); end >= 0 {
			moreText = moreText[:end]
		}
	}
	if strings.Contains(moreText, "throw ") {
		t.Fatalf("a variadic clause means -invoke-more must not fall back to a throw, got:\n%s", out)
	}
}

func Test_Functions_Call_SentinelCascade_DescendingPriority(t *testing.T) {
	src := `(def f (fn* ([x] x) ([x y] y)))`
	out := classEmitFor(t, src)

	callMethod := Mangle("call")
	if !strings.Contains(out, "dynamic "+callMethod+"(") {
		t.Fatalf("expected a call method declaration, got:\n%s", out)
	}
	// Both optional slots default to the same sentinel symbol.
	if strings.Count(out, "$SENTINEL_") < 2 {
		t.Fatalf("expected the sentinel default to appear for every optional slot, got:\n%s", out)
	}
	// The higher arity's test must be the outermost (first-evaluated) check,
	// so a call with both slots filled dispatches to the binary clause
	// rather than the unary one.
	callText := out[strings.Index(out, "dynamic "+callMethod+"("):]
	ifA1 := strings.Index(callText, "a0)!=($symbol_of(")
	ifA2 := strings.Index(callText, "a1)!=($symbol_of(")
	if ifA1 < 0 || ifA2 < 0 {
		t.Fatalf("expected sentinel-comparison tests for both a0 and a1, got:\n%s", out)
	}
	if ifA2 > ifA1 {
		t.Fatalf("expected the a1 (higher-arity) test to appear before the a0 test (descending priority), got:\n%s", out)
	}
}

func Test_Functions_MultiFixedArity_And_Trampoline_UnifiedInvoke(t *testing.T) {
	// spec.md §8 Scenario 5's own shape: two fixed below-threshold arities
	// plus a variadic clause, so -invoke must cover both fixed clauses and
	// every trampoline arity in between through one method, not one
	// identically-named declaration per arity.
	src := `(def f (fn* ([] 0) ([a] a) ([a b & rest] rest)))`
	out := classEmitFor(t, src)

	plainInvoke := Mangle("-invoke")
	if strings.Count(out, "dynamic "+plainInvoke+"(") != 1 {
		t.Fatalf("expected exactly one %s method declaration, got:\n%s", plainInvoke, out)
	}
	// Nine optional slots: the trampoline/fixed range spans arities 0..9
	// (InvokeThreshold-1), each as its own optional positional parameter.
	if !strings.Contains(out, "dynamic "+plainInvoke+"([dynamic a0 = ") {
		t.Fatalf("expected %s to take optional positional slots, got:\n%s", plainInvoke, out)
	}
	varargMethod := Mangle("-invoke$vararg")
	if !strings.Contains(out, varargMethod+"(") {
		t.Fatalf("expected a trampoline arm calling %s, got:\n%s", varargMethod, out)
	}
}

func Test_Functions_SimpleFn_NoInvokeClass(t *testing.T) {
	reg, an := newTestPipeline()
	analyzeSource(t, an, reg, "app.core", `(def square (fn* [x] (. x * x)))`)
	ns, _ := reg.Namespace("app.core")
	for _, name := range ns.DefOrder {
		def := ns.Definitions[name]
		if def != nil && def.Kind == KindClass {
			t.Fatalf("a single fixed-arity, non-variadic fn* should not synthesize an invoke class, found %s", name)
		}
	}
}
