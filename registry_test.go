package clojuredart

import "testing"

func Test_Registry_NewRegistry_SeedsCore(t *testing.T) {
	reg := NewRegistry()
	core, ok := reg.Namespace("core")
	if !ok {
		t.Fatal("NewRegistry should seed a core namespace")
	}
	if core.SymbolMappings["void"] != "void" {
		t.Fatalf("core.SymbolMappings[void] = %q, want void", core.SymbolMappings["void"])
	}
}

func Test_Registry_EnsureNamespace_Idempotent(t *testing.T) {
	reg := NewRegistry()
	a := reg.EnsureNamespace("app.core")
	b := reg.EnsureNamespace("app.core")
	if a != b {
		t.Fatal("EnsureNamespace should return the same record on repeat calls")
	}
}

func Test_Registry_Define_RecordsOrder(t *testing.T) {
	reg := NewRegistry()
	ns := reg.EnsureNamespace("app.core")
	reg.Define(ns, "foo", &Definition{TargetName: "foo", Kind: KindDartFn})
	reg.Define(ns, "bar", &Definition{TargetName: "bar", Kind: KindDartFn})
	reg.Define(ns, "foo", &Definition{TargetName: "foo2", Kind: KindDartFn}) // overwrite, no reorder
	if len(ns.DefOrder) != 2 || ns.DefOrder[0] != "foo" || ns.DefOrder[1] != "bar" {
		t.Fatalf("DefOrder = %v", ns.DefOrder)
	}
	if ns.Definitions["foo"].TargetName != "foo2" {
		t.Fatal("Define should be last-writer-wins")
	}
}

func Test_Registry_PreDeclare_DoesNotOverwrite(t *testing.T) {
	reg := NewRegistry()
	ns := reg.EnsureNamespace("app.core")
	reg.Define(ns, "foo", &Definition{TargetName: "foo", Kind: KindDartFn})
	reg.PreDeclare(ns, "foo", "ignored", KindField)
	if ns.Definitions["foo"].TargetName != "foo" {
		t.Fatal("PreDeclare must not overwrite an existing definition")
	}
}

func Test_Registry_Resolve_EnvBinding(t *testing.T) {
	reg := NewRegistry()
	reg.SetCurrent("app.core")
	env := NewEnv().Extend("x", &Ident{Name: "x$1"})
	got, err := reg.Resolve(env, Symbol{Name: "x"})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.Local == nil || got.Local.Name != "x$1" {
		t.Fatalf("Resolve = %+v, want a local binding", got)
	}
}

func Test_Registry_Resolve_CurrentNamespaceDefinition(t *testing.T) {
	reg := NewRegistry()
	reg.SetCurrent("app.core")
	ns := reg.Current()
	reg.Define(ns, "greet", &Definition{TargetName: "greet", Kind: KindDartFn})
	got, err := reg.Resolve(NewEnv(), Symbol{Name: "greet"})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.Target != "greet" {
		t.Fatalf("Resolve = %+v, want Target=greet", got)
	}
}

func Test_Registry_Resolve_Unknown(t *testing.T) {
	reg := NewRegistry()
	reg.SetCurrent("app.core")
	_, err := reg.Resolve(NewEnv(), Symbol{Name: "nope"})
	if err == nil {
		t.Fatal("expected a ResolveError")
	}
	if _, ok := err.(*ResolveError); !ok {
		t.Fatalf("error = %T, want *ResolveError", err)
	}
}

func Test_Registry_Resolve_AliasedCrossNamespace(t *testing.T) {
	reg := NewRegistry()
	other := reg.EnsureNamespace("app.util")
	reg.Define(other, "helper", &Definition{TargetName: "helper", Kind: KindDartFn})

	reg.SetCurrent("app.core")
	ns := reg.Current()
	alias := reg.EnsureImport(ns, "app.util")
	ns.Aliases["u"] = alias

	got, err := reg.Resolve(NewEnv(), Symbol{NS: "u", Name: "helper"})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.Alias != alias || got.Target != Mangle("helper") {
		t.Fatalf("Resolve = %+v", got)
	}
}

func Test_Registry_Resolve_ImplicitCrossNamespace(t *testing.T) {
	reg := NewRegistry()
	other := reg.EnsureNamespace("app.util")
	reg.Define(other, "helper", &Definition{TargetName: "helper", Kind: KindDartFn})

	reg.SetCurrent("app.core")
	got, err := reg.Resolve(NewEnv(), Symbol{NS: "app.util", Name: "helper"})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.Target != Mangle("helper") {
		t.Fatalf("Resolve = %+v", got)
	}
	ns := reg.Current()
	if len(ns.ImportOrder) != 1 {
		t.Fatalf("expected an import to be allocated, ImportOrder = %v", ns.ImportOrder)
	}
}

func Test_Registry_EnsureImport_ReusesExistingAlias(t *testing.T) {
	reg := NewRegistry()
	reg.EnsureNamespace("app.util")
	reg.SetCurrent("app.core")
	ns := reg.Current()
	a1 := reg.EnsureImport(ns, "app.util")
	a2 := reg.EnsureImport(ns, "app.util")
	if a1 != a2 {
		t.Fatalf("EnsureImport should reuse the same alias: %q != %q", a1, a2)
	}
	if len(ns.ImportOrder) != 1 {
		t.Fatalf("ImportOrder = %v, want one entry", ns.ImportOrder)
	}
}

func Test_Registry_ResolveProtocolMethod(t *testing.T) {
	reg := NewRegistry()
	ns := reg.EnsureNamespace("app.core")
	reg.DefineProtocolMethod(ns, "Shape", "area", 1, "area", []string{"this"})
	target, err := reg.ResolveProtocolMethod(ns, "Shape", "area", 1)
	if err != nil {
		t.Fatalf("ResolveProtocolMethod error: %v", err)
	}
	if target != "area" {
		t.Fatalf("target = %q, want area", target)
	}
	if _, err := reg.ResolveProtocolMethod(ns, "Shape", "area", 2); err == nil {
		t.Fatal("expected an error for an undefined arity")
	}
}

// Test_Registry_ResolveProtocolMethod_SameArityDifferentMethods guards
// against the Protocols table being keyed by protocol+arity alone: two
// unary methods on the same protocol must not clobber each other's target.
func Test_Registry_ResolveProtocolMethod_SameArityDifferentMethods(t *testing.T) {
	reg := NewRegistry()
	ns := reg.EnsureNamespace("app.core")
	reg.DefineProtocolMethod(ns, "Shape", "area", 1, "area$0", []string{"this"})
	reg.DefineProtocolMethod(ns, "Shape", "perimeter", 1, "perimeter$0", []string{"this"})

	area, err := reg.ResolveProtocolMethod(ns, "Shape", "area", 1)
	if err != nil {
		t.Fatalf("ResolveProtocolMethod(area) error: %v", err)
	}
	if area != "area$0" {
		t.Fatalf("area target = %q, want area$0", area)
	}

	perimeter, err := reg.ResolveProtocolMethod(ns, "Shape", "perimeter", 1)
	if err != nil {
		t.Fatalf("ResolveProtocolMethod(perimeter) error: %v", err)
	}
	if perimeter != "perimeter$0" {
		t.Fatalf("perimeter target = %q, want perimeter$0", perimeter)
	}

	if _, err := reg.ResolveProtocolMethod(ns, "Shape", "circumference", 1); err == nil {
		t.Fatal("expected an error for a method never defined on this protocol")
	}
}

func Test_Registry_Env_ExtendAll_ShadowsOuter(t *testing.T) {
	outer := NewEnv().Extend("x", &Ident{Name: "outer_x"})
	inner := outer.ExtendAll([]string{"x", "y"}, []*Ident{{Name: "inner_x"}, {Name: "y"}})
	id, ok := inner.Lookup("x")
	if !ok || id.Name != "inner_x" {
		t.Fatalf("Lookup(x) = %v, %v, want inner_x", id, ok)
	}
	if _, ok := outer.Lookup("y"); ok {
		t.Fatal("the outer env must not see a binding added to its child")
	}
}
