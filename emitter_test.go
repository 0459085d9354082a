package clojuredart

import (
	"strings"
	"testing"
)

func Test_Emitter_EmitTopLevelField_SimpleValue(t *testing.T) {
	em := NewEmitter(NewRegistry())
	out, err := em.EmitTopLevelField(nil, "answer", mkLiteral(Pos{}, Number{Text: "42"}))
	if err != nil {
		t.Fatalf("EmitTopLevelField error: %v", err)
	}
	if out != "dynamic answer = 42;\n" {
		t.Fatalf("got %q", out)
	}
}

func Test_Emitter_EmitTopLevelField_CompoundValue(t *testing.T) {
	em := NewEmitter(NewRegistry())
	ifNode := mkIf(Pos{}, mkLiteral(Pos{}, Bool(true)), mkLiteral(Pos{}, Number{Text: "1"}), mkLiteral(Pos{}, Number{Text: "2"}))
	out, err := em.EmitTopLevelField(nil, "x", ifNode)
	if err != nil {
		t.Fatalf("EmitTopLevelField error: %v", err)
	}
	if !strings.Contains(out, "dynamic x = (() {") || !strings.Contains(out, "return 1;") || !strings.Contains(out, "return 2;") {
		t.Fatalf("got %q", out)
	}
}

func Test_Emitter_EmitTopLevelFn(t *testing.T) {
	em := NewEmitter(NewRegistry())
	param := &Ident{Name: "x"}
	fn := &IRFn{Params: Params{Fixed: []*Ident{param}}, Body: mkIdentRef(Pos{}, param), Name: "identity"}
	out, err := em.EmitTopLevelFn(nil, "identity", fn)
	if err != nil {
		t.Fatalf("EmitTopLevelFn error: %v", err)
	}
	want := "dynamic identity(dynamic x) {\n  return x;\n}\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func Test_Emitter_EmitIfStatement_TestStrategy(t *testing.T) {
	em := NewEmitter(NewRegistry())
	flagIdent := &Ident{Name: "flag", Truth: TruthSome}
	v := mkIf(Pos{}, mkIdentRef(Pos{}, flagIdent), mkLiteral(Pos{}, Number{Text: "1"}), mkLiteral(Pos{}, Number{Text: "2"}))
	out := em.emitIfStatement(v, returnLocus())
	if !strings.Contains(out, "if (flag != null)") {
		t.Fatalf("got %q, want a nil-check test", out)
	}
}

func Test_Emitter_EmitMethodCall_InfixOperator(t *testing.T) {
	em := NewEmitter(NewRegistry())
	v := mkMethodCall(Pos{}, mkLiteral(Pos{}, Number{Text: "1"}), "+", []IR{mkLiteral(Pos{}, Number{Text: "2"})})
	if got := em.emitMethodCall(v); got != "(1)+(2)" {
		t.Fatalf("got %q, want (1)+(2)", got)
	}
}

func Test_Emitter_EmitMethodCall_IndexOperators(t *testing.T) {
	em := NewEmitter(NewRegistry())
	v := mkMethodCall(Pos{}, mkIdentRef(Pos{}, &Ident{Name: "xs"}), "[]", []IR{mkLiteral(Pos{}, Number{Text: "0"})})
	if got := em.emitMethodCall(v); got != "xs[0]" {
		t.Fatalf("got %q, want xs[0]", got)
	}
}

func Test_Emitter_EmitCallExpr_DispatchNative(t *testing.T) {
	em := NewEmitter(NewRegistry())
	callee := mkLiteral(Pos{}, Symbol{Name: "foo"})
	v := &IRCall{Callee: callee, Args: []IR{mkLiteral(Pos{}, Number{Text: "1"})}, Dispatch: DispatchNative}
	got := em.emitCallExpr(v)
	if got != "$symbol_of(\"\", \"foo\")(1)" {
		t.Fatalf("got %q", got)
	}
}

func Test_Emitter_EmitCallExpr_DispatchInvoke(t *testing.T) {
	em := NewEmitter(NewRegistry())
	callee := mkIdentRef(Pos{}, &Ident{Name: "f"})
	v := &IRCall{Callee: callee, Args: []IR{mkLiteral(Pos{}, Number{Text: "1"})}, Dispatch: DispatchInvoke}
	got := em.emitCallExpr(v)
	if got != "(f as IFn).$_invoke(1)" {
		t.Fatalf("got %q", got)
	}
}

func Test_Emitter_EmitCallExpr_DispatchUnknown(t *testing.T) {
	em := NewEmitter(NewRegistry())
	callee := mkIdentRef(Pos{}, &Ident{Name: "f"})
	v := &IRCall{Callee: callee, Args: []IR{mkLiteral(Pos{}, Number{Text: "1"})}, Dispatch: DispatchUnknown}
	got := em.emitCallExpr(v)
	if !strings.Contains(got, "if ($c is IFn)") || !strings.Contains(got, "final $c = f;") {
		t.Fatalf("got %q", got)
	}
}

func Test_Emitter_EmitNamespace_Ordering(t *testing.T) {
	reg := NewRegistry()
	ns := reg.EnsureNamespace("app.core")
	ns.ImportOrder = []string{"u1"}
	ns.Imports["u1"] = Import{LibraryPath: "app/util.dart"}
	reg.Define(ns, "b", &Definition{TargetName: "b", Kind: KindField, Emitted: "dynamic b = 2;\n"})
	reg.Define(ns, "a", &Definition{TargetName: "a", Kind: KindField, Emitted: "dynamic a = 1;\n"})

	em := NewEmitter(reg)
	out := em.EmitNamespace(ns)
	wantImport := "import 'app/util.dart' as u1;\n"
	if !strings.HasPrefix(out, wantImport) {
		t.Fatalf("got %q, want it to start with %q", out, wantImport)
	}
	if idx := strings.Index(out, "dynamic b"); idx == -1 || idx > strings.Index(out, "dynamic a") {
		t.Fatalf("expected b before a (first-defined order), got %q", out)
	}
}

func Test_Emitter_EmitClass_Basics(t *testing.T) {
	em := NewEmitter(NewRegistry())
	desc := &ClassDesc{
		Name:   "Point",
		Fields: []string{"x", "y"},
	}
	out, err := em.EmitClass(nil, desc)
	if err != nil {
		t.Fatalf("EmitClass error: %v", err)
	}
	if !strings.Contains(out, "class Point {") {
		t.Fatalf("got %q", out)
	}
	if !strings.Contains(out, "final dynamic x;") || !strings.Contains(out, "final dynamic y;") {
		t.Fatalf("got %q, want both fields declared final", out)
	}
	if !strings.Contains(out, "Point(this.x, this.y);") {
		t.Fatalf("got %q, want a field-initializing constructor", out)
	}
}
