package clojuredart

import "testing"

func Test_TypeTag_ParseTypeTag_Bare(t *testing.T) {
	tag, err := ParseTypeTag("String")
	if err != nil {
		t.Fatalf("ParseTypeTag error: %v", err)
	}
	if tag.Alias != "" || tag.Name != "String" || tag.ParamName != "" {
		t.Fatalf("tag = %+v", tag)
	}
}

func Test_TypeTag_ParseTypeTag_Aliased(t *testing.T) {
	tag, err := ParseTypeTag("io.File")
	if err != nil {
		t.Fatalf("ParseTypeTag error: %v", err)
	}
	if tag.Alias != "io" || tag.Name != "File" {
		t.Fatalf("tag = %+v", tag)
	}
}

func Test_TypeTag_ParseTypeTag_WithParamName(t *testing.T) {
	tag, err := ParseTypeTag("List items")
	if err != nil {
		t.Fatalf("ParseTypeTag error: %v", err)
	}
	if tag.Name != "List" || tag.ParamName != "items" {
		t.Fatalf("tag = %+v", tag)
	}
}

func Test_TypeTag_ParseTypeTag_Empty(t *testing.T) {
	if _, err := ParseTypeTag(""); err == nil {
		t.Fatal("expected an error for an empty tag")
	}
}

func Test_TypeTag_ResolveTypeTag_Builtin(t *testing.T) {
	reg := NewRegistry()
	ns := reg.EnsureNamespace("app.core")
	tag := &TypeTag{Name: "void"}
	got, err := ResolveTypeTag(reg, ns, tag)
	if err != nil {
		t.Fatalf("ResolveTypeTag error: %v", err)
	}
	if got != "void" {
		t.Fatalf("got %q, want void", got)
	}
}

func Test_TypeTag_ResolveTypeTag_LocalDefinition(t *testing.T) {
	reg := NewRegistry()
	ns := reg.EnsureNamespace("app.core")
	ns.Definitions["Widget"] = &Definition{TargetName: "Widget", Kind: KindClass}
	got, err := ResolveTypeTag(reg, ns, &TypeTag{Name: "Widget"})
	if err != nil {
		t.Fatalf("ResolveTypeTag error: %v", err)
	}
	if got != Mangle("Widget") {
		t.Fatalf("got %q, want %q", got, Mangle("Widget"))
	}
}

func Test_TypeTag_ResolveTypeTag_UnknownAlias(t *testing.T) {
	reg := NewRegistry()
	ns := reg.EnsureNamespace("app.core")
	if _, err := ResolveTypeTag(reg, ns, &TypeTag{Alias: "io", Name: "File"}); err == nil {
		t.Fatal("expected UnknownTypeTagError for an undeclared alias")
	}
}

func Test_TypeTag_ResolveTypeTag_DeclaredAlias(t *testing.T) {
	reg := NewRegistry()
	ns := reg.EnsureNamespace("app.core")
	ns.Aliases["io"] = "io1"
	got, err := ResolveTypeTag(reg, ns, &TypeTag{Alias: "io", Name: "File"})
	if err != nil {
		t.Fatalf("ResolveTypeTag error: %v", err)
	}
	if got != "io1."+Mangle("File") {
		t.Fatalf("got %q", got)
	}
}

func Test_TypeTag_ResolveTypeTag_Unresolvable(t *testing.T) {
	reg := NewRegistry()
	ns := reg.EnsureNamespace("app.core")
	if _, err := ResolveTypeTag(reg, ns, &TypeTag{Name: "Nonexistent"}); err == nil {
		t.Fatal("expected UnknownTypeTagError")
	}
}
