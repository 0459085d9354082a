package clojuredart

import (
	"errors"
	"testing"
)

func Test_Reader_ReadAll_Atoms(t *testing.T) {
	forms, err := ReadAll(`nil true false 42 -3 1.5 "hi" :kw :ns/kw sym ns/sym`)
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	want := []Form{
		Nil{}, Bool(true), Bool(false),
		Number{Text: "42"}, Number{Text: "-3"}, Number{Text: "1.5", Frac: true},
		String("hi"),
		Keyword{Name: "kw"}, Keyword{NS: "ns", Name: "kw"},
		Symbol{Name: "sym"}, Symbol{NS: "ns", Name: "sym"},
	}
	if len(forms) != len(want) {
		t.Fatalf("got %d forms, want %d: %v", len(forms), len(want), forms)
	}
	for i := range want {
		if !Equal(forms[i], want[i]) {
			t.Fatalf("form %d = %s, want %s", i, Dump(forms[i]), Dump(want[i]))
		}
	}
}

func Test_Reader_ReadAll_Collections(t *testing.T) {
	forms, err := ReadAll(`(a b) [1 2] {:k 1} #{1 2}`)
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if len(forms) != 4 {
		t.Fatalf("got %d forms, want 4", len(forms))
	}
	if _, ok := forms[0].(Seq); !ok {
		t.Fatalf("forms[0] = %T, want Seq", forms[0])
	}
	if _, ok := forms[1].(Vector); !ok {
		t.Fatalf("forms[1] = %T, want Vector", forms[1])
	}
	mf, ok := forms[2].(MapForm)
	if !ok || len(mf.Pairs) != 1 {
		t.Fatalf("forms[2] = %v, want a one-pair MapForm", forms[2])
	}
	if _, ok := forms[3].(SetForm); !ok {
		t.Fatalf("forms[3] = %T, want SetForm", forms[3])
	}
}

func Test_Reader_QuoteSugar(t *testing.T) {
	forms, err := ReadAll(`'foo`)
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	want := Seq{Items: []Form{Symbol{Name: "quote"}, Symbol{Name: "foo"}}}
	if !Equal(forms[0], want) {
		t.Fatalf("got %s, want %s", Dump(forms[0]), Dump(want))
	}
}

func Test_Reader_TaggedLiteral(t *testing.T) {
	forms, err := ReadAll(`#inst "2020-01-01"`)
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	tl, ok := forms[0].(TaggedLiteral)
	if !ok {
		t.Fatalf("got %T, want TaggedLiteral", forms[0])
	}
	if tl.Tag.Name != "inst" {
		t.Fatalf("tag = %s, want inst", tl.Tag.Name)
	}
}

func Test_Reader_StringEscapes(t *testing.T) {
	forms, err := ReadAll(`"a\nb\tc\"d"`)
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if got := string(forms[0].(String)); got != "a\nb\tc\"d" {
		t.Fatalf("got %q", got)
	}
}

func Test_Reader_StringUnicodeEscape(t *testing.T) {
	forms, err := ReadAll(`"é"`)
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if got := string(forms[0].(String)); got != "é" {
		t.Fatalf("got %q, want %q", got, "é")
	}
}

func Test_Reader_LineComment(t *testing.T) {
	forms, err := ReadAll("; a comment\n42")
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if len(forms) != 1 || !Equal(forms[0], Number{Text: "42"}) {
		t.Fatalf("got %v", forms)
	}
}

func Test_Reader_UnterminatedList_IsReadError(t *testing.T) {
	_, err := ReadAll("(a b")
	if err == nil {
		t.Fatal("expected an error for an unterminated list")
	}
	var re *ReadError
	if !errors.As(err, &re) {
		t.Fatalf("error = %T, want *ReadError", err)
	}
}

func Test_Reader_EmptySource_IsEOF(t *testing.T) {
	r := NewReader("  ; just a comment\n", nil)
	if _, err := r.Read(); !errors.Is(err, ErrEOF) {
		t.Fatalf("Read() error = %v, want ErrEOF", err)
	}
}

func Test_Reader_Metadata(t *testing.T) {
	meta := NewMetadata()
	r := NewReader(`^:private foo`, meta)
	form, err := r.Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	sym, ok := form.(Symbol)
	if !ok || sym.Name != "foo" {
		t.Fatalf("got %v, want symbol foo", form)
	}
	val, ok := meta.Get(sym, Keyword{Name: "private"})
	if !ok || !Equal(val, Bool(true)) {
		t.Fatalf("metadata for private = %v, %v", val, ok)
	}
}

func Test_Reader_Metadata_SymbolTagShorthand(t *testing.T) {
	meta := NewMetadata()
	r := NewReader(`^bool done`, meta)
	form, err := r.Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	sym, ok := form.(Symbol)
	if !ok || sym.Name != "done" {
		t.Fatalf("got %v, want symbol done", form)
	}
	val, ok := meta.Get(sym, Keyword{Name: "tag"})
	if !ok || !Equal(val, Symbol{Name: "bool"}) {
		t.Fatalf("metadata for tag = %v, %v, want symbol bool", val, ok)
	}
}
