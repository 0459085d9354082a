package clojuredart

import "testing"

func Test_Forms_HeadSymbol_EmptySeq(t *testing.T) {
	if _, ok := HeadSymbol(Seq{}); ok {
		t.Fatal("HeadSymbol(empty seq) should fail")
	}
}

func Test_Forms_HeadSymbol_NonSeq(t *testing.T) {
	if _, ok := HeadSymbol(Number{Text: "1"}); ok {
		t.Fatal("HeadSymbol(non-seq) should fail")
	}
}

func Test_Forms_HeadSymbol_NonSymbolHead(t *testing.T) {
	if _, ok := HeadSymbol(Seq{Items: []Form{Number{Text: "1"}}}); ok {
		t.Fatal("HeadSymbol with a non-symbol head should fail")
	}
}

func Test_Forms_Tail(t *testing.T) {
	s := Seq{Items: []Form{Symbol{Name: "f"}, Number{Text: "1"}, Number{Text: "2"}}}
	tail := Tail(s)
	if len(tail) != 2 {
		t.Fatalf("Tail length = %d, want 2", len(tail))
	}
	if !Equal(tail[0], Number{Text: "1"}) || !Equal(tail[1], Number{Text: "2"}) {
		t.Fatalf("Tail = %v", tail)
	}
}

func Test_Forms_Equal_Seq(t *testing.T) {
	a := Seq{Items: []Form{Symbol{Name: "a"}, Number{Text: "1"}}}
	b := Seq{Items: []Form{Symbol{Name: "a"}, Number{Text: "1"}}}
	c := Seq{Items: []Form{Symbol{Name: "a"}, Number{Text: "2"}}}
	if !Equal(a, b) {
		t.Fatal("structurally identical seqs should be Equal")
	}
	if Equal(a, c) {
		t.Fatal("structurally different seqs should not be Equal")
	}
}

func Test_Forms_Equal_Map(t *testing.T) {
	a := MapForm{Pairs: []MapPair{{Key: Keyword{Name: "k"}, Val: Number{Text: "1"}}}}
	b := MapForm{Pairs: []MapPair{{Key: Keyword{Name: "k"}, Val: Number{Text: "1"}}}}
	if !Equal(a, b) {
		t.Fatal("structurally identical maps should be Equal")
	}
}

func Test_Forms_Equal_DifferentKinds(t *testing.T) {
	if Equal(Vector{Items: []Form{Number{Text: "1"}}}, Seq{Items: []Form{Number{Text: "1"}}}) {
		t.Fatal("a Vector and a Seq with identical items should not be Equal")
	}
}

func Test_Forms_KeywordString(t *testing.T) {
	if got := (Keyword{Name: "foo"}).String(); got != ":foo" {
		t.Fatalf("Keyword.String() = %q, want :foo", got)
	}
	if got := (Keyword{NS: "ns", Name: "foo"}).String(); got != ":ns/foo" {
		t.Fatalf("Keyword.String() = %q, want :ns/foo", got)
	}
}

func Test_Forms_SymbolString(t *testing.T) {
	if got := (Symbol{Name: "foo"}).String(); got != "foo" {
		t.Fatalf("Symbol.String() = %q, want foo", got)
	}
	if got := (Symbol{NS: "ns", Name: "foo"}).String(); got != "ns/foo" {
		t.Fatalf("Symbol.String() = %q, want ns/foo", got)
	}
}

func Test_Forms_Metadata_SetGet(t *testing.T) {
	m := NewMetadata()
	target := Symbol{Name: "x"}
	key := Keyword{Name: "private"}
	m.Set(target, key, Bool(true))
	val, ok := m.Get(target, key)
	if !ok || !Equal(val, Bool(true)) {
		t.Fatalf("Get after Set = %v, %v", val, ok)
	}
	if _, ok := m.Get(target, Keyword{Name: "other"}); ok {
		t.Fatal("Get for an unset key should fail")
	}
}

func Test_Forms_Dump_Seq(t *testing.T) {
	s := Seq{Items: []Form{Symbol{Name: "f"}, Number{Text: "1"}}}
	if got := Dump(s); got != "(f 1)" {
		t.Fatalf("Dump = %q, want (f 1)", got)
	}
}
