package clojuredart

import (
	"math/rand"
	"testing"
)

func Test_Mangle_ReservedWordWrapped(t *testing.T) {
	if got := Mangle("class"); got != "$class_" {
		t.Fatalf("Mangle(%q) = %q, want %q", "class", got, "$class_")
	}
}

func Test_Mangle_AutoGensym(t *testing.T) {
	if got := Mangle("__auto__"); got != "$AUTO_" {
		t.Fatalf("Mangle(__auto__) = %q, want $AUTO_", got)
	}
	if got := Mangle("__42"); got != "$42_" {
		t.Fatalf("Mangle(__42) = %q, want $42_", got)
	}
}

func Test_Mangle_LeadingDash(t *testing.T) {
	if got := Mangle("-main"); got != "$_main" {
		t.Fatalf("Mangle(-main) = %q, want $_main", got)
	}
}

func Test_Mangle_PlainIdentifierUnchanged(t *testing.T) {
	if got := Mangle("fooBar2"); got != "fooBar2" {
		t.Fatalf("Mangle(fooBar2) = %q, want fooBar2", got)
	}
}

func Test_Mangle_PunctuationSpelledOut(t *testing.T) {
	if got := Mangle("foo-bar?"); got != "foo_bar$QMARK_" {
		t.Fatalf("Mangle(foo-bar?) = %q, want foo_bar$QMARK_", got)
	}
}

// Test_Mangle_InjectiveOnRandomSample is a property-style generative test,
// grounded on the teacher's table-driven types_test.go cases: Mangle must
// never collapse two distinct source identifiers onto the same target
// name (spec.md §6's Testable Property 6), checked over a large random
// sample with a fixed seed for reproducibility.
func Test_Mangle_InjectiveOnRandomSample(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	alphabet := []rune("abcABC012-_$:+><=~!@#'\"%^&*|{}[]/\\?")
	seen := map[string]string{}
	for i := 0; i < 5000; i++ {
		n := 1 + rng.Intn(6)
		runes := make([]rune, n)
		for j := range runes {
			runes[j] = alphabet[rng.Intn(len(alphabet))]
		}
		name := string(runes)
		out := Mangle(name)
		if prev, ok := seen[out]; ok && prev != name {
			t.Fatalf("collision: Mangle(%q) == Mangle(%q) == %q", prev, name, out)
		}
		seen[out] = name
	}
}
