// formbuild.go — tiny constructors for building synthesized Form trees,
// used by the macro expander (macros.go) when it rewrites surface forms.
package clojuredart

func sym(name string) Symbol { return Symbol{Name: name} }

func seq(items ...Form) Seq { return Seq{Items: items} }

func vec(items ...Form) Vector { return Vector{Items: items} }

func kw(name string) Keyword { return Keyword{Name: name} }
