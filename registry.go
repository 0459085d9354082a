// registry.go — Namespace Registry (NR), spec.md §4.1.
//
// NR is process-wide mutable state in the source system; per spec.md §9's
// design note we keep it single-owner and explicit instead of a package
// atom: every pipeline stage takes a *Registry argument. This mirrors the
// teacher's own stated discipline in interpreter_ops.go ("a single
// *Interpreter is not re-entrant; do not call it from multiple goroutines")
// — NR carries the identical contract, stated in doc comments rather than
// enforced with a mutex, because the driver is the sole, synchronous owner
// (spec.md §5).
package clojuredart

import "fmt"

// DefinitionKind distinguishes what a NamespaceRecord's definition emits as.
type DefinitionKind int

const (
	KindField DefinitionKind = iota
	KindDartFn
	KindClass
	// KindInvokeFn marks a def'd fn* lowered to an invoke-style class
	// (multi-arity or variadic), distinct from KindDartFn's plain native
	// function so call sites can tell the two calling conventions apart
	// (spec.md §4.4).
	KindInvokeFn
)

// Definition is one symbol's compiled-output record within a namespace.
type Definition struct {
	TargetName string
	Kind       DefinitionKind
	Metadata   map[string]Form
	Emitted    string // pre-rendered source text for this definition
}

// Import describes one entry of a namespace's imported-lib map.
type Import struct {
	LibraryPath string
	Namespace   string // optional; "" when importing a bare library
}

// ProtocolArity maps an arity to the dispatch target for one method of a
// protocol, per spec.md §3's Protocol record.
type ProtocolArity struct {
	TargetName string
	Params     []string
}

// NamespaceRecord is one namespace's complete state, per spec.md §3.
type NamespaceRecord struct {
	Name string

	// Imports maps an import alias to the library it refers to.
	Imports map[string]Import
	// ImportOrder records alias allocation order, for deterministic
	// `import` directive emission.
	ImportOrder []string
	// Aliases maps a user-chosen alias to the import alias it stands for.
	Aliases map[string]string
	// SymbolMappings maps a short name to a fully-qualified name (used by
	// refer-style imports and by macro expansion of `ns`).
	SymbolMappings map[string]string
	// Definitions maps a short name to its compiled record.
	Definitions map[string]*Definition
	// DefOrder records short names in first-defined order, so the emitter
	// can write a namespace's definitions deterministically instead of
	// iterating Definitions (a map) in random order.
	DefOrder []string
	// Protocols maps a protocol's short name, then a method name, to that
	// method's arity table. Keying on method as well as arity keeps two
	// same-arity methods of one protocol (e.g. unary `area` and unary
	// `perimeter`) from clobbering each other's entry.
	Protocols map[string]map[string]map[int]ProtocolArity

	TargetLibrary string

	nextImportAlias int
}

func newNamespaceRecord(name string) *NamespaceRecord {
	return &NamespaceRecord{
		Name:           name,
		Imports:        map[string]Import{},
		Aliases:        map[string]string{},
		SymbolMappings: map[string]string{},
		Definitions:    map[string]*Definition{},
		Protocols:      map[string]map[string]map[int]ProtocolArity{},
	}
}

// Registry is the process-wide namespace store. The zero value is not
// usable; construct with NewRegistry.
type Registry struct {
	namespaces map[string]*NamespaceRecord
	current    string
}

// NewRegistry seeds a Registry with the built-in "core" namespace containing
// the target language's built-in type mappings (spec.md §3's Lifecycle: "the
// NR is created at process start with a seeded core namespace").
func NewRegistry() *Registry {
	r := &Registry{namespaces: map[string]*NamespaceRecord{}}
	core := newNamespaceRecord("core")
	for src, tgt := range builtinTypeMappings {
		core.SymbolMappings[src] = tgt
	}
	r.namespaces["core"] = core
	return r
}

// builtinTypeMappings seeds the allowlist referenced by spec.md §9's open
// question on the type-tag resolver: Function/void/dynamic are always
// in scope without an import.
var builtinTypeMappings = map[string]string{
	"Function": "Function",
	"void":     "void",
	"dynamic":  "dynamic",
}

// EnsureNamespace returns the namespace record for name, creating an empty
// one if it does not yet exist.
func (r *Registry) EnsureNamespace(name string) *NamespaceRecord {
	if ns, ok := r.namespaces[name]; ok {
		return ns
	}
	ns := newNamespaceRecord(name)
	r.namespaces[name] = ns
	return ns
}

// Namespace returns the record for name and whether it exists.
func (r *Registry) Namespace(name string) (*NamespaceRecord, bool) {
	ns, ok := r.namespaces[name]
	return ns, ok
}

// SetCurrent sets the namespace the driver is currently compiling; Resolve
// and Define operate against it.
func (r *Registry) SetCurrent(name string) { r.current = name }

// Current returns the namespace record the driver is currently compiling.
func (r *Registry) Current() *NamespaceRecord { return r.EnsureNamespace(r.current) }

// Define performs an idempotent, last-writer-wins write of shortName into
// ns, per spec.md §4.1. A nil Definition pre-declares the name (permitted so
// recursive self-reference resolves before the real value is analyzed).
func (r *Registry) Define(ns *NamespaceRecord, shortName string, def *Definition) {
	if _, ok := ns.Definitions[shortName]; !ok {
		ns.DefOrder = append(ns.DefOrder, shortName)
	}
	ns.Definitions[shortName] = def
}

// PreDeclare records an empty placeholder for shortName if absent, so a
// recursive definition's own body can resolve its own name while being
// analyzed. It never overwrites an existing (possibly already-complete)
// definition.
func (r *Registry) PreDeclare(ns *NamespaceRecord, shortName, targetName string, kind DefinitionKind) {
	if _, ok := ns.Definitions[shortName]; ok {
		return
	}
	ns.DefOrder = append(ns.DefOrder, shortName)
	ns.Definitions[shortName] = &Definition{TargetName: targetName, Kind: kind}
}

// Env is an immutable lexical environment: a symbol-to-identifier mapping
// with a parent link. Per spec.md §9's design note, environments are small
// and short-lived, so each Extend copy-on-writes a fresh map rather than
// using a persistent tree — "naive copying is acceptable."
type Env struct {
	parent *Env
	binds  map[string]*Ident
}

// NewEnv returns the empty root environment.
func NewEnv() *Env { return &Env{} }

// Extend returns a new child environment that additionally binds name to id.
func (e *Env) Extend(name string, id *Ident) *Env {
	child := &Env{parent: e, binds: map[string]*Ident{name: id}}
	return child
}

// ExtendAll returns a new child environment binding every name in names to
// the corresponding Ident in ids.
func (e *Env) ExtendAll(names []string, ids []*Ident) *Env {
	binds := make(map[string]*Ident, len(names))
	for i, n := range names {
		binds[n] = ids[i]
	}
	return &Env{parent: e, binds: binds}
}

// Lookup returns the Ident bound to name in e or an ancestor, if any.
func (e *Env) Lookup(name string) (*Ident, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.binds == nil {
			continue
		}
		if id, ok := cur.binds[name]; ok {
			return id, true
		}
	}
	return nil, false
}

// Ident is an analyzed identifier: a namespace-unique mangled name carrying
// type/mutability metadata, per spec.md §3.
type Ident struct {
	Name    string
	Mutable bool
	Type    *TypeTag
	Truth   Truthiness
}

// ResolveError is returned by Resolve when a symbol cannot be resolved
// through any of the five steps in spec.md §4.1.
type ResolveError struct {
	Symbol Symbol
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("unknown-symbol: %s", e.Symbol.String())
}

// Resolved is the outcome of a successful Resolve: either a local Ident or a
// fully-qualified target reference.
type Resolved struct {
	Local   *Ident // non-nil when resolved to an env binding
	Alias   string // import alias, when resolved to alias.TargetName
	Target  string // target name (bare, or to be qualified with Alias)
}

// Resolve implements the five-step resolution order of spec.md §4.1.
func (r *Registry) Resolve(env *Env, sym Symbol) (*Resolved, error) {
	// 1. env binding.
	if sym.NS == "" {
		if id, ok := env.Lookup(sym.Name); ok {
			return &Resolved{Local: id}, nil
		}
	}

	ns := r.Current()

	// 2. current namespace definition.
	if sym.NS == "" {
		if def, ok := ns.Definitions[sym.Name]; ok {
			return &Resolved{Target: def.TargetName}, nil
		}
	}

	// 3. namespace part matches an alias.
	if sym.NS != "" {
		if importAlias, ok := ns.Aliases[sym.NS]; ok {
			return &Resolved{Alias: importAlias, Target: Mangle(sym.Name)}, nil
		}
	}

	// 4. short name in symbol-mappings, resolved recursively.
	if sym.NS == "" {
		if mapped, ok := ns.SymbolMappings[sym.Name]; ok {
			if mapped == sym.Name {
				return nil, &ResolveError{Symbol: sym}
			}
			return r.Resolve(env, parseQualified(mapped))
		}
	}

	// 5. namespace part names a known namespace.
	if sym.NS != "" {
		if target, ok := r.namespaces[sym.NS]; ok {
			if _, ok := target.Definitions[sym.Name]; ok {
				alias := r.ensureImportLocked(ns, sym.NS)
				return &Resolved{Alias: alias, Target: Mangle(sym.Name)}, nil
			}
		}
	}

	return nil, &ResolveError{Symbol: sym}
}

// parseQualified splits a "ns/name" or bare "name" string into a Symbol.
func parseQualified(s string) Symbol {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return Symbol{NS: s[:i], Name: s[i+1:]}
		}
	}
	return Symbol{Name: s}
}

// EnsureImport returns the existing import alias for targetNS within ns, or
// allocates and records a fresh one, per spec.md §4.1.
func (r *Registry) EnsureImport(ns *NamespaceRecord, targetNS string) string {
	return r.ensureImportLocked(ns, targetNS)
}

func (r *Registry) ensureImportLocked(ns *NamespaceRecord, targetNS string) string {
	for alias, imp := range ns.Imports {
		if imp.Namespace == targetNS {
			return alias
		}
	}
	ns.nextImportAlias++
	alias := fmt.Sprintf("%s%d", Mangle(targetNS), ns.nextImportAlias)
	targetLib := targetNS
	if other, ok := r.namespaces[targetNS]; ok && other.TargetLibrary != "" {
		targetLib = other.TargetLibrary
	}
	ns.Imports[alias] = Import{LibraryPath: targetLib, Namespace: targetNS}
	ns.ImportOrder = append(ns.ImportOrder, alias)
	return alias
}

// DefineProtocolMethod records one arity of a protocol method, as produced
// by the `defprotocol` macro (spec.md §4.2).
func (r *Registry) DefineProtocolMethod(ns *NamespaceRecord, protocol, method string, arity int, target string, params []string) {
	methods, ok := ns.Protocols[protocol]
	if !ok {
		methods = map[string]map[int]ProtocolArity{}
		ns.Protocols[protocol] = methods
	}
	table, ok := methods[method]
	if !ok {
		table = map[int]ProtocolArity{}
		methods[method] = table
	}
	table[arity] = ProtocolArity{TargetName: target, Params: params}
}

// ResolveProtocolMethodError is returned when no arity of a protocol defines
// the requested method.
type ResolveProtocolMethodError struct {
	Protocol, Method string
	ArgCount         int
}

func (e *ResolveProtocolMethodError) Error() string {
	return fmt.Sprintf("protocol %q has no method %q accepting %d argument(s)", e.Protocol, e.Method, e.ArgCount)
}

// ResolveProtocolMethod returns the target method name for protocol's method
// at the given argument count, per spec.md §4.1.
func (r *Registry) ResolveProtocolMethod(ns *NamespaceRecord, protocol, method string, argCount int) (string, error) {
	methods, ok := ns.Protocols[protocol]
	if !ok {
		return "", &ResolveProtocolMethodError{Protocol: protocol, Method: method, ArgCount: argCount}
	}
	table, ok := methods[method]
	if !ok {
		return "", &ResolveProtocolMethodError{Protocol: protocol, Method: method, ArgCount: argCount}
	}
	arity, ok := table[argCount]
	if !ok || arity.TargetName == "" {
		return "", &ResolveProtocolMethodError{Protocol: protocol, Method: method, ArgCount: argCount}
	}
	return arity.TargetName, nil
}
