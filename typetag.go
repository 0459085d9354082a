// typetag.go — type-tag grammar, spec.md §6.
//
// A tag string is `[alias.]identifier[ paramName]`. Aliases must be declared
// in the current namespace's imports; bare identifiers resolve against the
// built-in allowlist and then the current namespace. This directly
// implements the open question in spec.md §9 ("a hard-coded built-in-type
// allowlist... Function, void, dynamic"): we resolve those names before
// ever consulting the namespace.
package clojuredart

import (
	"fmt"
	"strings"
)

// TypeTag is a parsed type-tag: an optional alias, the bare type name, and
// an optional trailing parameter name (used on function parameters written
// as `^"List param"`-style tags in the source grammar).
type TypeTag struct {
	Alias     string
	Name      string
	ParamName string
}

func (t *TypeTag) String() string {
	s := t.Name
	if t.Alias != "" {
		s = t.Alias + "." + s
	}
	if t.ParamName != "" {
		s = s + " " + t.ParamName
	}
	return s
}

// UnknownTypeTagError is raised when a type tag's alias or bare name cannot
// be resolved, per spec.md §7.
type UnknownTypeTagError struct {
	Tag string
}

func (e *UnknownTypeTagError) Error() string {
	return fmt.Sprintf("unknown-type-tag: %q", e.Tag)
}

// ParseTypeTag parses a raw tag string into a TypeTag, without resolving it.
func ParseTypeTag(raw string) (*TypeTag, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, &UnknownTypeTagError{Tag: raw}
	}
	head := fields[0]
	tag := &TypeTag{}
	if i := strings.LastIndex(head, "."); i >= 0 {
		tag.Alias, tag.Name = head[:i], head[i+1:]
	} else {
		tag.Name = head
	}
	if tag.Name == "" {
		return nil, &UnknownTypeTagError{Tag: raw}
	}
	if len(fields) > 1 {
		tag.ParamName = fields[1]
	}
	return tag, nil
}

// ResolveTypeTag resolves a TypeTag to a target-language type identifier,
// consulting the built-in allowlist, then declared aliases, then the
// current namespace's own definitions — the order given in spec.md §6.
func ResolveTypeTag(r *Registry, ns *NamespaceRecord, tag *TypeTag) (string, error) {
	if tag.Alias == "" {
		if mapped, ok := builtinTypeMappings[tag.Name]; ok {
			return mapped, nil
		}
		if _, ok := ns.Definitions[tag.Name]; ok {
			return Mangle(tag.Name), nil
		}
		if core, ok := r.Namespace("core"); ok {
			if mapped, ok := core.SymbolMappings[tag.Name]; ok {
				return mapped, nil
			}
		}
		return "", &UnknownTypeTagError{Tag: tag.String()}
	}
	importAlias, ok := ns.Aliases[tag.Alias]
	if !ok {
		return "", &UnknownTypeTagError{Tag: tag.String()}
	}
	return importAlias + "." + Mangle(tag.Name), nil
}
