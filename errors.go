// errors.go — error taxonomy and caret-snippet rendering, spec.md §7.
//
// The taxonomy below (BadAssignmentError, RecurOutsideTailError, ...; an
// unknown symbol is registry.go's ResolveError) is new:
// it replaces the teacher's *LexError/*ParseError/*RuntimeError, which
// described a running interpreter's failures rather than a compiler's.
// WrapErrorWithSource's algorithm — clamp line/col, one line of context each
// side, caret padded to the 1-based column — is kept verbatim from the
// teacher, since that rendering has nothing to do with what kind of error
// it's rendering.
package clojuredart

import (
	"fmt"
	"strings"
)

// BadAssignmentError is raised when a `set!` target is neither a mutable
// local nor a `.-field`-shaped field access.
type BadAssignmentError struct {
	Target string
}

func (e *BadAssignmentError) Error() string {
	return fmt.Sprintf("bad-assignment: %s is not a mutable local or field access", e.Target)
}

// RecurAcrossBoundaryError is raised when a `recur` traverses a `try`.
type RecurAcrossBoundaryError struct{}

func (e *RecurAcrossBoundaryError) Error() string {
	return "recur-across-boundary: recur may not traverse a try"
}

// RecurArityMismatchError is raised when a recur's argument count does not
// equal its enclosing loop/fn's binding count.
type RecurArityMismatchError struct {
	Expected, Got int
}

func (e *RecurArityMismatchError) Error() string {
	return fmt.Sprintf("recur-arity-mismatch: expected %d argument(s), got %d", e.Expected, e.Got)
}

// DocStringMisplacedError is raised when `def` receives a non-string in the
// doc-string position.
type DocStringMisplacedError struct {
	Got string
}

func (e *DocStringMisplacedError) Error() string {
	return fmt.Sprintf("doc-string-misplaced: expected a string, got %s", e.Got)
}

// UnsupportedImportSpecError is raised when an `ns` form's import clause
// does not match a recognized shape.
type UnsupportedImportSpecError struct {
	Spec string
}

func (e *UnsupportedImportSpecError) Error() string {
	return fmt.Sprintf("unsupported-import-spec: %s", e.Spec)
}

// UnsupportedLiteralError is raised when a surface form's literal shape is
// not one this compiler understands (e.g. a malformed named-argument tail).
type UnsupportedLiteralError struct {
	Detail string
}

func (e *UnsupportedLiteralError) Error() string {
	return fmt.Sprintf("unsupported-literal: %s", e.Detail)
}

// RecurOutsideTailError is raised when `recur` appears outside tail
// position of its enclosing loop/fn body.
type RecurOutsideTailError struct{}

func (e *RecurOutsideTailError) Error() string {
	return "recur-outside-tail: recur must appear only in tail position"
}

// RecurWithoutTargetError is raised when `recur` appears with no enclosing
// loop or function to target.
type RecurWithoutTargetError struct{}

func (e *RecurWithoutTargetError) Error() string {
	return "recur-without-target: recur has no enclosing loop or fn"
}

// sourcedError is implemented by any error that knows its own 1-based
// source position, letting WrapErrorWithSource render a caret snippet
// without a type-switch over every taxonomy member.
type sourcedError interface {
	error
	SourcePos() (line, col int, label string)
}

// PositionedError wraps any of the typed errors above with the source
// position of the form that triggered it.
type PositionedError struct {
	Err        error
	Line, Col  int
	Label      string // e.g. "UNKNOWN SYMBOL"
}

func (e *PositionedError) Error() string { return e.Err.Error() }

func (e *PositionedError) SourcePos() (int, int, string) { return e.Line, e.Col, e.Label }

func (e *PositionedError) Unwrap() error { return e.Err }

// WrapErrorWithSource returns err augmented with a caret-annotated snippet
// of src, when err carries a source position. Errors with no position are
// returned unchanged.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName is WrapErrorWithSource plus a source-file name shown in
// the header line ("... in <name> at L:C: ...").
func WrapErrorWithName(err error, srcName string, src string) error {
	se, ok := err.(sourcedError)
	if !ok {
		return err
	}
	line, col, label := se.SourcePos()
	return fmt.Errorf("%s", prettyErrorStringLabeled(src, label, srcName, line, col, se.Error()))
}

// prettyErrorStringLabeled builds a Python-style snippet with a header and a
// caret, showing at most one previous and one next line. Coordinates are
// 1-based and clamped to the source bounds.
func prettyErrorStringLabeled(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad < 0 {
		caretPad = 0
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
