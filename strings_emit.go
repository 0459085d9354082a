// strings_emit.go — string-literal escaping, spec.md §4.4.
//
// Grounded on the teacher's printer.go string-escaping helper (a rune-at-a-
// time switch over named C-style escapes, falling back to a zero-padded hex
// escape for remaining control characters).
package clojuredart

import "fmt"

// namedEscapes maps a rune to its C-style named escape sequence.
var namedEscapes = map[rune]string{
	'\b': `\b`, '\n': `\n`, '\r': `\r`, '\t': `\t`, '\f': `\f`, '\v': `\v`,
}

// EscapeStringLiteral renders s as a target-language double-quoted string
// literal body (without the surrounding quotes), escaping the quote
// character, the interpolation sigil `$`, and control characters per
// spec.md §4.4.
func EscapeStringLiteral(s string) string {
	var b []byte
	for _, r := range s {
		switch {
		case r == '"':
			b = append(b, `\"`...)
		case r == '\\':
			b = append(b, `\\`...)
		case r == '$':
			b = append(b, `\$`...)
		default:
			if esc, ok := namedEscapes[r]; ok {
				b = append(b, esc...)
				continue
			}
			if r >= 0x00 && r <= 0x1f {
				b = append(b, fmt.Sprintf(`\x%02x`, r)...)
				continue
			}
			b = append(b, []byte(string(r))...)
		}
	}
	return string(b)
}
