// mangle.go — source identifier mangling (spec.md §6).
//
// Grounded on the teacher's lexer.go, which resolves each input character
// to a token kind through a dense switch over character classes; we mirror
// that "one switch, one case per character" shape here, but build an output
// *string* instead of a token kind.
package clojuredart

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// targetReserved is the target language's reserved-word set. Mangle wraps
// any source identifier matching one of these as `$name_` so it never
// collides with a keyword in emitted code.
var targetReserved = map[string]bool{
	"abstract": true, "as": true, "assert": true, "async": true, "await": true,
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "covariant": true, "default": true, "deferred": true,
	"do": true, "dynamic": true, "else": true, "enum": true, "export": true,
	"extends": true, "extension": true, "external": true, "factory": true,
	"false": true, "final": true, "finally": true, "for": true, "Function": true,
	"get": true, "hide": true, "if": true, "implements": true, "import": true,
	"in": true, "interface": true, "is": true, "late": true, "library": true,
	"mixin": true, "new": true, "null": true, "on": true, "operator": true,
	"part": true, "required": true, "rethrow": true, "return": true, "set": true,
	"show": true, "static": true, "super": true, "switch": true, "sync": true,
	"this": true, "throw": true, "true": true, "try": true, "typedef": true,
	"var": true, "void": true, "while": true, "with": true, "yield": true,
}

// charSpellings maps a punctuation character that may appear in a source
// identifier to its explicit target-safe spelling. Order of this table
// follows the order given in spec.md §6.
var charSpellings = map[rune]string{
	'-': "_", '_': "$UNDERSCORE_", '$': "$DOLLAR_", ':': "$COLON_",
	'+': "$PLUS_", '>': "$GT_", '<': "$LT_", '=': "$EQ_", '~': "$TILDE_",
	'!': "$BANG_", '@': "$CIRCA_", '#': "$SHARP_", '\'': "$SINGLEQUOTE_",
	'"': "$DOUBLEQUOTE_", '%': "$PERCENT_", '^': "$CARET_", '&': "$AMPERSAND_",
	'*': "$STAR_", '|': "$BAR_", '{': "$LBRACE_", '}': "$RBRACE_",
	'[': "$LBRACK_", ']': "$RBRACK_", '/': "$SLASH_", '\\': "$BSLASH_",
	'?': "$QMARK_",
}

// Mangle transforms a source identifier into a target-safe identifier,
// following the rules of spec.md §6 in order:
//
//  1. `__auto__` becomes `$AUTO_`.
//  2. `__` followed by digits becomes `$digits_`.
//  3. A leading `-` becomes `$_`.
//  4. Reserved words are wrapped `$name_`.
//  5. Remaining characters are spelled out per charSpellings, or, for any
//     other non-alphanumeric rune, `$u<hex>_`.
func Mangle(name string) string {
	if name == "__auto__" {
		return "$AUTO_"
	}
	if rest, ok := stripAutoDigits(name); ok {
		return "$" + rest + "_"
	}
	if targetReserved[name] {
		return "$" + name + "_"
	}

	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i == 0 && r == '-' {
			b.WriteString("$_")
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if sp, ok := charSpellings[r]; ok {
			b.WriteString(sp)
			continue
		}
		fmt.Fprintf(&b, "$u%x_", r)
	}
	return b.String()
}

// stripAutoDigits recognizes the `__<digits>` prefix-exact form (the whole
// name is "__" followed by one or more digits) and returns the digit suffix.
func stripAutoDigits(name string) (string, bool) {
	if !strings.HasPrefix(name, "__") {
		return "", false
	}
	rest := name[2:]
	if rest == "" {
		return "", false
	}
	if _, err := strconv.Atoi(rest); err != nil {
		return "", false
	}
	return rest, true
}
