// reader.go — the reader collaborator, spec.md §6.
//
// Grounded on the teacher's lexer.go: the same low-level scanning
// primitives (byte-at-a-time advance/peek with running line/col,
// skip-then-scan token boundaries, a dedicated positioned error type) but
// collapsed into one recursive-descent reader instead of a separate
// lexer+parser pass — Lisp's fully-parenthesized grammar is LL(1) on a
// single lookahead byte, so there is no token stream worth materializing
// the way the teacher's line-oriented, whitespace-significant grammar
// needs one.
package clojuredart

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// ErrEOF is returned by Read when no more forms remain, per spec.md §6's
// Reader contract.
var ErrEOF = errors.New("EOF")

// ReadError is a positioned lexical/syntax error, grounded on the
// teacher's *LexError.
type ReadError struct {
	Line, Col int
	Msg       string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// SourcePos implements the sourcedError interface so ReadError renders
// through the same caret-snippet machinery as every other positioned error.
func (e *ReadError) SourcePos() (int, int, string) { return e.Line, e.Col, "READ ERROR" }

// Reader implements spec.md §6's `Reader` interface: `Read() (Form,
// error)`, returning ErrEOF once the source is exhausted.
type Reader struct {
	src  string
	cur  int
	line int
	col  int
	meta *Metadata
}

// NewReader returns a Reader over src. meta, if non-nil, receives any
// `^`-prefixed metadata read along the way; pass nil to discard it.
func NewReader(src string, meta *Metadata) *Reader {
	if meta == nil {
		meta = NewMetadata()
	}
	return &Reader{src: src, line: 1, col: 0, meta: meta}
}

// ReadAll reads every top-level form from src in order, discarding any
// `^`-prefixed metadata encountered along the way. Callers that need that
// metadata (e.g. to resolve a symbol's `^Tag` type hint) should call
// ReadAllWithMeta instead.
func ReadAll(src string) ([]Form, error) {
	forms, _, err := ReadAllWithMeta(src)
	return forms, err
}

// ReadAllWithMeta reads every top-level form from src in order, along with
// the metadata table populated by any `^`-prefixed reader macros encountered.
func ReadAllWithMeta(src string) ([]Form, *Metadata, error) {
	meta := NewMetadata()
	r := NewReader(src, meta)
	var forms []Form
	for {
		f, err := r.Read()
		if errors.Is(err, ErrEOF) {
			return forms, meta, nil
		}
		if err != nil {
			return nil, nil, err
		}
		forms = append(forms, f)
	}
}

func (r *Reader) isAtEnd() bool { return r.cur >= len(r.src) }

func (r *Reader) peek() (byte, bool) {
	if r.isAtEnd() {
		return 0, false
	}
	return r.src[r.cur], true
}

func (r *Reader) peekN(n int) (byte, bool) {
	idx := r.cur + n
	if idx >= len(r.src) {
		return 0, false
	}
	return r.src[idx], true
}

func (r *Reader) advance() (byte, bool) {
	if r.isAtEnd() {
		return 0, false
	}
	ch := r.src[r.cur]
	r.cur++
	if ch == '\n' {
		r.line++
		r.col = 0
	} else {
		r.col++
	}
	return ch, true
}

func (r *Reader) err(msg string) error {
	return &ReadError{Line: r.line, Col: r.col, Msg: msg}
}

// skipAtmosphere consumes whitespace, commas (treated as whitespace, as
// in Clojure), and `;` line comments.
func (r *Reader) skipAtmosphere() {
	for !r.isAtEnd() {
		b, _ := r.peek()
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == ',':
			r.advance()
		case b == ';':
			for !r.isAtEnd() {
				b, _ := r.peek()
				if b == '\n' {
					break
				}
				r.advance()
			}
		default:
			return
		}
	}
}

// Read returns the next top-level form, or ErrEOF when exhausted.
func (r *Reader) Read() (Form, error) {
	r.skipAtmosphere()
	if r.isAtEnd() {
		return nil, ErrEOF
	}
	return r.readForm()
}

func (r *Reader) readForm() (Form, error) {
	r.skipAtmosphere()
	if r.isAtEnd() {
		return nil, r.err("unexpected end of input")
	}
	ch, _ := r.peek()
	switch ch {
	case '(':
		r.advance()
		items, err := r.readUntil(')')
		if err != nil {
			return nil, err
		}
		return Seq{Items: items}, nil
	case '[':
		r.advance()
		items, err := r.readUntil(']')
		if err != nil {
			return nil, err
		}
		return Vector{Items: items}, nil
	case '{':
		r.advance()
		items, err := r.readUntil('}')
		if err != nil {
			return nil, err
		}
		if len(items)%2 != 0 {
			return nil, r.err("map literal requires an even number of forms")
		}
		pairs := make([]MapPair, 0, len(items)/2)
		for i := 0; i < len(items); i += 2 {
			pairs = append(pairs, MapPair{Key: items[i], Val: items[i+1]})
		}
		return MapForm{Pairs: pairs}, nil
	case ')', ']', '}':
		return nil, r.err(fmt.Sprintf("unexpected %q", ch))
	case '"':
		return r.readString()
	case ':':
		return r.readKeyword()
	case '#':
		return r.readHash()
	case '\'':
		r.advance()
		inner, err := r.readForm()
		if err != nil {
			return nil, err
		}
		return Seq{Items: []Form{Symbol{Name: "quote"}, inner}}, nil
	case '^':
		return r.readMeta()
	}
	if isDigitByte(ch) {
		return r.readNumber()
	}
	if ch == '-' || ch == '+' {
		if b2, ok := r.peekN(1); ok && isDigitByte(b2) {
			return r.readNumber()
		}
	}
	return r.readSymbolOrLiteral()
}

func (r *Reader) readUntil(close byte) ([]Form, error) {
	var items []Form
	for {
		r.skipAtmosphere()
		if r.isAtEnd() {
			return nil, r.err(fmt.Sprintf("unterminated form, expected %q", close))
		}
		b, _ := r.peek()
		if b == close {
			r.advance()
			return items, nil
		}
		f, err := r.readForm()
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
}

// readMeta handles `^metadata form`, where metadata is either a map
// literal or a bare keyword (shorthand for `{keyword true}`).
func (r *Reader) readMeta() (Form, error) {
	r.advance() // consume '^'
	metaForm, err := r.readForm()
	if err != nil {
		return nil, err
	}
	target, err := r.readForm()
	if err != nil {
		return nil, err
	}
	switch m := metaForm.(type) {
	case Keyword:
		r.meta.Set(target, m, Bool(true))
	case Symbol:
		// `^Foo x` is shorthand for `^{:tag Foo} x`.
		r.meta.Set(target, Keyword{Name: "tag"}, m)
	case MapForm:
		for _, p := range m.Pairs {
			if k, ok := p.Key.(Keyword); ok {
				r.meta.Set(target, k, p.Val)
			}
		}
	}
	return target, nil
}

func (r *Reader) readHash() (Form, error) {
	r.advance() // consume '#'
	b, ok := r.peek()
	if !ok {
		return nil, r.err("unexpected end of input after '#'")
	}
	if b == '{' {
		r.advance()
		items, err := r.readUntil('}')
		if err != nil {
			return nil, err
		}
		return SetForm{Items: items}, nil
	}
	tagForm, err := r.readForm()
	if err != nil {
		return nil, err
	}
	tagSym, ok := tagForm.(Symbol)
	if !ok {
		return nil, r.err("expected a tag symbol after '#'")
	}
	inner, err := r.readForm()
	if err != nil {
		return nil, err
	}
	return TaggedLiteral{Tag: tagSym, Form: inner}, nil
}

// readString parses a double-quoted string literal, grounded on the
// teacher's scanString escape handling (named escapes, \uXXXX with
// surrogate-pair support).
func (r *Reader) readString() (Form, error) {
	r.advance() // consume opening '"'
	var out []rune
	for {
		if r.isAtEnd() {
			return nil, r.err("string was not terminated")
		}
		ch, _ := r.advance()
		if ch == '"' {
			return String(string(out)), nil
		}
		if ch != '\\' {
			if ch < utf8.RuneSelf {
				out = append(out, rune(ch))
				continue
			}
			r.cur--
			rn, size := utf8.DecodeRuneInString(r.src[r.cur:])
			if rn == utf8.RuneError && size == 1 {
				return nil, r.err("invalid UTF-8 in source")
			}
			out = append(out, rn)
			r.cur += size
			continue
		}
		if r.isAtEnd() {
			return nil, r.err("unfinished escape sequence")
		}
		esc, _ := r.advance()
		switch esc {
		case '"':
			out = append(out, '"')
		case '\\':
			out = append(out, '\\')
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'u':
			hex := make([]byte, 0, 4)
			for i := 0; i < 4; i++ {
				b, ok := r.peek()
				if !ok || !isHexByte(b) {
					return nil, r.err("unicode escape was not terminated (expect 4 hex digits)")
				}
				hex = append(hex, b)
				r.advance()
			}
			v, convErr := strconv.ParseInt(string(hex), 16, 32)
			if convErr != nil {
				return nil, r.err("invalid unicode escape")
			}
			rn := rune(v)
			if utf16.IsSurrogate(rn) {
				if b1, ok := r.peek(); ok && b1 == '\\' {
					save := r.cur
					r.advance()
					if b2, ok := r.peek(); ok && b2 == 'u' {
						r.advance()
						hex2 := make([]byte, 0, 4)
						ok2 := true
						for i := 0; i < 4; i++ {
							b, ok := r.peek()
							if !ok || !isHexByte(b) {
								ok2 = false
								break
							}
							hex2 = append(hex2, b)
							r.advance()
						}
						if ok2 {
							v2, convErr := strconv.ParseInt(string(hex2), 16, 32)
							if convErr == nil {
								dec := utf16.DecodeRune(rn, rune(v2))
								if dec != utf8.RuneError {
									out = append(out, dec)
									continue
								}
							}
						}
					}
					r.cur = save
				}
			}
			out = append(out, rn)
		default:
			return nil, r.err(fmt.Sprintf("invalid escape sequence: \\%c", esc))
		}
	}
}

func (r *Reader) readKeyword() (Form, error) {
	r.advance() // consume ':'
	text := r.scanSymbolChars()
	if text == "" {
		return nil, r.err("malformed keyword")
	}
	ns, name := splitNamespaced(text)
	return Keyword{NS: ns, Name: name}, nil
}

// readNumber parses an integer or float, grounded on the teacher's
// scanNumber (optional digits, optional decimal point, optional exponent),
// extended with an optional leading sign.
func (r *Reader) readNumber() (Form, error) {
	start := r.cur
	if b, ok := r.peek(); ok && (b == '-' || b == '+') {
		r.advance()
	}
	sawDigits := false
	for {
		b, ok := r.peek()
		if !ok || !isDigitByte(b) {
			break
		}
		r.advance()
		sawDigits = true
	}
	sawDot := false
	if b, ok := r.peek(); ok && b == '.' {
		if b2, ok2 := r.peekN(1); ok2 && isDigitByte(b2) {
			r.advance()
			sawDot = true
			for {
				b, ok := r.peek()
				if !ok || !isDigitByte(b) {
					break
				}
				r.advance()
			}
		}
	}
	sawExp := false
	if b, ok := r.peek(); ok && (b == 'e' || b == 'E') {
		save := r.cur
		r.advance()
		if b2, ok := r.peek(); ok && (b2 == '+' || b2 == '-') {
			r.advance()
		}
		if b3, ok := r.peek(); ok && isDigitByte(b3) {
			sawExp = true
			for {
				b4, ok := r.peek()
				if !ok || !isDigitByte(b4) {
					break
				}
				r.advance()
			}
		} else {
			r.cur = save
		}
	}
	if !sawDigits {
		return nil, r.err("malformed number")
	}
	return Number{Text: r.src[start:r.cur], Frac: sawDot || sawExp}, nil
}

// readSymbolOrLiteral reads a bare token and classifies it as nil/true/
// false or a Symbol.
func (r *Reader) readSymbolOrLiteral() (Form, error) {
	text := r.scanSymbolChars()
	if text == "" {
		ch, _ := r.peek()
		return nil, r.err(fmt.Sprintf("unexpected character: %q", ch))
	}
	switch text {
	case "nil":
		return Nil{}, nil
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	}
	ns, name := splitNamespaced(text)
	return Symbol{NS: ns, Name: name}, nil
}

// scanSymbolChars consumes a run of symbol-constituent characters:
// anything that is not whitespace, a comma, or one of the delimiters
// `()[]{}"';#^`. `/` is permitted so a namespace separator can appear
// inside the token; splitNamespaced pulls it back apart afterward.
func (r *Reader) scanSymbolChars() string {
	start := r.cur
	for {
		b, ok := r.peek()
		if !ok || isDelimiter(b) {
			break
		}
		r.advance()
	}
	return r.src[start:r.cur]
}

func isDelimiter(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', ',', '(', ')', '[', ']', '{', '}', '"', ';':
		return true
	}
	return false
}

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }
func isHexByte(b byte) bool {
	return isDigitByte(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// splitNamespaced splits "ns/name" on its last '/'; a bare "/" (the
// division symbol) and names with no '/' are left unsplit.
func splitNamespaced(text string) (ns, name string) {
	if text == "/" {
		return "", "/"
	}
	if i := strings.LastIndexByte(text, '/'); i > 0 && i < len(text)-1 {
		return text[:i], text[i+1:]
	}
	return "", text
}
