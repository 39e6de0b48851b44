// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jval

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/creachadair/jval/internal/escape"
	"go4.org/mem"
)

// Token is the type of a lexical token in the JSON grammar.
type Token byte

// Constants defining the valid Token values.
const (
	Invalid Token = iota // invalid token
	LBrace               // left brace "{"
	RBrace               // right brace "}"
	LSquare              // left square bracket "["
	RSquare              // right square bracket "]"
	Comma                // comma ","
	Colon                // colon ":"
	Integer              // number: integer with no fraction or exponent
	Number               // number with fraction and/or exponent
	String               // quoted string
	True                 // constant: true
	False                // constant: false
	Null                 // constant: null

	BlockComment // comment: /* ... */
	LineComment  // comment: // ... <LF>

	// Do not modify the order of these constants without updating the
	// self-delimiting token check below.
)

var tokenStr = [...]string{
	Invalid: "invalid token",
	LBrace:  `"{"`,
	RBrace:  `"}"`,
	LSquare: `"["`,
	RSquare: `"]"`,
	Comma:   `","`,
	Colon:   `":"`,
	Integer: "integer",
	Number:  "number",
	String:  "string",
	True:    "true",
	False:   "false",
	Null:    "null",

	BlockComment: "block commment",
	LineComment:  "line comment",
}

func (t Token) String() string {
	v := int(t)
	if v >= len(tokenStr) {
		return tokenStr[Invalid]
	}
	return tokenStr[v]
}

// A Scanner reads lexical tokens from an input stream.  Each call to Next
// advances the scanner to the next token, or reports an error.
type Scanner struct {
	r        *bufio.Reader
	comments bool         // allow comments
	buf      bytes.Buffer // current token
	tok      Token
	err      error

	pos, end int // start and end offsets of current token
	last     int // size in bytes of last-read input rune

	// Apparent line and column offsets (0-based)
	pline, pcol int
	eline, ecol int

	// Saved offsets for a one-rune unread.
	uline, ucol int
}

// NewScanner constructs a new lexical scanner that consumes input from r.
func NewScanner(r io.Reader) *Scanner {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Scanner{r: br}
}

// AllowComments configures the scanner to report (true) or reject (false)
// comment tokens. Comments are a non-standard exension of the JSON spec.  If
// enabled, C++ style block comments (/* ... */) and line comments (// ...)
// are recognized and emitted as tokens.
func (s *Scanner) AllowComments(ok bool) { s.comments = ok }

// Next advances s to the next token of the input and reports whether one is
// available.  Next returns false at the end of input or in case of error; the
// caller must check Err to distinguish the two.
func (s *Scanner) Next() bool {
	s.buf.Reset()
	s.err = nil
	s.tok = Invalid
	s.pos, s.pline, s.pcol = s.end, s.eline, s.ecol

	for {
		ch, err := s.rune()
		if err == io.EOF {
			return false
		} else if err != nil {
			return s.fail(errKindOf(err), err)
		}

		// Discard whitespace.
		if isSpace(ch) {
			s.pos, s.pline, s.pcol = s.end, s.eline, s.ecol
			continue
		}

		// Handle punctuation.
		if t, ok := selfDelim(ch); ok {
			s.buf.WriteRune(ch)
			s.tok = t
			return true
		}

		// Handle numbers.
		if isNumStart(ch) {
			return s.scanNumber(ch)
		}

		// Handle string values.
		if ch == '"' {
			return s.scanString(ch)
		}

		// Handle comments, if enabled.
		if ch == '/' && s.comments {
			return s.scanComment(ch)
		}

		// Handle constants: true, false, null
		var want mem.RO
		switch ch {
		case 't':
			s.tok = True
			want = mem.S("true")
		case 'f':
			s.tok = False
			want = mem.S("false")
		case 'n':
			s.tok = Null
			want = mem.S("null")
		default:
			return s.failf(ErrChar, nil, "unexpected %q", ch)
		}
		if !s.scanName(ch) {
			return false
		} else if got := mem.B(s.buf.Bytes()); !got.Equal(want) {
			return s.failf(ErrChar, nil, "unknown constant %q", got.StringCopy())
		}
		return true // OK, token is already set
	}
}

// Token returns the type of the current token.
func (s *Scanner) Token() Token { return s.tok }

// Err returns the error that terminated scanning, or nil if scanning ended at
// the end of the input.
func (s *Scanner) Err() error { return s.err }

// Text returns the undecoded text of the current token.  The return value is
// only valid until the next call of Next. The caller must copy the contents of
// the returned slice if it is needed beyond that.
func (s *Scanner) Text() []byte { return s.buf.Bytes() }

// Copy returns a copy of the undecoded text of the current token.
func (s *Scanner) Copy() []byte { return append([]byte(nil), s.buf.Bytes()...) }

// Span returns the location span of the current token.
func (s *Scanner) Span() Span { return Span{Pos: s.pos, End: s.end} }

// Location returns the complete location of the current token.
func (s *Scanner) Location() Location {
	return Location{
		Span:  s.Span(),
		First: LineCol{Line: s.pline + 1, Column: s.pcol},
		Last:  LineCol{Line: s.eline + 1, Column: s.ecol},
	}
}

// Int64 returns the value of the current token as an int64.
// It panics if the current token is not an Integer.
func (s *Scanner) Int64() int64 {
	if s.tok != Integer {
		panic(fmt.Sprintf("token is %v, not integer", s.tok))
	}
	v, err := strconv.ParseInt(s.buf.String(), 10, 64)
	if err != nil {
		panic(err)
	}
	return v
}

// Float64 returns the value of the current token as a float64.
// It panics if the current token is not an Integer or a Number.
func (s *Scanner) Float64() float64 {
	if s.tok != Integer && s.tok != Number {
		panic(fmt.Sprintf("token is %v, not a number", s.tok))
	}
	v, err := strconv.ParseFloat(s.buf.String(), 64)
	if err != nil {
		panic(err)
	}
	return v
}

// Unescape returns the decoded value of the current token with its quotation
// marks removed and escape sequences replaced. It panics if the current token
// is not a String. The scanner has already verified the escapes, so decoding
// cannot fail.
func (s *Scanner) Unescape() []byte {
	if s.tok != String {
		panic(fmt.Sprintf("token is %v, not string", s.tok))
	}
	text := s.buf.Bytes()
	dec, err := escape.Unquote(mem.B(text[1 : len(text)-1]))
	if err != nil {
		panic(err)
	}
	return dec
}

func (s *Scanner) scanString(open rune) bool {
	s.buf.WriteRune(open)
	var esc bool
	for {
		ch, err := s.rune()
		if err == io.EOF {
			return s.failf(ErrString, err, "unterminated string")
		} else if err != nil {
			return s.fail(errKindOf(err), err)
		} else if ch == open && !esc {
			s.buf.WriteRune(ch)
			s.tok = String
			return true
		}
		if esc {
			// We are awaiting the completion of a \-escape.
			switch ch {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				s.buf.WriteByte(byte(ch))
			case 'u':
				s.buf.WriteByte(byte(ch))
				if err := s.readHex4(); err != nil {
					return s.failf(ErrString, err, "invalid Unicode escape: %v", err)
				}
			default:
				return s.failf(ErrString, nil, "invalid %q after escape", ch)
			}
			esc = false
		} else if ch < ' ' {
			return s.failf(ErrString, nil, "unescaped control %q", ch)
		} else {
			s.buf.WriteRune(ch)
			esc = ch == '\\'
		}
	}
}

func (s *Scanner) scanNumber(start rune) bool {
	s.buf.WriteRune(start)

	if start == '-' {
		// If there is a leading sign, we need at least one digit.
		// Otherwise, we already have one in start.
		ch, ok := s.require(isDigit, "digit")
		if !ok {
			return false
		}
		s.buf.WriteRune(ch)
	}

	// Consume the remainder of an integer.
	_, ch, err := s.readWhile(isDigit)
	if err != nil && err != io.EOF {
		return s.fail(errKindOf(err), err)
	}

	// Check for extra leading zeroes, which are disallowed by the JSON spec.
	// That is: 0.12 is OK, 01.2 is not.
	if hasExtraLeadingZeroes(s.buf.Bytes()) {
		return s.failf(ErrNumber, nil, "extra leading zeroes")
	}
	if err == io.EOF {
		s.tok = Integer
		return true
	}

	// If a decimal point follows, consume a fractional part.
	var isFloat bool
	if ch == '.' {
		s.buf.WriteRune(ch)
		var nr int
		nr, ch, err = s.readWhile(isDigit)
		if err != nil && err != io.EOF {
			return s.fail(errKindOf(err), err)
		} else if nr == 0 {
			return s.failf(ErrNumber, nil, "no digits after decimal point")
		}
		isFloat = true
		if err == io.EOF {
			s.tok = Number
			return true
		}
	}

	// If an exponent follows, consume it.
	if ch != 'E' && ch != 'e' {
		s.unrune()
		if isFloat {
			s.tok = Number
		} else {
			s.tok = Integer
		}
		return true
	}

	s.buf.WriteRune(ch)
	ch, ok := s.require(isExpStart, "sign or digit")
	if !ok {
		return false
	}
	s.buf.WriteRune(ch)
	nr, _, err := s.readWhile(isDigit)
	if nr == 0 && (ch == '-' || ch == '+') {
		// It's OK to have no digits if the previous rune was not a sign,
		// otherwise we have to have at least one.
		return s.failf(ErrNumber, nil, "missing exponent digits")
	} else if err == io.EOF {
		s.tok = Number
		return true
	} else if err != nil {
		return s.fail(errKindOf(err), err)
	}
	s.unrune()
	s.tok = Number
	return true
}

func (s *Scanner) scanComment(first rune) bool {
	s.buf.WriteRune(first)
	ch, err := s.rune()
	if err != nil {
		return s.failf(ErrChar, err, "incomplete comment")
	}
	switch ch {
	case '/': // line comment to LF
		s.buf.WriteRune(ch)
		_, end, err := s.readWhile(isNotLF)
		if err == nil {
			s.buf.WriteRune(end)
		} else if err != io.EOF {
			return s.fail(errKindOf(err), err)
		}
		s.tok = LineComment
		return true

	case '*': // block comment
		s.buf.WriteRune(ch)
		for {
			_, end, err := s.readWhile(isNotStar)
			if err != nil {
				return s.failf(ErrChar, err, "unterminated block comment")
			}
			s.buf.WriteRune(end) // end == '*'

			// Check whether we have "*/", which would end the comment.
			next, err := s.rune()
			if err != nil {
				return s.failf(ErrChar, err, "unterminated block comment")
			}
			s.buf.WriteRune(next)
			if next == '/' {
				s.tok = BlockComment
				return true
			}

			// We saw "*" but not "/", so keep scanning for the end of the block.
		}

	default:
		s.unrune()
		return s.failf(ErrChar, nil, "invalid %q in comment", ch)
	}
}

func (s *Scanner) scanName(first rune) bool {
	s.buf.WriteRune(first)
	_, _, err := s.readWhile(isNameRune)
	if err == io.EOF {
		return true
	} else if err != nil {
		return s.fail(errKindOf(err), err)
	}
	s.unrune()
	return true
}

var errEncoding = errors.New("invalid UTF-8 encoding")

func (s *Scanner) rune() (rune, error) {
	ch, nb, err := s.r.ReadRune()
	if ch == utf8.RuneError && nb == 1 {
		err = errEncoding
	}
	s.last = nb
	s.end += nb
	s.uline, s.ucol = s.eline, s.ecol
	if ch == '\n' {
		s.eline++
		s.ecol = 0
	} else {
		s.ecol += nb
	}
	return ch, err
}

func (s *Scanner) unrune() {
	s.end -= s.last
	s.eline, s.ecol = s.uline, s.ucol
	s.last = 0
	s.r.UnreadRune()
}

// require reads a single rune matching f from the input, or reports an error
// mentioning the desired label.
func (s *Scanner) require(f func(rune) bool, label string) (rune, bool) {
	ch, err := s.rune()
	if err != nil {
		return 0, s.failf(ErrNumber, err, "want %s, got error: %v", label, err)
	} else if !f(ch) {
		s.unrune()
		return 0, s.failf(ErrNumber, nil, "got %q, want %s", ch, label)
	}
	return ch, true
}

// readWhile consumes runes matching f from the input until EOF or until a rune
// not matching f is found. The first non-matching rune (if any) is returned.
// It is the caller's responsibility to unread this rune, if desired.
// The int reports the number of runes consumed.
func (s *Scanner) readWhile(f func(rune) bool) (int, rune, error) {
	var nr int
	for {
		ch, err := s.rune()
		if err != nil {
			return nr, 0, err
		} else if !f(ch) {
			return nr, ch, nil
		}
		s.buf.WriteRune(ch)
		nr++
	}
}

// readHex4 reads exactly 4 hexadecimal digits from the input.
func (s *Scanner) readHex4() error {
	for i := 0; i < 4; i++ {
		ch, err := s.rune()
		if err != nil {
			return err
		} else if !isHexDigit(ch) {
			return fmt.Errorf("not a hex digit: %q", ch)
		}
		s.buf.WriteRune(ch)
	}
	return nil
}

// errKindOf maps a read error to the error kind it should be reported as.
func errKindOf(err error) ErrKind {
	if err == errEncoding {
		return ErrEncoding
	}
	return ErrChar
}

func (s *Scanner) fail(kind ErrKind, err error) bool {
	return s.failf(kind, err, "%v", err)
}

func (s *Scanner) failf(kind ErrKind, cause error, msg string, args ...any) bool {
	s.err = &SyntaxError{
		Kind:     kind,
		Offset:   s.end,
		Location: LineCol{Line: s.eline + 1, Column: s.ecol},
		Message:  fmt.Sprintf(msg, args...),
		err:      cause,
	}
	return false
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\r' || ch == '\n' || ch == '\t'
}

func isNotStar(ch rune) bool  { return ch != '*' }
func isNotLF(ch rune) bool    { return ch != '\n' }
func isNumStart(ch rune) bool { return ch == '-' || isDigit(ch) }
func isExpStart(ch rune) bool { return ch == '-' || ch == '+' || isDigit(ch) }
func isDigit(ch rune) bool    { return '0' <= ch && ch <= '9' }
func isNameRune(ch rune) bool { return ch >= 'a' && ch <= 'z' }

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// hasExtraLeadingZeroes reports whether the representation of an integer in
// buf has redundant leading zeroes, disallowed by the spec.
//
// OK: 0, 0.1, -1.0, -0.1 are all OK.
// Bad: -01, 01.2, -01.0, 00.1.
func hasExtraLeadingZeroes(buf []byte) bool {
	if buf[0] == '-' {
		buf = buf[1:] // skip leading sign
	}
	if buf[0] == '0' {
		// A leading zero is OK if it's the only digit.
		return len(buf) > 1
	}
	return false
}

var self = [...]Token{LBrace, RBrace, LSquare, RSquare, Comma, Colon}

func selfDelim(ch rune) (Token, bool) {
	i := strings.IndexRune("{}[],:", ch)
	if i >= 0 {
		return self[i], true
	}
	return Invalid, false
}
