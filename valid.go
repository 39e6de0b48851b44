// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jval

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/creachadair/mds/mapset"
)

// An ErrKind classifies the reason an input failed to validate.
type ErrKind int

// Constants defining the valid ErrKind values. The first group reports
// lexical failures, the second grammar failures.
const (
	ErrUnknown ErrKind = iota

	ErrChar     // unexpected character outside any token
	ErrString   // malformed string literal
	ErrNumber   // malformed number literal
	ErrEncoding // input is not valid UTF-8

	ErrToken    // unexpected token
	ErrWant     // a required token is missing
	ErrKey      // object key is not a string
	ErrEOF      // unexpected end of input
	ErrTrailing // data follow the root value
	ErrDepth    // nesting exceeds the depth limit
	ErrDupKey   // duplicate object key
)

var errKindStr = [...]string{
	ErrUnknown:  "unknown error",
	ErrChar:     "unexpected character",
	ErrString:   "invalid string",
	ErrNumber:   "invalid number",
	ErrEncoding: "invalid encoding",
	ErrToken:    "unexpected token",
	ErrWant:     "missing token",
	ErrKey:      "invalid object key",
	ErrEOF:      "unexpected end of input",
	ErrTrailing: "trailing data",
	ErrDepth:    "nesting too deep",
	ErrDupKey:   "duplicate object key",
}

func (k ErrKind) String() string {
	v := int(k)
	if v < 0 || v >= len(errKindStr) {
		return errKindStr[ErrUnknown]
	}
	return errKindStr[v]
}

// SyntaxError is the concrete type of all errors reported by the Scanner and
// the Validator. Lexical and grammatical failures share this type so that the
// caller sees a single uniform result.
type SyntaxError struct {
	Kind     ErrKind
	Offset   int     // byte offset where the error was detected
	Location LineCol // line and column of the offending input
	Message  string

	err error
}

// Error satisfies the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("at %s: %s", e.Location, e.Message)
}

// Unwrap supports error wrapping.
func (e *SyntaxError) Unwrap() error { return e.err }

// defaultMaxDepth is the depth limit applied when the caller does not choose
// one. Deep enough for any plausible document, shallow enough that a pathology
// like a few megabytes of "[" fails cleanly instead of exhausting the stack.
const defaultMaxDepth = 10000

// A Validator checks an input stream against the JSON grammar. The input must
// comprise exactly one JSON value with nothing but whitespace after it.
//
// A Validator reads tokens from its scanner on demand and keeps state
// proportional to the nesting depth of the input, not its total size. Each
// Validator checks a single input; validating another input requires a new
// Validator.
type Validator struct {
	sc       *Scanner
	maxDepth int
	tcomma   bool // allow trailing commas in objects and arrays
	dupKeys  bool // report duplicate object keys
}

// NewValidator constructs a Validator that consumes input from r.
func NewValidator(r io.Reader) *Validator {
	return &Validator{sc: NewScanner(r), maxDepth: defaultMaxDepth}
}

// MaxDepth sets the nesting depth limit. Inputs whose objects and arrays nest
// more than n levels deep are reported as invalid. If n <= 0 the default
// limit is restored.
func (v *Validator) MaxDepth(n int) {
	if n <= 0 {
		n = defaultMaxDepth
	}
	v.maxDepth = n
}

// AllowComments configures the validator to permit (true) or reject (false)
// C++ style comments in the input. Comments are not standard JSON.
func (v *Validator) AllowComments(ok bool) { v.sc.AllowComments(ok) }

// AllowTrailingCommas configures the validator to permit (true) or reject
// (false) a comma before the closing bracket of an object or array.
// Trailing commas are not standard JSON.
func (v *Validator) AllowTrailingCommas(ok bool) { v.tcomma = ok }

// CheckDuplicateKeys configures the validator to report (true) or ignore
// (false) repeated member names within an object. RFC 8259 says only that
// names "should" be unique, so this check is off by default.
func (v *Validator) CheckDuplicateKeys(ok bool) { v.dupKeys = ok }

// Validate consumes the input and reports whether it comprises exactly one
// syntactically valid JSON value. Validation stops at the first error; the
// returned error has concrete type [*SyntaxError].
func (v *Validator) Validate() error {
	if err := v.advance(); err != nil {
		if err == io.EOF {
			return v.failf(ErrEOF, io.EOF, "empty input")
		}
		return err
	}
	if err := v.value(0); err != nil {
		return err
	}

	// The root value must be followed by the end of the input. Anything else,
	// including bytes that do not lex as a token, is trailing data.
	switch err := v.advance(); err {
	case nil:
		return v.failf(ErrTrailing, nil, "unexpected %v after value", v.sc.Token())
	case io.EOF:
		return nil
	default:
		var serr *SyntaxError
		if errors.As(err, &serr) {
			return &SyntaxError{
				Kind:     ErrTrailing,
				Offset:   serr.Offset,
				Location: serr.Location,
				Message:  "trailing data after value",
				err:      err,
			}
		}
		return err
	}
}

// value consumes a single value of any type.
// Precondition: the scanner is positioned on the first token of the value.
func (v *Validator) value(depth int) error {
	switch tok := v.sc.Token(); tok {
	case LBrace:
		return v.object(depth + 1)
	case LSquare:
		return v.array(depth + 1)
	case Integer, Number, String, True, False, Null:
		return nil
	default:
		return v.failf(ErrToken, nil, "unexpected %v", tok)
	}
}

// object consumes zero or more key:value members and the closing brace.
// Precondition: token == LBrace.
func (v *Validator) object(depth int) error {
	if depth > v.maxDepth {
		return v.failf(ErrDepth, nil, "nesting exceeds %d levels", v.maxDepth)
	}

	tok, err := v.expect(ErrKey, RBrace, String)
	if err != nil {
		return err
	} else if tok == RBrace {
		return nil // end of object
	}

	var seen mapset.Set[string]
	if v.dupKeys {
		seen = mapset.New[string]()
	}
	for {
		// Parse a single member: "key": value
		if v.dupKeys {
			key := string(v.sc.Unescape())
			if seen.Has(key) {
				return v.failf(ErrDupKey, nil, "duplicate key %q", key)
			}
			seen.Add(key)
		}
		if _, err := v.expect(ErrWant, Colon); err != nil {
			return err
		}
		if err := v.memberValue(depth); err != nil {
			return err
		}

		// Check whether we have more members (",") or are done ("}").
		tok, err := v.expect(ErrWant, RBrace, Comma)
		if err != nil {
			return err
		} else if tok == RBrace {
			return nil // end of object
		}

		// After a comma the next token must be a key, or, if trailing commas
		// are allowed, the close brace.
		if err := v.advance(); err != nil {
			return v.failAdvance(err, RBrace, String)
		}
		switch tok := v.sc.Token(); tok {
		case String:
			// next member
		case RBrace:
			if v.tcomma {
				return nil // end of object with trailing comma
			}
			return v.failf(ErrToken, nil, "unexpected %v", tok)
		default:
			return v.failf(ErrKey, nil, "expected string key, got %v", tok)
		}
	}
}

// memberValue consumes the value of an object member, including its leading
// token. Missing values are reported distinctly from other token errors.
func (v *Validator) memberValue(depth int) error {
	if err := v.advance(); err != nil {
		return v.failAdvance(err)
	}
	switch tok := v.sc.Token(); tok {
	case RBrace, RSquare, Comma, Colon:
		return v.failf(ErrWant, nil, "expected value, got %v", tok)
	}
	return v.value(depth)
}

// array consumes zero or more comma-separated values and the closing bracket.
// Precondition: token == LSquare.
func (v *Validator) array(depth int) error {
	if depth > v.maxDepth {
		return v.failf(ErrDepth, nil, "nesting exceeds %d levels", v.maxDepth)
	}

	if err := v.advance(); err != nil {
		return v.failAdvance(err)
	}
	if v.sc.Token() == RSquare {
		return nil // end of array
	}
	for {
		if err := v.value(depth); err != nil {
			return err
		}

		tok, err := v.expect(ErrWant, RSquare, Comma)
		if err != nil {
			return err
		} else if tok == RSquare {
			return nil // end of array
		}

		// After a comma the next token must begin a value, or, if trailing
		// commas are allowed, the close bracket. Otherwise the value call
		// below reports it.
		if err := v.advance(); err != nil {
			return v.failAdvance(err)
		}
		if v.tcomma && v.sc.Token() == RSquare {
			return nil // end of array with trailing comma
		}
	}
}

// advance moves the scanner to the next non-comment token. It returns io.EOF
// at the end of the input, or the scanner's error.
func (v *Validator) advance() error {
	for v.sc.Next() {
		if tok := v.sc.Token(); tok == LineComment || tok == BlockComment {
			continue // skip to the next token for the validator
		}
		return nil
	}
	if err := v.sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

// expect advances to the next token and requires it to be one of tokens,
// otherwise it reports an error of the given kind.
func (v *Validator) expect(kind ErrKind, tokens ...Token) (Token, error) {
	if err := v.advance(); err != nil {
		return Invalid, v.failAdvance(err, tokens...)
	}
	tok := v.sc.Token()
	if !slices.Contains(tokens, tok) {
		return Invalid, v.failf(kind, nil, "%s", tokLabel(tokens, tok))
	}
	return tok, nil
}

// failAdvance converts an error from advance into a validation error:
// a lexical error is passed through as-is, end of input becomes an ErrEOF
// mentioning the expected tokens.
func (v *Validator) failAdvance(err error, tokens ...Token) error {
	if err == io.EOF {
		return v.failf(ErrEOF, io.EOF, "%s", tokLabel(tokens, "end of input"))
	}
	return err
}

func (v *Validator) failf(kind ErrKind, cause error, msg string, args ...any) error {
	return &SyntaxError{
		Kind:     kind,
		Offset:   v.sc.Span().Pos,
		Location: v.sc.Location().First,
		Message:  fmt.Sprintf(msg, args...),
		err:      cause,
	}
}

// tokLabel makes a human-readable summary string for the given token types.
func tokLabel(tokens []Token, got any) string {
	if len(tokens) == 0 {
		if s, ok := got.(string); ok {
			return "unexpected " + s
		}
		return fmt.Sprintf("unexpected %v", got)
	}
	var exp string
	if len(tokens) == 1 {
		exp = tokens[0].String()
	} else {
		last := len(tokens) - 1
		ss := make([]string, len(tokens)-1)
		for i, tok := range tokens[:last] {
			ss[i] = tok.String()
		}
		exp = strings.Join(ss, ", ") + " or " + tokens[last].String()
	}
	return fmt.Sprintf("expected %s, got %v", exp, got)
}

// Validate reads a single JSON value from r and reports whether it is valid.
// A nil result means the input was valid; otherwise the error has concrete
// type [*SyntaxError].
func Validate(r io.Reader) error { return NewValidator(r).Validate() }

// ValidateString is shorthand for Validate on a string.
func ValidateString(s string) error { return Validate(strings.NewReader(s)) }

// Valid reports whether data comprises a single valid JSON value.
func Valid(data []byte) bool { return Validate(bytes.NewReader(data)) == nil }
