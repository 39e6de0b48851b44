// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jval_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/creachadair/jval"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		// Minimal values of each type.
		{`{}`, true},
		{`[]`, true},
		{`""`, true},
		{`0`, true},
		{`-0`, true},
		{`true`, true},
		{`false`, true},
		{`null`, true},

		// Compound documents.
		{`{"a": 1, "b": [true, false, null]}`, true},
		{`[[], {}, [{}], {"x": []}]`, true},
		{`{"nested": {"more": {"even more": [1, 2.5, -3e+9]}}}`, true},
		{`   [1, 2, 3]   `, true},
		{"\t{\"a\":\r\n 1}\n", true},
		{`"escape me: \" \\ \/ \b \f \n \r \t \u2028"`, true},
		{`-0.001e-100`, true},

		// Whitespace and emptiness.
		{``, false},
		{`   `, false},
		{"\n\t\r ", false},

		// Grammar violations.
		{`{`, false},
		{`}`, false},
		{`[`, false},
		{`]`, false},
		{`{]`, false},
		{`[}`, false},
		{`{"a": 1,}`, false},
		{`[1, 2,]`, false},
		{`[,]`, false},
		{`[1,,2]`, false},
		{`{1: 2}`, false},
		{`{"a" 1}`, false},
		{`{"a":}`, false},
		{`{"a": 1 "b": 2}`, false},
		{`{"a": 1, 2}`, false},
		{`[1 2]`, false},
		{`:`, false},
		{`,`, false},

		// Lexical violations.
		{`{"a": 01}`, false},
		{`{"a": "unterminated`, false},
		{`"\u12"`, false},
		{`truex`, false},
		{`nul`, false},
		{`'single'`, false},

		// Trailing data.
		{`{} x`, false},
		{`{} {}`, false},
		{`1 2`, false},
		{`null,`, false},

		// Comments are not standard JSON.
		{`{"a": 1} // done`, false},
		{`/* hi */ []`, false},
	}

	for _, test := range tests {
		err := jval.ValidateString(test.input)
		if got := err == nil; got != test.ok {
			t.Errorf("Validate %#q: got %v, want valid=%v", test.input, err, test.ok)
		}

		// Validation is a pure function of the input.
		again := jval.ValidateString(test.input)
		if (err == nil) != (again == nil) {
			t.Errorf("Validate %#q: verdict changed on re-run: %v then %v", test.input, err, again)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		input string
		kind  jval.ErrKind
	}{
		// Lexical failures keep their scanner classification.
		{`@`, jval.ErrChar},
		{`truex`, jval.ErrChar},
		{`{"a": 01}`, jval.ErrNumber},
		{`{"a": "unterminated`, jval.ErrString},
		{`"\u12"`, jval.ErrString},
		{"[\"ok\", \"\xffbad\"]", jval.ErrEncoding},

		// Grammar failures.
		{``, jval.ErrEOF},
		{`  `, jval.ErrEOF},
		{`{`, jval.ErrEOF},
		{`[`, jval.ErrEOF},
		{`{"true":1,`, jval.ErrEOF},
		{`}`, jval.ErrToken},
		{`{"a": 1,}`, jval.ErrToken},
		{`[1, 2,]`, jval.ErrToken},
		{`{1: 2}`, jval.ErrKey},
		{`{false: 1}`, jval.ErrKey},
		{`{"a": 1, 2: 3}`, jval.ErrKey},
		{`{"a" 1}`, jval.ErrWant},
		{`{"a":}`, jval.ErrWant},
		{`{"a": 1 "b": 2}`, jval.ErrWant},
		{`[1 2]`, jval.ErrWant},

		// Trailing data, whether or not the extra bytes lex.
		{`{} x`, jval.ErrTrailing},
		{`{} {}`, jval.ErrTrailing},
		{`1 2`, jval.ErrTrailing},
	}

	for _, test := range tests {
		err := jval.ValidateString(test.input)
		if err == nil {
			t.Errorf("Validate %#q: unexpectedly valid", test.input)
			continue
		}
		var serr *jval.SyntaxError
		if !errors.As(err, &serr) {
			t.Errorf("Validate %#q: error %v is not a SyntaxError", test.input, err)
		} else if serr.Kind != test.kind {
			t.Errorf("Validate %#q: got kind %v, want %v", test.input, serr.Kind, test.kind)
		}
	}
}

func TestErrorLocation(t *testing.T) {
	err := jval.ValidateString("{\n  \"a\": @\n}")
	var serr *jval.SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("Validate: got %v, want a SyntaxError", err)
	}
	if serr.Kind != jval.ErrChar {
		t.Errorf("Kind: got %v, want %v", serr.Kind, jval.ErrChar)
	}
	if serr.Location.Line != 2 {
		t.Errorf("Line: got %d, want 2", serr.Location.Line)
	}
	if !strings.Contains(err.Error(), "at 2:") {
		t.Errorf("Error %q does not mention line 2", err.Error())
	}
}

func TestTrailingUnwrap(t *testing.T) {
	err := jval.ValidateString(`[] @`)
	var serr *jval.SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("Validate: got %v, want a SyntaxError", err)
	}
	if serr.Kind != jval.ErrTrailing {
		t.Errorf("Kind: got %v, want %v", serr.Kind, jval.ErrTrailing)
	}

	// The lexical error in the trailing bytes is preserved underneath.
	var lex *jval.SyntaxError
	if !errors.As(errors.Unwrap(serr), &lex) {
		t.Fatalf("Unwrap: got %v, want a SyntaxError", errors.Unwrap(serr))
	}
	if lex.Kind != jval.ErrChar {
		t.Errorf("Wrapped kind: got %v, want %v", lex.Kind, jval.ErrChar)
	}
}

func TestDepthLimit(t *testing.T) {
	nest := func(n int) string {
		return strings.Repeat("[", n) + strings.Repeat("]", n)
	}
	const limit = 64

	t.Run("AtLimit", func(t *testing.T) {
		v := jval.NewValidator(strings.NewReader(nest(limit)))
		v.MaxDepth(limit)
		if err := v.Validate(); err != nil {
			t.Errorf("Validate: unexpected error: %v", err)
		}
	})
	t.Run("PastLimit", func(t *testing.T) {
		v := jval.NewValidator(strings.NewReader(nest(limit + 1)))
		v.MaxDepth(limit)
		checkKind(t, v.Validate(), jval.ErrDepth)
	})
	t.Run("MixedNesting", func(t *testing.T) {
		v := jval.NewValidator(strings.NewReader(`{"a": [{"b": [0]}]}`))
		v.MaxDepth(3)
		checkKind(t, v.Validate(), jval.ErrDepth)
	})
	t.Run("DefaultLimit", func(t *testing.T) {
		// A long run of open brackets must fail cleanly, not exhaust the stack.
		v := jval.NewValidator(strings.NewReader(strings.Repeat("[", 500000)))
		checkKind(t, v.Validate(), jval.ErrDepth)
	})
}

func TestTrailingCommas(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{`{"a": 1,}`, true},
		{`[1, 2,]`, true},
		{`{"a": [1,],}`, true},
		{`[,]`, false}, // a leading comma is not a trailing comma
		{`[1,,]`, false},
		{`{,}`, false},
		{`{"a":,}`, false},
	}
	for _, test := range tests {
		v := jval.NewValidator(strings.NewReader(test.input))
		v.AllowTrailingCommas(true)
		err := v.Validate()
		if got := err == nil; got != test.ok {
			t.Errorf("Validate %#q: got %v, want valid=%v", test.input, err, test.ok)
		}
	}
}

func TestComments(t *testing.T) {
	const input = `{
  "a": 1, // line comment
  "b": /* inline */ [true]
} // the end`

	if err := jval.ValidateString(input); err == nil {
		t.Error("Validate: comments were unexpectedly accepted")
	}

	v := jval.NewValidator(strings.NewReader(input))
	v.AllowComments(true)
	if err := v.Validate(); err != nil {
		t.Errorf("Validate with comments: unexpected error: %v", err)
	}
}

func TestDuplicateKeys(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{`{"a": 1, "b": 2}`, true},
		{`{"a": {"a": 1}}`, true}, // same name at different depths
		{`[{"a": 1}, {"a": 2}]`, true},
		{`{"a": 1, "a": 2}`, false},
		{`{"a": 1, "b": {"c": 2, "c": 3}}`, false},
		{`{"a": 1, "\u0061": 2}`, false}, // names compare after unescaping
	}
	for _, test := range tests {
		// Without the option, duplicates are not an error.
		if err := jval.ValidateString(test.input); err != nil {
			t.Errorf("Validate %#q: unexpected error: %v", test.input, err)
		}

		v := jval.NewValidator(strings.NewReader(test.input))
		v.CheckDuplicateKeys(true)
		err := v.Validate()
		if test.ok {
			if err != nil {
				t.Errorf("Validate %#q: unexpected error: %v", test.input, err)
			}
		} else {
			checkKind(t, err, jval.ErrDupKey)
		}
	}
}

func TestValid(t *testing.T) {
	if !jval.Valid([]byte(`{"ok": true}`)) {
		t.Error("Valid: got false, want true")
	}
	if jval.Valid([]byte(`{"ok": truish}`)) {
		t.Error("Valid: got true, want false")
	}
}

func checkKind(t *testing.T, err error, want jval.ErrKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("Got nil, want a SyntaxError of kind %v", want)
	}
	var serr *jval.SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("Error %v is not a SyntaxError", err)
	}
	if serr.Kind != want {
		t.Errorf("Got kind %v, want %v", serr.Kind, want)
	}
}
