// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jval implements a JSON lexical scanner and a syntax validator.
//
// # Scanning
//
// The Scanner type implements a lexical scanner for JSON.  Construct a
// scanner from an io.Reader and call its Next method to iterate over the
// stream. Next advances to the next input token and reports whether one is
// available:
//
//	s := jval.NewScanner(input)
//	for s.Next() {
//	   log.Printf("Next token: %v", s.Token())
//	}
//
// Next returns false when the input is exhausted or an error occurs. After
// Next returns false, Err returns nil if scanning ended at the end of the
// input, otherwise the lexical or I/O error that stopped it:
//
//	if s.Err() != nil {
//	   log.Fatalf("Scanning failed: %v", s.Err())
//	}
//
// # Validating
//
// The Validator type checks that an input comprises exactly one syntactically
// valid JSON value (RFC 8259) with nothing but whitespace after it. Construct
// a Validator from an io.Reader and call its Validate method. Validate
// returns nil for valid input; otherwise it returns an error of concrete type
// [*SyntaxError] describing the first problem found:
//
//	v := jval.NewValidator(input)
//	if err := v.Validate(); err != nil {
//	   log.Fatalf("Invalid: %v", err)
//	}
//
// The [Validate], [ValidateString], and [Valid] functions are shorthand for
// the common cases.
//
// A SyntaxError carries an [ErrKind] classifying the failure, the byte
// offset, and the line and column where it was detected. Validation stops at
// the first error; there is no recovery or partial result.
//
// By default the validator accepts standard JSON only. The AllowComments and
// AllowTrailingCommas options tolerate the usual extensions, and
// CheckDuplicateKeys tightens validation to reject objects that repeat a
// member name. A depth limit (settable with MaxDepth) bounds resource use on
// adversarially nested input.
package jval
