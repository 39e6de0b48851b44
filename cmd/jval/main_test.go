// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/creachadair/jval"
)

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0600); err != nil {
		t.Fatalf("Writing %s: %v", name, err)
	}
	return path
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  checkOptions
		ok    bool
	}{
		{"Valid", `{"a": [1, 2, 3]}`, checkOptions{}, true},
		{"Invalid", `{"a": [1, 2, 3}`, checkOptions{}, false},
		{"BadEncoding", "\"\xff\"", checkOptions{}, false},
		{"JWCCRejected", `{"a": 1,} // x`, checkOptions{}, false},
		{"JWCCAllowed", `{"a": 1,} // x`, checkOptions{jwcc: true}, true},
		{"DupDefault", `{"a": 1, "a": 2}`, checkOptions{}, true},
		{"DupChecked", `{"a": 1, "a": 2}`, checkOptions{dupKeys: true}, false},
		{"DepthLimited", `[[[[[]]]]]`, checkOptions{maxDepth: 3}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.opts.check([]byte(test.input))
			if got := err == nil; got != test.ok {
				t.Errorf("check %#q: got %v, want valid=%v", test.input, err, test.ok)
			}
		})
	}
}

func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", `{"ok": true}`)
	bad := writeFile(t, dir, "bad.json", `{"ok": }`)
	missing := filepath.Join(dir, "nonesuch.json")

	t.Run("AllValid", func(t *testing.T) {
		var buf bytes.Buffer
		if err := checkFiles(&buf, []string{good, good, good}, checkOptions{}); err != nil {
			t.Errorf("checkFiles: unexpected error: %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("checkFiles: unexpected diagnostics: %q", buf.String())
		}
	})

	t.Run("SomeInvalid", func(t *testing.T) {
		var buf bytes.Buffer
		err := checkFiles(&buf, []string{good, bad, missing}, checkOptions{})
		if err == nil {
			t.Error("checkFiles: no error reported")
		}
		out := buf.String()
		if !strings.Contains(out, "bad.json") || !strings.Contains(out, "nonesuch.json") {
			t.Errorf("Diagnostics missing a file name:\n%s", out)
		}
		if strings.Contains(out, "good.json") {
			t.Errorf("Diagnostics mention a valid file:\n%s", out)
		}
	})

	t.Run("Quiet", func(t *testing.T) {
		var buf bytes.Buffer
		err := checkFiles(&buf, []string{bad}, checkOptions{quiet: true})
		if err == nil {
			t.Error("checkFiles: no error reported")
		}
		if buf.Len() != 0 {
			t.Errorf("checkFiles: unexpected diagnostics: %q", buf.String())
		}
	})
}

func TestFixFile(t *testing.T) {
	const jwcc = `{
  // settings
  "a": 1,
  "b": [2, 3,],
}`
	dir := t.TempDir()
	path := writeFile(t, dir, "conf.jwcc", jwcc)

	var buf bytes.Buffer
	if err := fixFile(&buf, path, false); err != nil {
		t.Fatalf("fixFile: unexpected error: %v", err)
	}

	// The standardized output must pass strict validation.
	if err := jval.Validate(&buf); err != nil {
		t.Errorf("Fixed output is not valid JSON: %v", err)
	}

	t.Run("Overwrite", func(t *testing.T) {
		var sink bytes.Buffer
		if err := fixFile(&sink, path, true); err != nil {
			t.Fatalf("fixFile: unexpected error: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Reading fixed file: %v", err)
		}
		if !jval.Valid(data) {
			t.Errorf("Fixed file is not valid JSON: %q", data)
		}
		if sink.Len() != 0 {
			t.Errorf("Unexpected output with -w: %q", sink.String())
		}
	})
}
