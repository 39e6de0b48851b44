// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Program jval checks that its input is syntactically valid JSON.
//
// Each file named on the command line (or stdin, if none are named) is
// validated independently. The exit status is 0 if every input was valid,
// nonzero otherwise, with one diagnostic line per invalid input.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"unicode/utf8"

	"github.com/creachadair/jval"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	root := newRootCmd()
	root.AddCommand(newFixCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "jval [flags] [file...]",
		Short: "Check that files contain valid JSON",
		Long: `Check that files contain syntactically valid JSON (RFC 8259).

Each named file is validated independently; with no arguments, input is
read from stdin. The exit status is 0 if every input was valid.

With --jwcc, comments (// ... and /* ... */) and trailing commas are
tolerated. Use "jval fix" to rewrite such input as standard JSON.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				if err := opts.check(data); err != nil {
					if !opts.quiet {
						fmt.Fprintf(cmd.ErrOrStderr(), "stdin: %v\n", err)
					}
					return errors.New("invalid JSON")
				}
				return nil
			}
			return checkFiles(cmd.ErrOrStderr(), args, opts)
		},
	}

	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "maximum nesting depth (0 for default)")
	cmd.Flags().BoolVar(&opts.jwcc, "jwcc", false, "permit comments and trailing commas")
	cmd.Flags().BoolVar(&opts.dupKeys, "dup-keys", false, "report duplicate object keys")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress per-file diagnostics")
	return cmd
}

type checkOptions struct {
	maxDepth int
	jwcc     bool
	dupKeys  bool
	quiet    bool
}

// check validates a single input with the configured options. Invalid UTF-8
// is rejected here, before the scanner sees it.
func (o checkOptions) check(data []byte) error {
	if !utf8.Valid(data) {
		return errors.New("input is not valid UTF-8")
	}
	v := jval.NewValidator(bytes.NewReader(data))
	v.MaxDepth(o.maxDepth)
	v.AllowComments(o.jwcc)
	v.AllowTrailingCommas(o.jwcc)
	v.CheckDuplicateKeys(o.dupKeys)
	return v.Validate()
}

// checkFiles validates each named file concurrently, each file an isolated
// run, and writes diagnostics to w in argument order. It reports an error if
// any file failed to read or validate.
func checkFiles(w io.Writer, paths []string, opts checkOptions) error {
	errs := make([]error, len(paths))

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				errs[i] = err
			} else if verr := opts.check(data); verr != nil {
				errs[i] = fmt.Errorf("%s: %w", path, verr)
			}
			return nil
		})
	}
	g.Wait()

	var nbad int
	for _, err := range errs {
		if err != nil {
			nbad++
			if !opts.quiet {
				fmt.Fprintln(w, err)
			}
		}
	}
	if nbad != 0 {
		return fmt.Errorf("%d of %d inputs invalid", nbad, len(paths))
	}
	return nil
}
