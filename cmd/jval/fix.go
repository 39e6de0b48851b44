// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tailscale/hujson"
)

func newFixCmd() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "fix [file...]",
		Short: "Rewrite JWCC input as standard JSON",
		Long: `Rewrite JSON with commas and comments (JWCC) as standard JSON.

Comments and trailing commas are removed; the output passes strict
validation. Each file's result is written to stdout, or back to the file
with -w. With no arguments, input is read from stdin.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if overwrite {
					return errors.New("-w requires file arguments")
				}
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				return fixInput(cmd.OutOrStdout(), data)
			}
			for _, path := range args {
				if err := fixFile(cmd.OutOrStdout(), path, overwrite); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&overwrite, "write", "w", false, "overwrite each file in place")
	return cmd
}

func fixFile(w io.Writer, path string, overwrite bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if overwrite {
		return os.WriteFile(path, std, 0644)
	}
	_, err = w.Write(std)
	return err
}

func fixInput(w io.Writer, data []byte) error {
	std, err := hujson.Standardize(data)
	if err != nil {
		return err
	}
	_, err = w.Write(std)
	return err
}
