// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/go-xref/pkg/xref"
)

// envKeyReplacer maps flag names such as "metrics-file" to GO_XREF_METRICS_FILE.
var envKeyReplacer = strings.NewReplacer("-", "_")

// configFromViper builds the analyzer config from flags, env vars, and the
// optional config file.
func configFromViper() xref.Config {
	return xref.Config{
		WorkDir:     viper.GetString("workdir"),
		Encoding:    viper.GetString("encoding"),
		DBPath:      viper.GetString("db"),
		Concurrency: viper.GetInt("concurrency"),
		Exclusions:  viper.GetStringSlice("exclude"),
		ChangedOnly: viper.GetBool("changed-only"),
		MetricsFile: viper.GetString("metrics-file"),
	}
}

// withAnalyzer opens an analyzer, runs fn under an interrupt-aware context,
// and closes the analyzer.
func withAnalyzer(fn func(ctx context.Context, a xref.Analyzer) error) error {
	a, err := xref.New(configFromViper())
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	return fn(ctx, a)
}

// newAnalyzeCmd creates the "analyze" command.
func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Analyse every supported file in the work tree",
		Long:  "Analyze indexes the lines of each file, builds its symbol table, and stores both when --db is set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAnalyzer(func(ctx context.Context, a xref.Analyzer) error {
				result, err := a.Analyze(ctx)
				if result != nil {
					printJSON(cmd.OutOrStdout(), result)
				}
				if err != nil {
					return err
				}
				if !result.Success {
					return fmt.Errorf("%d file(s) failed analysis", len(result.Errors))
				}
				return nil
			})
		},
	}
}

// newLinesCmd creates the "lines" command.
func newLinesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lines <file>",
		Short: "Print the line index of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAnalyzer(func(ctx context.Context, a xref.Analyzer) error {
				report, err := a.Lines(ctx, args[0])
				if err != nil {
					return err
				}
				printJSON(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
}

// newSymbolsCmd creates the "symbols" command.
func newSymbolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "symbols <file>",
		Short: "Print the symbol table of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAnalyzer(func(ctx context.Context, a xref.Analyzer) error {
				report, err := a.Symbols(ctx, args[0])
				if err != nil {
					return err
				}
				printJSON(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
}

// newIssuesCmd creates the "issues" command and its "import" subcommand.
func newIssuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issues <file>",
		Short: "Print the issues recorded against a file",
		Long:  "Issues prints the stored issues of an analysed file with every flow step labelled by the file it points to. Requires --db.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAnalyzer(func(ctx context.Context, a xref.Analyzer) error {
				issues, err := a.Issues(ctx, args[0])
				if err != nil {
					return err
				}
				printJSON(cmd.OutOrStdout(), issues)
				return nil
			})
		},
	}
	cmd.AddCommand(newIssuesImportCmd())
	return cmd
}

// newIssuesImportCmd creates the "issues import" command.
func newIssuesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <issues.json>",
		Short: "Store issues raised by an external tool",
		Long:  "Import reads a JSON array of issues (use - for stdin) and stores them against files already analysed into --db.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issues, err := readIssues(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return withAnalyzer(func(ctx context.Context, a xref.Analyzer) error {
				n, err := a.ImportIssues(ctx, issues)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d issue(s).\n", n, len(issues))
				return err
			})
		},
	}
}

// readIssues decodes the issue list from path, or from stdin when path is "-".
func readIssues(stdin io.Reader, path string) ([]xref.IssueInput, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading issues: %w", err)
	}
	var issues []xref.IssueInput
	if err := json.Unmarshal(data, &issues); err != nil {
		return nil, fmt.Errorf("parsing issues: %w", err)
	}
	return issues, nil
}

// printJSON outputs v as indented JSON.
func printJSON(w io.Writer, v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling result: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(out))
}
