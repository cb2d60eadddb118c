// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command go-xref indexes source files and prints their line tables,
// symbol cross-references, and recorded issues.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "go-xref",
		Short: "Source line indexer and symbol cross-referencer",
		Long:  "go-xref scans a source tree, indexes every line, builds per-file symbol tables, and stores the results with the issues raised against them.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(viper.GetBool("verbose"))
		},
		SilenceUsage: true,
	}

	// Global flags.
	rootCmd.PersistentFlags().String("workdir", ".", "Root of the source tree")
	rootCmd.PersistentFlags().String("encoding", "UTF-8", "Charset of the source files")
	rootCmd.PersistentFlags().String("db", "", "SQLite database for analysis results and issues")
	rootCmd.PersistentFlags().Int("concurrency", 0, "Files analysed in parallel (0 = number of CPUs)")
	rootCmd.PersistentFlags().StringSlice("exclude", nil, "Glob patterns of files to skip (e.g. 'gen/**')")
	rootCmd.PersistentFlags().Bool("changed-only", false, "Analyse only files changed in the git work tree")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics to this file after analysis")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	// Bind flags to viper.
	for _, name := range []string{"workdir", "encoding", "db", "concurrency", "exclude", "changed-only", "metrics-file", "verbose"} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	// Env vars: GO_XREF_DB, GO_XREF_ENCODING, etc.
	viper.SetEnvPrefix("GO_XREF")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	// Config file.
	viper.SetConfigName(".go-xref")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.ReadInConfig() // Ignore error; config file is optional.

	// Add commands.
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newLinesCmd())
	rootCmd.AddCommand(newSymbolsCmd())
	rootCmd.AddCommand(newIssuesCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging sends structured logs to stderr so stdout stays JSON.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print go-xref version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("go-xref %s\n", version)
		},
	}
}
