package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"plsqlgroup/internal/sqlgroup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "plsqlgroup:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		sqlText  string
		output   string
		grouping bool
		verbose  bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:           "plsqlgroup [files...]",
		Short:         "PL/SQL statement splitter and grouping engine",
		Long:          "plsqlgroup splits SQL/PL-SQL source into top-level statements and groups each into a typed syntax tree.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
			if sqlText != "" {
				return runOne(sqlText, "<-sql>", output, grouping, timeout)
			}
			if len(args) == 0 {
				return cmd.Help()
			}
			return runFiles(args, output, grouping, timeout)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&sqlText, "sql", "", "SQL text to parse")
	flags.StringVar(&output, "output", "tree", "Output format: tree, json, yaml")
	flags.BoolVar(&grouping, "grouping", true, "Run the grouping engine (false: split only)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Verbose (debug-level) logging")
	flags.DurationVar(&timeout, "timeout", 10*time.Second, "Per-file parse timeout")
	return cmd
}

// runFiles parses each file concurrently with an errgroup, one goroutine
// per file building its own independent Statement tree (FilterStack.Run
// shares no mutable state across invocations), and fails fast on the
// first error.
func runFiles(files []string, output string, grouping bool, timeout time.Duration) error {
	g, ctx := errgroup.WithContext(context.Background())
	for _, path := range files {
		path := path
		g.Go(func() error {
			return runFile(ctx, path, output, grouping, timeout)
		})
	}
	return g.Wait()
}

func runFile(ctx context.Context, path, output string, grouping bool, timeout time.Duration) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := runOneCtx(ctx, string(content), path, output, grouping, timeout); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func runOne(src, label, output string, grouping bool, timeout time.Duration) error {
	return runOneCtx(context.Background(), src, label, output, grouping, timeout)
}

func runOneCtx(parent context.Context, src, label, output string, grouping bool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	fs := sqlgroup.NewFilterStack()
	if !grouping {
		fs.DisableGrouping()
	}

	slog.Debug("parsing", "file", label, "bytes", len(src), "grouping", grouping)

	stmts, err := fs.Run(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to parse: %w", err)
	}

	slog.Debug("parsed", "file", label, "statements", len(stmts))

	return writeStatements(os.Stdout, stmts, output)
}
