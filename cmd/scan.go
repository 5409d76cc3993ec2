package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/ghcount/internal/config"
	"github.com/naka-gawa/ghcount/internal/domain"
	"github.com/naka-gawa/ghcount/internal/language"
	"github.com/naka-gawa/ghcount/internal/report"
	"github.com/naka-gawa/ghcount/internal/usecase"
)

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Counts production and test lines of a local directory",
	Long:  `Counts a local checkout as a single repository named local/<directory name>. No GitHub access is needed.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		logger := newLogger(cmd)

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}
		opts, err := readCountOptions(cmd, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		id := domain.RepoID{Owner: "local", Name: filepath.Base(abs)}

		registry := language.Default()
		filter, err := language.NewFilter(registry, opts.languages)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		lineCounter, err := newLineCounter(opts, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create line counter: %v\n", err)
			os.Exit(1)
		}

		scanner := usecase.NewScanner(nil, lineCounter, registry, nil, usecase.Options{Filter: filter}, logger)
		result := scanner.ScanLocal(ctx, id, abs)

		r := report.Build([]domain.RepositoryResult{result}, nil, filter)
		r.RunID = newRunID()
		r.Counter = lineCounter.Name()

		if err := render(cmd.OutOrStdout(), opts, registry, r); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write report: %v\n", err)
			os.Exit(1)
		}
		if opts.publish {
			if err := publishReport(ctx, cfg, r, logger); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to publish report: %v\n", err)
				os.Exit(1)
			}
		}
		if result.Err != nil {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	addCountFlags(scanCmd)
}
