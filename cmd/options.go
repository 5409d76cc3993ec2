package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/ghcount/internal/config"
	"github.com/naka-gawa/ghcount/internal/counter"
	"github.com/naka-gawa/ghcount/internal/language"
	"github.com/naka-gawa/ghcount/internal/report"
	"github.com/naka-gawa/ghcount/internal/sink"
)

// countOptions are the settings shared by count and scan after flags have
// been applied over the environment.
type countOptions struct {
	languages   []string
	useCloc     bool
	clocPath    string
	fileWorkers int
	format      string
	detail      bool
	publish     bool
}

func addCountFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("languages", "l", nil, "Only count these languages (env LANGUAGES)")
	cmd.Flags().Bool("cloc", false, "Count lines with cloc instead of the built-in counter (env USE_CLOC)")
	cmd.Flags().String("cloc-path", "cloc", "Path to the cloc binary (env CLOC_PATH)")
	cmd.Flags().Int("file-workers", 8, "Files read concurrently per repository (env FILE_WORKERS)")
	cmd.Flags().StringP("format", "f", config.FormatTable, "Output format: table or json (env REPORT_FORMAT)")
	cmd.Flags().Bool("detail", false, "Also print the blank, comment and code lines of the cloc report per repository")
	cmd.Flags().Bool("publish", false, "Publish the JSON report to the configured S3 bucket and PostgreSQL database")
}

// readCountOptions takes each flag that was set on the command line and
// falls back to cfg for the others.
func readCountOptions(cmd *cobra.Command, cfg *config.Config) (countOptions, error) {
	flags := cmd.Flags()
	opts := countOptions{
		languages:   cfg.Languages,
		useCloc:     cfg.UseCloc,
		clocPath:    cfg.ClocPath,
		fileWorkers: cfg.FileWorkers,
		format:      cfg.Format,
	}
	if flags.Changed("languages") {
		opts.languages, _ = flags.GetStringSlice("languages")
	}
	if flags.Changed("cloc") {
		opts.useCloc, _ = flags.GetBool("cloc")
	}
	if flags.Changed("cloc-path") {
		opts.clocPath, _ = flags.GetString("cloc-path")
	}
	if flags.Changed("file-workers") {
		opts.fileWorkers, _ = flags.GetInt("file-workers")
	}
	if flags.Changed("format") {
		opts.format, _ = flags.GetString("format")
	}
	opts.detail, _ = flags.GetBool("detail")
	opts.publish, _ = flags.GetBool("publish")

	if opts.fileWorkers <= 0 {
		return opts, fmt.Errorf("invalid --file-workers %d: expected a positive integer", opts.fileWorkers)
	}
	if err := config.ValidateFormat(opts.format); err != nil {
		return opts, err
	}
	return opts, nil
}

func newLineCounter(opts countOptions, logger *log.Logger) (counter.LineCounter, error) {
	if opts.useCloc {
		return counter.NewAdapterCounter(counter.NewClocRunner(opts.clocPath, 0, logger)), nil
	}
	return counter.NewNaiveCounter(opts.fileWorkers, 0)
}

func render(w io.Writer, opts countOptions, registry *language.Registry, r report.Report) error {
	if opts.format == config.FormatJSON {
		return report.PrintJSON(w, r)
	}
	if err := report.PrintTable(w, r); err != nil {
		return err
	}
	if opts.detail {
		return report.PrintDetail(w, r, registry)
	}
	return nil
}

// publishReport sends r to every configured sink.
func publishReport(ctx context.Context, cfg *config.Config, r report.Report, logger *log.Logger) error {
	var sinks sink.Multi
	if cfg.S3.Enabled() {
		s3, err := sink.NewS3Sink(cfg.S3, logger)
		if err != nil {
			return err
		}
		sinks = append(sinks, s3)
	}
	if cfg.PostgresDSN != "" {
		pg, err := sink.NewPostgresSink(cfg.PostgresDSN, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		defer pg.Close()
		sinks = append(sinks, pg)
	}
	if len(sinks) == 0 {
		return errors.New("--publish needs REPORT_S3_ENDPOINT and REPORT_S3_BUCKET or REPORT_PG_DSN")
	}
	return sinks.Publish(ctx, r.RunID, r)
}

func newRunID() string {
	return time.Now().UTC().Format("20060102T150405Z")
}
