package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"sort"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/ghcount/internal/checkout"
	"github.com/naka-gawa/ghcount/internal/config"
	"github.com/naka-gawa/ghcount/internal/domain"
	"github.com/naka-gawa/ghcount/internal/gateway"
	"github.com/naka-gawa/ghcount/internal/language"
	"github.com/naka-gawa/ghcount/internal/report"
	"github.com/naka-gawa/ghcount/internal/usecase"
)

var countCmd = &cobra.Command{
	Use:   "count [owner/name...]",
	Short: "Counts production and test lines of GitHub repositories and teams",
	Long: `Counts production and test lines per language for the given repositories and for
every repository listed in the teams file, then prints per-repository, per-team and
organization totals.`,
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

		workers := cfg.Workers
		if cmd.Flags().Changed("workers") {
			workers, _ = cmd.Flags().GetInt("workers")
		}
		failFast := cfg.FailFast
		if cmd.Flags().Changed("fail-fast") {
			failFast, _ = cmd.Flags().GetBool("fail-fast")
		}
		sourceMode := cfg.SourceMode
		if cmd.Flags().Changed("source") {
			sourceMode, _ = cmd.Flags().GetString("source")
			if err := config.ValidateSourceMode(sourceMode); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		token := cfg.Token
		if token == "" {
			fmt.Fprintln(os.Stderr, "Error: GITHUB_TOKEN environment variable is not set.")
			os.Exit(1)
		}

		teamsPath := cfg.TeamsPath
		explicitTeams := os.Getenv("TEAMS_CONFIG") != ""
		if cmd.Flags().Changed("teams") {
			teamsPath, _ = cmd.Flags().GetString("teams")
			explicitTeams = true
		}
		teams, err := config.LoadTeams(teamsPath)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) || explicitTeams {
				fmt.Fprintf(os.Stderr, "Failed to load teams: %v\n", err)
				os.Exit(1)
			}
			logger.Printf("No teams file at %s, counting repositories only", teamsPath)
			teams = nil
		}

		targets, err := resolveTargets(args, teams)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		registry := language.Default()
		filter, err := language.NewFilter(registry, opts.languages)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Inject dependencies and run the main business logic.
		lineCounter, err := newLineCounter(opts, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create line counter: %v\n", err)
			os.Exit(1)
		}
		githubGateway, err := gateway.NewGitHubGateway(token, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}
		scanner := usecase.NewScanner(githubGateway, lineCounter, registry, checkout.NewCloner(token, 0, logger), usecase.Options{
			Workers:  workers,
			FailFast: failFast,
			Filter:   filter,
			Clone:    opts.useCloc || sourceMode == config.SourceClone,
		}, logger)

		results, err := scanner.Scan(ctx, targets)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to scan repositories: %v\n", err)
			os.Exit(1)
		}

		r := report.Build(results, teams, filter)
		r.RunID = newRunID()
		r.Counter = lineCounter.Name()
		for _, warning := range r.NotScanned() {
			logger.Printf("Warning: %v", warning)
		}

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
	},
}

// resolveTargets returns the union of the repositories given as arguments
// and those listed by teams, deduplicated and sorted.
func resolveTargets(args []string, teams []domain.Team) ([]domain.RepoID, error) {
	seen := make(map[domain.RepoID]struct{})
	for _, arg := range args {
		id, err := domain.ParseRepoID(arg)
		if err != nil {
			return nil, err
		}
		seen[id] = struct{}{}
	}
	for _, team := range teams {
		for _, id := range team.Members() {
			seen[id] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil, errors.New("no repositories to count: pass owner/name arguments or a teams file")
	}

	targets := make([]domain.RepoID, 0, len(seen))
	for id := range seen {
		targets = append(targets, id)
	}
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].Less(targets[j])
	})
	return targets, nil
}

func init() {
	rootCmd.AddCommand(countCmd)
	addCountFlags(countCmd)
	countCmd.Flags().StringP("teams", "t", "teams.json", "Teams file (env TEAMS_CONFIG)")
	countCmd.Flags().IntP("workers", "w", 4, "Repositories scanned concurrently (env WORKERS)")
	countCmd.Flags().Bool("fail-fast", false, "Abort on the first repository that cannot be scanned (env FAIL_FAST)")
	countCmd.Flags().String("source", config.SourceAPI, "Where files are read from: api or clone (env SOURCE_MODE)")
}
