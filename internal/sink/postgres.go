package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/naka-gawa/ghcount/internal/domain"
	"github.com/naka-gawa/ghcount/internal/report"
)

const (
	ScopeRepository   = "repository"
	ScopeTeam         = "team"
	ScopeOrganization = "organization"
	ScopeFailure      = "failure"
)

// NoLanguage marks a scanned scope without any counted line, so that it
// stays distinguishable from a repository that was never scanned.
const NoLanguage = "(none)"

// Row is one persisted (scope, language) cell of a report.
type Row struct {
	RunID      string
	Scope      string
	Name       string
	Language   string
	Production int
	Test       int
	// Error is the failure reason; set only on ScopeFailure rows.
	Error string
}

// PostgresSink stores the per-language rows of a report in line_counts.
type PostgresSink struct {
	db     *sql.DB
	logger *log.Logger

	schemaOnce sync.Once
	schemaErr  error
}

// NewPostgresSink opens and pings the database at dsn.
func NewPostgresSink(dsn string, logger *log.Logger) (*PostgresSink, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresSink{db: db, logger: logger}, nil
}

func (s *PostgresSink) Name() string {
	return "postgres"
}

// Close closes the database.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}

func (s *PostgresSink) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS line_counts (
  run_id TEXT NOT NULL,
  scope TEXT NOT NULL,
  name TEXT NOT NULL,
  language TEXT NOT NULL,
  production BIGINT NOT NULL DEFAULT 0,
  test BIGINT NOT NULL DEFAULT 0,
  error TEXT,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
  PRIMARY KEY (run_id, scope, name, language)
);
ALTER TABLE line_counts ADD COLUMN IF NOT EXISTS error TEXT;
CREATE INDEX IF NOT EXISTS idx_line_counts_run_id ON line_counts (run_id);
`)
	})
	return s.schemaErr
}

// Publish replaces the rows of runID with the rows of r in one transaction.
func (s *PostgresSink) Publish(ctx context.Context, runID string, r report.Report) error {
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM line_counts WHERE run_id = $1`, runID); err != nil {
		return err
	}
	rows := Rows(runID, r)
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO line_counts (run_id, scope, name, language, production, test, error) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			row.RunID, row.Scope, row.Name, row.Language, row.Production, row.Test,
			sql.NullString{String: row.Error, Valid: row.Error != ""},
		); err != nil {
			return fmt.Errorf("insert %s %s %s: %w", row.Scope, row.Name, row.Language, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Printf("Sink: stored %d rows for run %s", len(rows), runID)
	return nil
}

// Rows flattens the repository, team and organization totals of r. A scope
// without counted lines gets a single NoLanguage row, and every failed
// repository a ScopeFailure row carrying its reason.
func Rows(runID string, r report.Report) []Row {
	var rows []Row
	add := func(scope, name string, counts domain.LanguageCounts) {
		if len(counts) == 0 {
			rows = append(rows, Row{RunID: runID, Scope: scope, Name: name, Language: NoLanguage})
			return
		}
		for _, lang := range counts.Languages() {
			c := counts[lang]
			rows = append(rows, Row{RunID: runID, Scope: scope, Name: name, Language: lang, Production: c.Production, Test: c.Test})
		}
	}
	for _, repo := range r.Repositories {
		add(ScopeRepository, repo.Repository.String(), repo.Languages)
	}
	teams := append([]domain.TeamSummary(nil), r.Teams...)
	sort.Slice(teams, func(i, j int) bool {
		return teams[i].Name < teams[j].Name
	})
	for _, team := range teams {
		add(ScopeTeam, team.Name, team.Languages)
	}
	add(ScopeOrganization, "", r.Organization.Languages)
	for _, f := range r.Failures {
		rows = append(rows, Row{RunID: runID, Scope: ScopeFailure, Name: f.Repository.String(), Error: f.Reason})
	}
	return rows
}
