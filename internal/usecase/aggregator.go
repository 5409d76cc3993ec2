// Package usecase contains the business logic of the application.
package usecase

import (
	"sort"

	"github.com/naka-gawa/ghcount/internal/domain"
	"github.com/naka-gawa/ghcount/internal/language"
)

// Fold sums classified file records into the summary of one repository.
// Records without a resolved language or with a negative count are skipped.
// The result does not depend on record order.
func Fold(repo domain.RepoID, records []domain.FileRecord) domain.RepositorySummary {
	summary := domain.RepositorySummary{
		Repository: repo,
		Languages:  make(domain.LanguageCounts),
	}
	for _, rec := range records {
		if rec.Language == "" || rec.Lines < 0 {
			continue
		}
		cell := summary.Languages[rec.Language]
		cell.AddCategory(rec.Category, rec.Lines)
		summary.Languages[rec.Language] = cell
	}
	return summary
}

// Combine derives team and organization totals from the summaries of the
// repositories scanned in this run. It never mutates its inputs.
//
// Every repository counts once toward the organization regardless of how many
// teams list it. A team member without a summary contributes nothing and is
// reported in the team's NotFound list. Teams keep their configured order.
func Combine(summaries []domain.RepositorySummary, teams []domain.Team) ([]domain.TeamSummary, domain.OrganizationSummary) {
	byRepo := make(map[domain.RepoID]domain.RepositorySummary, len(summaries))
	for _, s := range summaries {
		if _, seen := byRepo[s.Repository]; seen {
			continue
		}
		byRepo[s.Repository] = s
	}

	org := domain.OrganizationSummary{
		Repositories: len(byRepo),
		Languages:    make(domain.LanguageCounts),
	}
	for _, s := range byRepo {
		org.Languages.Merge(s.Languages)
	}

	teamSummaries := make([]domain.TeamSummary, 0, len(teams))
	for _, team := range teams {
		ts := domain.TeamSummary{
			Name:         team.Name,
			Repositories: []domain.RepoID{},
			Languages:    make(domain.LanguageCounts),
		}
		seen := make(map[domain.RepoID]struct{})
		for _, member := range team.Members() {
			if _, dup := seen[member]; dup {
				continue
			}
			seen[member] = struct{}{}

			s, ok := byRepo[member]
			if !ok {
				ts.NotFound = append(ts.NotFound, member)
				continue
			}
			ts.Repositories = append(ts.Repositories, member)
			ts.Languages.Merge(s.Languages)
		}
		teamSummaries = append(teamSummaries, ts)
	}
	return teamSummaries, org
}

// Reconcile compares the folded totals of a repository with the external
// tool's per-language code counts. Names reported by the tool are mapped to
// registry identifiers through aliases; languages the registry does not know
// are never counted and are ignored.
func Reconcile(summary domain.RepositorySummary, external []domain.LanguageRow, r *language.Registry) []domain.Discrepancy {
	reported := make(map[string]int)
	for _, row := range external {
		spec, ok := r.Lookup(row.Language)
		if !ok {
			continue
		}
		reported[spec.Name] += row.Code
	}

	langs := make(map[string]struct{}, len(reported)+len(summary.Languages))
	for lang := range reported {
		langs[lang] = struct{}{}
	}
	for lang := range summary.Languages {
		langs[lang] = struct{}{}
	}

	var out []domain.Discrepancy
	for lang := range langs {
		counted := summary.Languages[lang].Total()
		if counted != reported[lang] {
			out = append(out, domain.Discrepancy{Language: lang, Counted: counted, External: reported[lang]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Language < out[j].Language
	})
	return out
}
