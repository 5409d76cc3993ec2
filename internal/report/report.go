// Package report builds the presentation model of a run and renders it as a
// table or as JSON.
package report

import (
	"errors"
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/ghcount/internal/domain"
	"github.com/naka-gawa/ghcount/internal/language"
	"github.com/naka-gawa/ghcount/internal/usecase"
)

// Repository is one scanned repository in the report.
type Repository struct {
	Repository      domain.RepoID         `json:"repository"`
	Archived        bool                  `json:"archived,omitempty"`
	PrimaryLanguage string                `json:"primary_language,omitempty"`
	Languages       domain.LanguageCounts `json:"languages"`
	Skipped         []domain.SkippedFile  `json:"skipped,omitempty"`
	External        []domain.LanguageRow  `json:"external,omitempty"`
	Discrepancies   []domain.Discrepancy  `json:"discrepancies,omitempty"`
}

// Label is the repository name as shown in tables.
func (r Repository) Label() string {
	if r.Archived {
		return r.Repository.String() + " (archived)"
	}
	return r.Repository.String()
}

// Failure is a repository that could not be scanned. It never appears with
// zero counts.
type Failure struct {
	Repository domain.RepoID `json:"repository"`
	Reason     string        `json:"reason"`
}

// Distribution describes the share of test lines across scanned repositories.
// Repositories without any counted line are left out.
type Distribution struct {
	Repositories    int     `json:"repositories"`
	MeanTestRatio   float64 `json:"mean_test_ratio"`
	MedianTestRatio float64 `json:"median_test_ratio"`
	P90TestRatio    float64 `json:"p90_test_ratio"`
}

// Report is the language-agnostic result of a run.
type Report struct {
	RunID        string                     `json:"run_id,omitempty"`
	Counter      string                     `json:"counter"`
	Languages    []string                   `json:"languages,omitempty"`
	Repositories []Repository               `json:"repositories"`
	Failures     []Failure                  `json:"failures,omitempty"`
	Teams        []domain.TeamSummary       `json:"teams,omitempty"`
	Organization domain.OrganizationSummary `json:"organization"`
	Distribution Distribution               `json:"distribution"`
}

// Build combines the repository results with the team definitions and
// applies the language filter as a view: totals are computed from the full
// summaries and only the rows of allowed languages are kept.
func Build(results []domain.RepositoryResult, teams []domain.Team, filter language.Filter) Report {
	r := Report{
		Languages:    filter.Names(),
		Repositories: []Repository{},
	}

	var summaries []domain.RepositorySummary
	for _, res := range results {
		if !res.Scanned() {
			reason := "unknown error"
			if res.Err != nil {
				reason = res.Err.Error()
			}
			r.Failures = append(r.Failures, Failure{Repository: res.Repository, Reason: reason})
			continue
		}
		summaries = append(summaries, *res.Summary)
		r.Repositories = append(r.Repositories, Repository{
			Repository:      res.Repository,
			Archived:        res.Archived,
			PrimaryLanguage: res.PrimaryLanguage,
			Languages:       View(res.Summary.Languages, filter),
			Skipped:         res.Skipped,
			External:        res.External,
			Discrepancies:   res.Discrepancies,
		})
	}
	sort.Slice(r.Repositories, func(i, j int) bool {
		return r.Repositories[i].Repository.Less(r.Repositories[j].Repository)
	})
	sort.Slice(r.Failures, func(i, j int) bool {
		return r.Failures[i].Repository.Less(r.Failures[j].Repository)
	})

	teamSummaries, org := usecase.Combine(summaries, teams)
	for i := range teamSummaries {
		teamSummaries[i].Languages = View(teamSummaries[i].Languages, filter)
	}
	org.Languages = View(org.Languages, filter)
	r.Teams = teamSummaries
	r.Organization = org
	r.Distribution = distribution(r.Repositories)
	return r
}

// View returns the languages of counts that pass filter. counts is not modified.
func View(counts domain.LanguageCounts, filter language.Filter) domain.LanguageCounts {
	out := make(domain.LanguageCounts, len(counts))
	for lang, c := range counts {
		if filter.Allows(lang) {
			out[lang] = c
		}
	}
	return out
}

// NotScanned returns the team members that were not part of the run, as
// warnings wrapping domain.ErrTeamMemberNotScanned.
func (r Report) NotScanned() []error {
	var warnings []error
	for _, team := range r.Teams {
		for _, id := range team.NotFound {
			warnings = append(warnings, fmt.Errorf("%w: team %s lists %s", domain.ErrTeamMemberNotScanned, team.Name, id))
		}
	}
	return warnings
}

func distribution(repos []Repository) Distribution {
	var ratios stats.Float64Data
	for _, repo := range repos {
		total := repo.Languages.Total()
		if total.Total() == 0 {
			continue
		}
		ratios = append(ratios, float64(total.Test)/float64(total.Total()))
	}
	d := Distribution{Repositories: len(ratios)}
	if len(ratios) == 0 {
		return d
	}

	mean, err1 := ratios.Mean()
	median, err2 := ratios.Median()
	p90, err3 := ratios.Percentile(90)
	if err := errors.Join(err1, err2, err3); err != nil {
		return d
	}
	d.MeanTestRatio = round(mean)
	d.MedianTestRatio = round(median)
	d.P90TestRatio = round(p90)
	return d
}

func round(v float64) float64 {
	r, err := stats.Round(v, 4)
	if err != nil {
		return v
	}
	return r
}
