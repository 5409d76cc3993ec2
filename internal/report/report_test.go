package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/ghcount/internal/domain"
	"github.com/naka-gawa/ghcount/internal/language"
)

var (
	api   = domain.RepoID{Owner: "acme", Name: "api"}
	web   = domain.RepoID{Owner: "acme", Name: "web"}
	infra = domain.RepoID{Owner: "acme", Name: "infra"}
)

func scanned(id domain.RepoID, counts domain.LanguageCounts) domain.RepositoryResult {
	return domain.RepositoryResult{
		Repository: id,
		Summary:    &domain.RepositorySummary{Repository: id, Languages: counts},
	}
}

func sampleResults() []domain.RepositoryResult {
	return []domain.RepositoryResult{
		scanned(web, domain.LanguageCounts{
			"TypeScript": {Production: 60, Test: 20},
			"Go":         {Production: 20},
		}),
		scanned(api, domain.LanguageCounts{"Go": {Production: 50, Test: 50}}),
		{Repository: infra, Err: domain.ErrAccessDenied},
	}
}

func sampleTeams() []domain.Team {
	return []domain.Team{
		{Name: "frontend", Organization: "acme", Repositories: []string{"web", "infra"}},
	}
}

func TestBuild(t *testing.T) {
	r := Build(sampleResults(), sampleTeams(), language.Filter{})

	require.Len(t, r.Repositories, 2)
	assert.Equal(t, api, r.Repositories[0].Repository)
	assert.Equal(t, web, r.Repositories[1].Repository)

	assert.Equal(t, []Failure{{Repository: infra, Reason: domain.ErrAccessDenied.Error()}}, r.Failures)

	assert.Equal(t, 2, r.Organization.Repositories)
	assert.Equal(t, domain.LanguageCounts{
		"Go":         {Production: 70, Test: 50},
		"TypeScript": {Production: 60, Test: 20},
	}, r.Organization.Languages)

	require.Len(t, r.Teams, 1)
	assert.Equal(t, []domain.RepoID{web}, r.Teams[0].Repositories)
	assert.Equal(t, []domain.RepoID{infra}, r.Teams[0].NotFound, "a failed member is not merged as zero")

	warnings := r.NotScanned()
	require.Len(t, warnings, 1)
	assert.True(t, errors.Is(warnings[0], domain.ErrTeamMemberNotScanned))
}

func TestBuild_FilterIsAView(t *testing.T) {
	results := sampleResults()
	filter, err := language.NewFilter(language.Default(), []string{"Go"})
	require.NoError(t, err)

	r := Build(results, sampleTeams(), filter)

	assert.Equal(t, []string{"go"}, r.Languages)
	assert.Equal(t, domain.LanguageCounts{"Go": {Production: 70, Test: 50}}, r.Organization.Languages)
	assert.Equal(t, domain.LanguageCounts{"Go": {Production: 20}}, r.Teams[0].Languages)
	assert.Equal(t, domain.LanguageCounts{"Go": {Production: 20}}, r.Repositories[1].Languages)

	// The underlying summaries still hold every language.
	assert.Contains(t, results[0].Summary.Languages, "TypeScript")
	unfiltered := Build(results, sampleTeams(), language.Filter{})
	assert.Contains(t, unfiltered.Organization.Languages, "TypeScript")
}

func TestBuild_Distribution(t *testing.T) {
	results := []domain.RepositoryResult{
		scanned(domain.RepoID{Owner: "o", Name: "a"}, domain.LanguageCounts{"Go": {Production: 3, Test: 1}}),
		scanned(domain.RepoID{Owner: "o", Name: "b"}, domain.LanguageCounts{"Go": {Production: 1, Test: 1}}),
		scanned(domain.RepoID{Owner: "o", Name: "c"}, domain.LanguageCounts{"Go": {Production: 1, Test: 3}}),
		scanned(domain.RepoID{Owner: "o", Name: "d"}, domain.LanguageCounts{"Go": {Test: 2}}),
		scanned(domain.RepoID{Owner: "o", Name: "empty"}, domain.LanguageCounts{}),
	}

	d := Build(results, nil, language.Filter{}).Distribution

	assert.Equal(t, 4, d.Repositories)
	assert.InDelta(t, 0.625, d.MeanTestRatio, 1e-9)
	assert.InDelta(t, 0.625, d.MedianTestRatio, 1e-9)
	assert.InDelta(t, 0.875, d.P90TestRatio, 1e-9)
}

func TestBuild_Empty(t *testing.T) {
	r := Build(nil, nil, language.Filter{})

	assert.Empty(t, r.Repositories)
	assert.Empty(t, r.Failures)
	assert.Equal(t, Distribution{}, r.Distribution)
}

func TestPrintTable(t *testing.T) {
	results := sampleResults()
	results[1].Discrepancies = []domain.Discrepancy{{Language: "Go", Counted: 100, External: 98}}
	results[1].Skipped = []domain.SkippedFile{{Path: "big.go", Reason: "blob too large"}}
	results = append(results, scanned(domain.RepoID{Owner: "acme", Name: "empty"}, domain.LanguageCounts{}))

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, Build(results, sampleTeams(), language.Filter{})))
	out := buf.String()

	assert.Contains(t, out, "REPOSITORY")
	assert.Contains(t, out, "acme/api")
	assert.Regexp(t, `acme/infra\s+-\s+could not be scanned: repository access denied`, out)
	assert.Regexp(t, `acme/empty\s+\(none\)\s+0\s+0\s+0`, out)
	assert.Regexp(t, `frontend\s+not found: acme/infra`, out)
	assert.Regexp(t, `total\s+Go\s+70\s+50\s+120`, out)
	assert.Contains(t, out, "ORGANIZATION (3 repositories)")
	assert.Regexp(t, `acme/api\s+Go\s+100\s+98`, out)
	assert.Contains(t, out, "acme/api/big.go")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, Build(sampleResults(), sampleTeams(), language.Filter{})))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	repos := decoded["repositories"].([]any)
	require.Len(t, repos, 2)
	assert.Equal(t, "acme/api", repos[0].(map[string]any)["repository"])

	failures := decoded["failures"].([]any)
	assert.Equal(t, "acme/infra", failures[0].(map[string]any)["repository"])

	org := decoded["organization"].(map[string]any)
	goCounts := org["languages"].(map[string]any)["Go"].(map[string]any)
	assert.Equal(t, float64(70), goCounts["production"])
	assert.Equal(t, float64(50), goCounts["test"])
}

func TestBuild_RepositoryMetadata(t *testing.T) {
	result := scanned(api, domain.LanguageCounts{"Go": {Production: 1}})
	result.Archived = true
	result.PrimaryLanguage = "Go"

	r := Build([]domain.RepositoryResult{result, scanned(web, domain.LanguageCounts{})}, nil, language.Filter{})

	require.Len(t, r.Repositories, 2)
	assert.True(t, r.Repositories[0].Archived)
	assert.Equal(t, "Go", r.Repositories[0].PrimaryLanguage)
	assert.Equal(t, "acme/api (archived)", r.Repositories[0].Label())
	assert.Equal(t, "acme/web", r.Repositories[1].Label())

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, r))
	assert.Regexp(t, `acme/api \(archived\)\s+Go\s+1\s+0\s+1`, buf.String())
}

func TestPrintDetail(t *testing.T) {
	result := scanned(api, domain.LanguageCounts{
		"Go": {Production: 75, Test: 25},
		"C":  {Production: 10},
	})
	result.External = []domain.LanguageRow{
		{Language: "Go", Files: 4, Blank: 12, Comment: 8, Code: 100},
		{Language: "C/C++ Header", Files: 1, Blank: 2, Comment: 3, Code: 10},
		{Language: "Markdown", Files: 2, Blank: 5, Code: 40},
	}

	var buf bytes.Buffer
	require.NoError(t, PrintDetail(&buf, Build([]domain.RepositoryResult{result}, nil, language.Filter{}), language.Default()))
	out := buf.String()

	assert.Contains(t, out, "PRODUCTION%")
	assert.Regexp(t, `acme/api\s+Go\s+4\s+12\s+8\s+100\s+75\.0`, out)
	assert.Regexp(t, `acme/api\s+C/C\+\+ Header\s+1\s+2\s+3\s+10\s+100\.0`, out)
	assert.Regexp(t, `acme/api\s+Markdown\s+2\s+5\s+0\s+40\s+-`, out)
}

func TestPrintDetail_WithoutExternalReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintDetail(&buf, Build(sampleResults(), nil, language.Filter{}), language.Default()))

	assert.Contains(t, buf.String(), "No external counting report")
	assert.NotContains(t, buf.String(), "PRODUCTION%")
}
