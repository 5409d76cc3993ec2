package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/ghcount/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"GITHUB_TOKEN", "TEAMS_CONFIG", "USE_CLOC", "LANGUAGES", "WORKERS", "FILE_WORKERS",
		"FAIL_FAST", "SOURCE_MODE", "REPORT_FORMAT", "CLOC_PATH", "REPORT_S3_ENDPOINT", "REPORT_S3_BUCKET",
		"REPORT_S3_REGION", "REPORT_S3_USE_SSL", "REPORT_PG_DSN"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "teams.json", cfg.TeamsPath)
	assert.Equal(t, "cloc", cfg.ClocPath)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 8, cfg.FileWorkers)
	assert.Equal(t, SourceAPI, cfg.SourceMode)
	assert.Equal(t, FormatTable, cfg.Format)
	assert.False(t, cfg.UseCloc)
	assert.Empty(t, cfg.Languages)
	assert.Equal(t, "us-east-1", cfg.S3.Region)
	assert.True(t, cfg.S3.UseSSL)
	assert.False(t, cfg.S3.Enabled())
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GITHUB_TOKEN", "ghp_x")
	t.Setenv("USE_CLOC", "true")
	t.Setenv("LANGUAGES", "Go, rust,,")
	t.Setenv("WORKERS", "2")
	t.Setenv("SOURCE_MODE", "Clone")
	t.Setenv("REPORT_FORMAT", "json")
	t.Setenv("REPORT_S3_ENDPOINT", "localhost:9000")
	t.Setenv("REPORT_S3_BUCKET", "reports")
	t.Setenv("REPORT_S3_USE_SSL", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ghp_x", cfg.Token)
	assert.True(t, cfg.UseCloc)
	assert.Equal(t, []string{"Go", "rust"}, cfg.Languages)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, SourceClone, cfg.SourceMode)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.True(t, cfg.S3.Enabled())
	assert.False(t, cfg.S3.UseSSL)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("TEAMS_CONFIG", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TEAMS_CONFIG=conf/teams.json\n"), 0o644))
	// godotenv does not override variables that are already set, even to "".
	require.NoError(t, os.Unsetenv("TEAMS_CONFIG"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "conf/teams.json", cfg.TeamsPath)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  string
	}{
		{name: "workers not a number", key: "WORKERS", val: "many"},
		{name: "workers zero", key: "FILE_WORKERS", val: "0"},
		{name: "bad bool", key: "FAIL_FAST", val: "maybe"},
		{name: "bad source mode", key: "SOURCE_MODE", val: "ftp"},
		{name: "bad format", key: "REPORT_FORMAT", val: "xml"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tc.key, tc.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadTeams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teams.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "teams": [
    {"name": "backend", "organization": "acme", "repositories": ["api", "worker"]},
    {"name": " frontend ", "organization": "acme", "repositories": []}
  ]
}`), 0o644))

	teams, err := LoadTeams(path)
	require.NoError(t, err)

	assert.Equal(t, []domain.Team{
		{Name: "backend", Organization: "acme", Repositories: []string{"api", "worker"}},
		{Name: "frontend", Organization: "acme", Repositories: []string{}},
	}, teams)
	assert.Equal(t, []domain.RepoID{{Owner: "acme", Name: "api"}, {Owner: "acme", Name: "worker"}}, teams[0].Members())
}

func TestParseTeams_Invalid(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		contains string
	}{
		{name: "not json", content: `teams:`, contains: "failed to parse"},
		{name: "no name", content: `{"teams":[{"organization":"acme"}]}`, contains: "has no name"},
		{name: "no organization", content: `{"teams":[{"name":"a"}]}`, contains: "has no organization"},
		{name: "blank repository", content: `{"teams":[{"name":"a","organization":"o","repositories":[" "]}]}`, contains: "invalid repository"},
		{name: "qualified repository", content: `{"teams":[{"name":"a","organization":"o","repositories":["x/y"]}]}`, contains: "invalid repository"},
		{name: "duplicate", content: `{"teams":[{"name":"a","organization":"o"},{"name":"a","organization":"o"}]}`, contains: "defined twice"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTeams([]byte(tc.content))
			assert.ErrorContains(t, err, tc.contains)
		})
	}
}

func TestLoadTeams_Missing(t *testing.T) {
	_, err := LoadTeams(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
