// Package config reads settings from the environment (and a .env file) and
// loads the teams file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	SourceAPI   = "api"
	SourceClone = "clone"

	FormatTable = "table"
	FormatJSON  = "json"
)

// Config holds the defaults for command flags.
type Config struct {
	Token       string
	TeamsPath   string
	UseCloc     bool
	ClocPath    string
	Languages   []string
	Workers     int
	FileWorkers int
	FailFast    bool
	SourceMode  string
	Format      string
	S3          S3Config
	PostgresDSN string
}

// S3Config locates the bucket the JSON report is published to.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether enough is configured to publish to the bucket.
func (c S3Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Token:       strings.TrimSpace(os.Getenv("GITHUB_TOKEN")),
		TeamsPath:   firstNonEmpty(strings.TrimSpace(os.Getenv("TEAMS_CONFIG")), "teams.json"),
		ClocPath:    firstNonEmpty(strings.TrimSpace(os.Getenv("CLOC_PATH")), "cloc"),
		Languages:   SplitList(os.Getenv("LANGUAGES")),
		SourceMode:  strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("SOURCE_MODE")), SourceAPI)),
		Format:      strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("REPORT_FORMAT")), FormatTable)),
		PostgresDSN: strings.TrimSpace(os.Getenv("REPORT_PG_DSN")),
		S3: S3Config{
			Endpoint:  strings.TrimSpace(os.Getenv("REPORT_S3_ENDPOINT")),
			Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("REPORT_S3_REGION")), "us-east-1"),
			AccessKey: strings.TrimSpace(os.Getenv("REPORT_S3_ACCESS_KEY")),
			SecretKey: strings.TrimSpace(os.Getenv("REPORT_S3_SECRET_KEY")),
			Bucket:    strings.TrimSpace(os.Getenv("REPORT_S3_BUCKET")),
		},
	}

	var err error
	if cfg.UseCloc, err = envBool("USE_CLOC", false); err != nil {
		return nil, err
	}
	if cfg.FailFast, err = envBool("FAIL_FAST", false); err != nil {
		return nil, err
	}
	if cfg.S3.UseSSL, err = envBool("REPORT_S3_USE_SSL", true); err != nil {
		return nil, err
	}
	if cfg.Workers, err = envInt("WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.FileWorkers, err = envInt("FILE_WORKERS", 8); err != nil {
		return nil, err
	}

	if err := ValidateSourceMode(cfg.SourceMode); err != nil {
		return nil, err
	}
	if err := ValidateFormat(cfg.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateSourceMode accepts "api" and "clone".
func ValidateSourceMode(mode string) error {
	switch mode {
	case SourceAPI, SourceClone:
		return nil
	}
	return fmt.Errorf("invalid source mode %q: expected %s or %s", mode, SourceAPI, SourceClone)
}

// ValidateFormat accepts "table" and "json".
func ValidateFormat(format string) error {
	switch format {
	case FormatTable, FormatJSON:
		return nil
	}
	return fmt.Errorf("invalid report format %q: expected %s or %s", format, FormatTable, FormatJSON)
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envBool(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a positive integer", key, raw)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
