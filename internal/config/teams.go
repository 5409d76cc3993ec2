package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/naka-gawa/ghcount/internal/domain"
)

type teamsFile struct {
	Teams []domain.Team `json:"teams"`
}

// LoadTeams reads and validates a teams file.
func LoadTeams(path string) ([]domain.Team, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read teams file: %w", err)
	}
	return ParseTeams(content)
}

// ParseTeams decodes `{"teams": [...]}` and checks every team has a name, an
// organization and non-blank repository names. Team names must be unique.
func ParseTeams(content []byte) ([]domain.Team, error) {
	var file teamsFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse teams file: %w", err)
	}

	var errs []error
	seen := make(map[string]struct{}, len(file.Teams))
	for i, team := range file.Teams {
		team.Name = strings.TrimSpace(team.Name)
		team.Organization = strings.TrimSpace(team.Organization)
		file.Teams[i] = team

		if team.Name == "" {
			errs = append(errs, fmt.Errorf("team #%d has no name", i+1))
			continue
		}
		if _, dup := seen[team.Name]; dup {
			errs = append(errs, fmt.Errorf("team %q is defined twice", team.Name))
		}
		seen[team.Name] = struct{}{}
		if team.Organization == "" {
			errs = append(errs, fmt.Errorf("team %q has no organization", team.Name))
		}
		for _, repo := range team.Repositories {
			name := strings.TrimSpace(repo)
			if name == "" || strings.Contains(name, "/") {
				errs = append(errs, fmt.Errorf("team %q lists invalid repository %q", team.Name, repo))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid teams file: %w", err)
	}
	return file.Teams, nil
}
