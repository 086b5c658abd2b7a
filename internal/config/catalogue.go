package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/precheck/precheck/internal/domain"
	"github.com/precheck/precheck/internal/fingerprint"
)

// checkSpec is the YAML shape of one catalogue entry. Loosely-typed
// fields (the phase name) are resolved to closed domain types here, at
// the configuration boundary, before the planner ever sees them.
type checkSpec struct {
	ID             string   `yaml:"id"`
	Command        []string `yaml:"command"`
	Dir            string   `yaml:"dir"`
	Phase          string   `yaml:"phase"`
	Inputs         []string `yaml:"inputs"`
	DependsOn      []string `yaml:"depends_on"`
	Optional       bool     `yaml:"optional"`
	Salt           string   `yaml:"salt"`
	VersionCommand []string `yaml:"version_command"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

type catalogueFile struct {
	Checks []checkSpec `yaml:"checks"`
}

// LoadCatalogue reads a check catalogue from a YAML file and resolves it
// into task definitions.
func LoadCatalogue(path string) ([]*domain.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalogue(data)
}

// ParseCatalogue resolves catalogue YAML into validated task definitions.
func ParseCatalogue(data []byte) ([]*domain.Task, error) {
	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalogue: %w", err)
	}
	if len(file.Checks) == 0 {
		return nil, fmt.Errorf("catalogue declares no checks")
	}

	seen := make(map[string]bool, len(file.Checks))
	tasks := make([]*domain.Task, 0, len(file.Checks))
	for i, spec := range file.Checks {
		if spec.ID == "" {
			return nil, fmt.Errorf("catalogue entry %d: id is required", i)
		}
		if seen[spec.ID] {
			return nil, fmt.Errorf("duplicate check id %q", spec.ID)
		}
		seen[spec.ID] = true

		phase, err := domain.ParsePhase(spec.Phase)
		if err != nil {
			return nil, fmt.Errorf("check %q: %w", spec.ID, err)
		}
		if err := fingerprint.ValidatePatterns(spec.Inputs); err != nil {
			return nil, fmt.Errorf("check %q: %w", spec.ID, err)
		}

		task := &domain.Task{
			ID:             spec.ID,
			Command:        spec.Command,
			Dir:            spec.Dir,
			InputPatterns:  spec.Inputs,
			DependsOn:      spec.DependsOn,
			Phase:          phase,
			Optional:       spec.Optional,
			Salt:           spec.Salt,
			VersionCommand: spec.VersionCommand,
			Timeout:        time.Duration(spec.TimeoutSeconds) * time.Second,
		}
		if err := task.Validate(); err != nil {
			return nil, fmt.Errorf("catalogue: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
