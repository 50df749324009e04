package dbt

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Project is the subset of dbt_project.yml that vitrine reads for
// diagnostics.
type Project struct {
	Name       string   `yaml:"name"`
	Profile    string   `yaml:"profile"`
	Version    string   `yaml:"version"`
	ModelPaths []string `yaml:"model-paths"`
}

// Target is one output target from profiles.yml.
type Target struct {
	Type    string `yaml:"type"`
	Path    string `yaml:"path"`
	Schema  string `yaml:"schema"`
	Threads int    `yaml:"threads"`
}

// Profile is one named profile with its outputs.
type Profile struct {
	Target  string            `yaml:"target"`
	Outputs map[string]Target `yaml:"outputs"`
}

// Profiles maps profile names to their configuration.
type Profiles map[string]Profile

// LoadProject reads dbt_project.yml from the project directory.
func LoadProject(dir string) (*Project, error) {
	data, err := os.ReadFile(filepath.Join(dir, "dbt_project.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read dbt_project.yml: %w", err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse dbt_project.yml: %w", err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("dbt_project.yml has no project name")
	}
	return &p, nil
}

// LoadProfiles reads profiles.yml from the profiles directory.
func LoadProfiles(dir string) (Profiles, error) {
	data, err := os.ReadFile(filepath.Join(dir, "profiles.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles.yml: %w", err)
	}

	var p Profiles
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profiles.yml: %w", err)
	}
	return p, nil
}

// ActiveTarget resolves the default output target for a profile.
func (p Profiles) ActiveTarget(profile string) (*Target, error) {
	prof, ok := p[profile]
	if !ok {
		return nil, fmt.Errorf("profile %q not found", profile)
	}
	target, ok := prof.Outputs[prof.Target]
	if !ok {
		return nil, fmt.Errorf("target %q not found in profile %q", prof.Target, profile)
	}
	return &target, nil
}
