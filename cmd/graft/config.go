package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type limitsConfig struct {
	MaxTransactions int `yaml:"max_transactions"`
	MaxSeconds      int `yaml:"max_seconds"`
	MaxAIRequests   int `yaml:"max_ai_requests"`
}

type config struct {
	Root       string       `yaml:"root"`
	Format     string       `yaml:"format"`
	Languages  []string     `yaml:"languages"`
	MaxWorkers int          `yaml:"max_workers"`
	Limits     limitsConfig `yaml:"limits"`
}

// loadConfig reads .graft.yml. An explicit path must exist; the
// default location is optional.
func loadConfig(root, explicit string) (*config, error) {
	path := explicit
	if path == "" {
		path = filepath.Join(root, ".graft.yml")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if explicit == "" && os.IsNotExist(err) {
			return &config{}, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}
