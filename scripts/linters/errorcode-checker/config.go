package main

import (
	"os"

	"github.com/gear6io/gpsd4go/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrConfigReadFailed  = errors.MustNewCode("linter.config_read_failed")
	ErrConfigParseFailed = errors.MustNewCode("linter.config_parse_failed")
	ErrParseFailed       = errors.MustNewCode("linter.parse_failed")
)

// Config represents the checker configuration
type Config struct {
	ExcludePaths      []string `yaml:"exclude_paths"`
	ForbiddenPatterns []string `yaml:"forbidden_patterns"`
	CheckForbidden    bool     `yaml:"check_forbidden"`
	CheckStdErrors    bool     `yaml:"check_std_errors"`
	CheckPrefix       bool     `yaml:"check_prefix"`
	ExitOnUnused      bool     `yaml:"exit_on_unused"`
	ExitOnViolations  bool     `yaml:"exit_on_violations"`
	Verbose           bool     `yaml:"verbose"`
}

func defaultConfig() *Config {
	return &Config{
		ExcludePaths:      []string{"_examples/", "pkg/errors/", "testdata/", "vendor/", ".git/"},
		ForbiddenPatterns: []string{`fmt\.Errorf\(`, `stderrors\.New\(`},
		CheckForbidden:    true,
		CheckStdErrors:    true,
		CheckPrefix:       true,
		ExitOnUnused:      true,
		ExitOnViolations:  true,
	}
}

// loadConfig reads path over the defaults. An empty path returns the defaults.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(ErrConfigReadFailed, "failed to read config file", err).AddContext("path", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(ErrConfigParseFailed, "failed to parse config file", err).AddContext("path", path)
	}
	return cfg, nil
}
