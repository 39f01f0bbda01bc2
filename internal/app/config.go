package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	TemplatePath string // bicep template to optimize
	OutPath      string // output file; empty means stdout
	RegistryPath string // optional directory of extra registry manifests

	Environment      string
	CostOptimization bool
	SecurityFocus    bool
	ShowReport       bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.TemplatePath == "" {
		return nil, errors.New("TemplatePath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
