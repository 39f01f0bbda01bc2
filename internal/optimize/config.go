package optimize

import "fmt"

// Environment names the deployment environment a template targets.
type Environment string

const (
	EnvDev     Environment = "dev"
	EnvStaging Environment = "staging"
	EnvProd    Environment = "prod"
)

// Valid reports whether the environment is one of the recognized values.
func (e Environment) Valid() bool {
	switch e {
	case EnvDev, EnvStaging, EnvProd:
		return true
	}
	return false
}

// Config selects which optimization rules run. Default elision is always
// active and has no flag.
type Config struct {
	Environment      Environment
	CostOptimization bool
	SecurityFocus    bool
}

// normalize fills the environment default and validates the result.
func (c Config) normalize() (Config, error) {
	if c.Environment == "" {
		c.Environment = EnvDev
	}
	if !c.Environment.Valid() {
		return c, fmt.Errorf("unrecognized environment %q: must be dev, staging or prod", c.Environment)
	}
	return c, nil
}
