// Package cli turns command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/avmopt/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("avmopt", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
avmopt - Optimizes Bicep templates against the verified module catalog.

Usage:
  avmopt [options] TEMPLATE_PATH

Arguments:
  TEMPLATE_PATH
    Path to the .bicep template to optimize.

Options:
`)
		flagSet.PrintDefaults()
	}

	envFlag := flagSet.String("env", "dev", "Deployment environment. Options: 'dev', 'staging' or 'prod'.")
	costFlag := flagSet.Bool("cost", false, "Substitute cost-tiered parameters with the cheapest tier.")
	securityFlag := flagSet.Bool("security", false, "Correct explicitly insecure parameter values.")
	outFlag := flagSet.String("out", "", "Write the optimized template to this file instead of stdout.")
	reportFlag := flagSet.Bool("report", false, "Print the optimization report (diagnostics, summary, diff) to stderr.")
	registryFlag := flagSet.String("registry", "", "Directory of additional registry manifests (.hcl).")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "expected exactly one TEMPLATE_PATH argument"}
	}

	env := strings.ToLower(*envFlag)
	switch env {
	case "dev", "staging", "prod":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid env: must be 'dev', 'staging' or 'prod'"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		TemplatePath:     flagSet.Arg(0),
		OutPath:          *outFlag,
		RegistryPath:     *registryFlag,
		Environment:      env,
		CostOptimization: *costFlag,
		SecurityFocus:    *securityFlag,
		ShowReport:       *reportFlag,
		LogFormat:        logFormat,
		LogLevel:         logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, false, nil
}
