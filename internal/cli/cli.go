package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/portflow/internal/app"
	"github.com/specialistvlad/portflow/internal/engine"
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
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("portflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
portflow - A demand-driven dataflow graph runner.

Usage:
  portflow [options] [GRAPH_PATH]

Arguments:
  GRAPH_PATH
    Path to a graph definition (.json, .yaml, .yml, .hcl) or a directory
    containing definition files, which are merged.

Options:
`)
		flagSet.PrintDefaults()
	}

	graphFlag := flagSet.String("graph", "", "Path to the graph file or directory.")
	gFlag := flagSet.String("g", "", "Path to the graph file or directory (shorthand).")
	inputFlag := flagSet.String("input", "", "Initial input of the start node, as a JSON object.")
	inputFileFlag := flagSet.String("input-file", "", "Read the initial input from a JSON file.")
	envFileFlag := flagSet.String("env-file", "", "Dotenv file to load before running.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	serveFlag := flagSet.String("serve", "", "Serve the HTTP API on this address (e.g. ':8080') instead of running once.")
	dbFlag := flagSet.String("db", "portflow.db", "SQLite database for run history when serving.")
	lenientFlag := flagSet.Bool("lenient", false, "Repair malformed node configs instead of failing.")
	redactFlag := flagSet.Int("redact-limit", engine.DefaultRedactLimit, "Longest string recorded verbatim in logs and results. 0 disables.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *graphFlag != "" {
		path = *graphFlag
	} else if *gFlag != "" {
		path = *gFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Graph path determined.", "path", path)

	if path == "" {
		slog.Debug("No graph path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		GraphPath:     path,
		InputJSON:     *inputFlag,
		InputFile:     *inputFileFlag,
		EnvFile:       *envFileFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
		ServeAddr:     *serveFlag,
		DBPath:        *dbFlag,
		LenientConfig: *lenientFlag,
		RedactLimit:   *redactFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
