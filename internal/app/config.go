package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath string // definition file or directory
	InputJSON string // initial input of the start node, as a JSON object
	InputFile string // same, read from a file
	EnvFile   string // dotenv file loaded before any handler runs

	LogFormat string
	LogLevel  string

	ServeAddr string // serve the HTTP API instead of running once
	DBPath    string // run history database, used when serving

	LenientConfig bool // repair malformed node configs
	RedactLimit   int  // longest string recorded verbatim; <= 0 disables
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if cfg.InputJSON != "" && cfg.InputFile != "" {
		return nil, errors.New("InputJSON and InputFile are mutually exclusive")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = ":memory:"
	}
	return &cfg, nil
}
