package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // TYPST_BOT_CONFIG: config file path
	WorkerBin  string        // TYPST_BOT_WORKER_BIN: worker binary
	Root       string        // TYPST_BOT_ROOT: sandbox root
	Fill       string        // TYPST_BOT_FILL: background fill hex
	Timeout    time.Duration // TYPST_BOT_TIMEOUT: per-operation timeout
	Workers    int           // TYPST_BOT_WORKERS: parallel renderers
}

// knownEnvVars lists valid TYPST_BOT_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"TYPST_BOT_CONFIG":     true,
	"TYPST_BOT_WORKER_BIN": true,
	"TYPST_BOT_ROOT":       true,
	"TYPST_BOT_FILL":       true,
	"TYPST_BOT_TIMEOUT":    true,
	"TYPST_BOT_WORKERS":    true,
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("TYPST_BOT_CONFIG"),
		WorkerBin:  os.Getenv("TYPST_BOT_WORKER_BIN"),
		Root:       os.Getenv("TYPST_BOT_ROOT"),
		Fill:       os.Getenv("TYPST_BOT_FILL"),
	}

	if timeout := os.Getenv("TYPST_BOT_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("TYPST_BOT_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			cfg.Workers = n
		}
	}

	return cfg
}

// warnUnknownEnvVars writes a warning to w for every TYPST_BOT_* variable
// that is set but not recognized, catching typos like TYPST_BOT_WORKER.
func warnUnknownEnvVars(w io.Writer) {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "TYPST_BOT_") && !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s\n", name)
		}
	}
}
