package main

import (
	"errors"
	"os"

	typstbot "github.com/pachi/typst-bot"
)

// Exit codes for the typst-bot CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful render
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags or config
	ExitIO      = 3 // File not found, permission denied
	ExitWorker  = 4 // Worker/compiler environment errors
	ExitCompile = 5 // Source failed to compile
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is/As to check wrapped errors, so callers must use
// fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Compile diagnostics (exit 5)
	var diagErr *typstbot.DiagnosticsError
	if errors.As(err, &diagErr) {
		return ExitCompile
	}

	// Worker environment errors (exit 4)
	if errors.Is(err, typstbot.ErrWorkerStart) ||
		errors.Is(err, typstbot.ErrWorkerProtocol) ||
		errors.Is(err, typstbot.ErrCompilerCrash) {
		return ExitWorker
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadSource) ||
		errors.Is(err, ErrWriteImage) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config errors (exit 2)
	if errors.Is(err, ErrConfigNotFound) ||
		errors.Is(err, ErrConfigParse) ||
		errors.Is(err, ErrEmptyConfigName) ||
		errors.Is(err, ErrInvalidFill) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrOutputWithMany) ||
		errors.Is(err, typstbot.ErrInvalidSandboxRoot) {
		return ExitUsage
	}

	return ExitGeneral
}
