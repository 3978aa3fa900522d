package logging

import "io"

// Runtime carries the process-wide output sinks. It is built once in main
// and handed to every constructor that needs to log or print.
type Runtime struct {
	Logger  *Logger
	Console *Console
}

// NewRuntime bundles a logger and a console.
func NewRuntime(logger *Logger, console *Console) *Runtime {
	return &Runtime{Logger: logger, Console: console}
}

// Quiet returns a runtime that discards all output.
func Quiet() *Runtime {
	return NewRuntime(Discard(), NewConsole(io.Discard, true))
}
