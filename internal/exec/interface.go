// Package exec provides an interface for running external commands.
package exec

import (
	"context"
)

// Invocation describes one external command run.
type Invocation struct {
	// Name is the program to run.
	Name string
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env is appended to the parent environment.
	Env []string
	// Stdin is written to the command's standard input.
	Stdin []byte
}

// Output is what a finished command produced.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// CommandRunner defines the interface for running external commands.
// This abstraction allows mocking command execution in tests.
type CommandRunner interface {
	// Run executes the invocation and waits for it to exit. A non-zero exit
	// is reported as an error with Output still populated.
	Run(ctx context.Context, inv Invocation) (Output, error)
}
