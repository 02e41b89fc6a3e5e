package tracker

import (
	"errors"
	"os/exec"
)

// CommandRunner runs one prepared command in the current working directory.
type CommandRunner interface {
	// Run executes the command and returns combined stdout+stderr, the exit
	// status, and an error only when the process could not run at all.
	Run() ([]byte, int, error)
}

// CommandBuilder builds runnable commands.
// This abstraction keeps executor tests free of real child processes.
type CommandBuilder interface {
	// ShellCommand prepares command for execution via sh -c with no stdin.
	ShellCommand(command string) CommandRunner
}

// RealCommandBuilder implements CommandBuilder using exec.Command.
type RealCommandBuilder struct{}

// NewRealCommandBuilder creates a new RealCommandBuilder.
func NewRealCommandBuilder() *RealCommandBuilder {
	return &RealCommandBuilder{}
}

// ShellCommand prepares a shell command.
func (b *RealCommandBuilder) ShellCommand(command string) CommandRunner {
	return &realCommandRunner{cmd: exec.Command("sh", "-c", command)}
}

type realCommandRunner struct {
	cmd *exec.Cmd
}

// Run executes the command. An abnormal exit is reported through the status
// value, not the error: callers treat it as a warning and judge the run by
// its output instead.
func (r *realCommandRunner) Run() ([]byte, int, error) {
	out, err := r.cmd.CombinedOutput()
	if err == nil {
		return out, 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, exitErr.ExitCode(), nil
	}
	return out, -1, err
}

// MockCommandBuilder implements CommandBuilder for testing. Every built
// runner reports the configured output, status and error, and the commands
// passed to ShellCommand are recorded in order.
type MockCommandBuilder struct {
	// Output is the combined output to report.
	Output []byte
	// ExitStatus is the exit status to report.
	ExitStatus int
	// Err is the launch error to report.
	Err error
	// Commands records each command handed to ShellCommand.
	Commands []string
}

// ShellCommand records the command and returns a canned runner.
func (b *MockCommandBuilder) ShellCommand(command string) CommandRunner {
	b.Commands = append(b.Commands, command)
	return &mockCommandRunner{builder: b}
}

type mockCommandRunner struct {
	builder *MockCommandBuilder
}

// Run returns the configured output, status and error.
func (r *mockCommandRunner) Run() ([]byte, int, error) {
	return r.builder.Output, r.builder.ExitStatus, r.builder.Err
}
