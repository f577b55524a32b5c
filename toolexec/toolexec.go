// Package toolexec runs the external build tools (compiler, packager, test
// launcher) and maps their exit status to errors.
package toolexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"
)

// Invocation is a single external tool call.
type Invocation struct {
	Tool string
	Args []string
}

// String renders the invocation as a shell-quoted command line.
func (i Invocation) String() string {
	parts := make([]string, 0, len(i.Args)+1)
	parts = append(parts, shellescape.Quote(i.Tool))
	for _, arg := range i.Args {
		parts = append(parts, shellescape.Quote(arg))
	}
	return strings.Join(parts, " ")
}

// Runner runs tool invocations to completion. A non-zero exit is reported as
// an *ExitError.
type Runner interface {
	Run(ctx context.Context, inv Invocation) error
}

// ExitError reports a tool that terminated with a non-zero exit code.
type ExitError struct {
	Invocation Invocation
	Code       int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("non-zero exit code %d: %s", e.Code, e.Invocation)
}

// Exec runs invocations as child processes whose output is streamed to the
// orchestrator's own stdout and stderr.
type Exec struct {
	logger   zerolog.Logger
	javaHome string
	tools    map[string]string
	stdout   io.Writer
	stderr   io.Writer
}

// Option configures an Exec runner.
type Option func(*Exec)

// WithJavaHome resolves tools from <dir>/bin before falling back to PATH.
func WithJavaHome(dir string) Option {
	return func(e *Exec) {
		e.javaHome = dir
	}
}

// WithTools maps tool names to explicit executables.
func WithTools(tools map[string]string) Option {
	return func(e *Exec) {
		for name, path := range tools {
			e.tools[name] = path
		}
	}
}

// WithOutput replaces the writers that receive tool output.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Exec) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// WithCapture additionally copies all tool output to w. Both streams write to
// w concurrently, so w must tolerate concurrent writes (an *os.File does).
func WithCapture(w io.Writer) Option {
	return func(e *Exec) {
		e.stdout = io.MultiWriter(e.stdout, w)
		e.stderr = io.MultiWriter(e.stderr, w)
	}
}

// New creates an Exec runner. Options apply in order.
func New(logger zerolog.Logger, opts ...Option) *Exec {
	e := &Exec{
		logger: logger,
		tools:  map[string]string{},
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Executable returns the program that runs tool: an explicit mapping first,
// then the Java home's bin directory, then PATH.
func (e *Exec) Executable(tool string) (string, error) {
	if path, ok := e.tools[tool]; ok && path != "" {
		return path, nil
	}
	if e.javaHome != "" {
		candidate := filepath.Join(e.javaHome, "bin", tool)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		e.logger.Debug().Str("tool", tool).Str("java_home", e.javaHome).Msg("Tool not found in java home, using PATH")
	}
	path, err := exec.LookPath(tool)
	if err != nil {
		return "", fmt.Errorf("tool %q not found: %w", tool, err)
	}
	return path, nil
}

// Run executes the invocation and waits for it to finish.
func (e *Exec) Run(ctx context.Context, inv Invocation) error {
	path, err := e.Executable(inv.Tool)
	if err != nil {
		return err
	}

	e.logger.Info().Str("command", inv.String()).Msg("Running tool")
	e.logger.Debug().Str("tool", inv.Tool).Str("executable", path).Strs("args", inv.Args).Msg("Resolved tool executable")

	cmd := exec.CommandContext(ctx, path, inv.Args...)
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			e.logger.Debug().
				Str("tool", inv.Tool).
				Int("exit_code", exitErr.ExitCode()).
				Msg("Tool exited with failure")
			return &ExitError{Invocation: inv, Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("failed to run %s: %w", inv.Tool, err)
	}
	return nil
}
