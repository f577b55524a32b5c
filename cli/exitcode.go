package cli

import (
	"errors"

	"github.com/modforge/modforge/toolexec"
)

// ExitCode maps an error returned by Run to a process exit code: 0 for
// success, the failing tool's exit code when there is one, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *toolexec.ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	return 1
}

// reportedError marks an error that has already been logged.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// Reported reports whether err has already been logged by the command that
// returned it.
func Reported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}
