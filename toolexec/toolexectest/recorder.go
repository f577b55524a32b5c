// Package toolexectest provides an in-memory toolexec.Runner for tests.
package toolexectest

import (
	"context"
	"os"
	"path/filepath"

	"github.com/modforge/modforge/toolexec"
)

// Recorder records invocations instead of running them. Packager calls
// ("jar ... --file <path> ...") create an empty file at <path> so that
// code checking for packaged artifacts observes them.
type Recorder struct {
	Invocations []toolexec.Invocation

	// ExitCode, if set, decides the exit code of each invocation.
	ExitCode func(inv toolexec.Invocation) int
}

func (r *Recorder) Run(_ context.Context, inv toolexec.Invocation) error {
	r.Invocations = append(r.Invocations, inv)
	if r.ExitCode != nil {
		if code := r.ExitCode(inv); code != 0 {
			return &toolexec.ExitError{Invocation: inv, Code: code}
		}
	}
	if inv.Tool == "jar" {
		if file := ArgValue(inv.Args, "--file"); file != "" {
			if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(file, nil, 0644); err != nil {
				return err
			}
		}
	}
	return nil
}

// Tools returns the tool names in invocation order.
func (r *Recorder) Tools() []string {
	tools := make([]string, 0, len(r.Invocations))
	for _, inv := range r.Invocations {
		tools = append(tools, inv.Tool)
	}
	return tools
}

// ArgValue returns the argument following flag, or "" if flag is absent.
func ArgValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// ArgValues returns every argument following an occurrence of flag.
func ArgValues(args []string, flag string) []string {
	var values []string
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			values = append(values, args[i+1])
		}
	}
	return values
}
