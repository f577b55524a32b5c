// Package launch runs the test suite of every test-realm module through the
// external test launcher.
package launch

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/modforge/modforge/model"
	"github.com/modforge/modforge/toolexec"
	"github.com/rs/zerolog"
)

const (
	LauncherTool = "java"

	// DefaultModule is the JUnit Platform console launcher module.
	DefaultModule = "org.junit.platform.console"
)

// TestExecutionError reports a test module whose launcher run failed.
type TestExecutionError struct {
	Module string
	Err    error
}

func (e *TestExecutionError) Error() string {
	return fmt.Sprintf("tests of module %s failed: %v", e.Module, e.Err)
}

func (e *TestExecutionError) Unwrap() error { return e.Err }

// Options configures the launcher command line.
type Options struct {
	// Module is the launcher's main module.
	Module string
	// Options are passed to the launcher before the module selection.
	Options []string
	// ExtraArgs are appended to every launcher invocation.
	ExtraArgs []string
}

// Runner launches the tests of each test module in turn.
type Runner struct {
	logger zerolog.Logger
	runner toolexec.Runner
	layout model.Layout
	opts   Options
}

func New(logger zerolog.Logger, runner toolexec.Runner, layout model.Layout, opts Options) *Runner {
	if opts.Module == "" {
		opts.Module = DefaultModule
	}
	return &Runner{
		logger: logger,
		runner: runner,
		layout: layout,
		opts:   opts,
	}
}

// SearchPath returns the runtime module path: test artifacts, main artifacts,
// then the dependency cache.
func (r *Runner) SearchPath() model.SearchPath {
	return model.SearchPath{
		r.layout.ModulesDir(model.RealmTest),
		r.layout.ModulesDir(model.RealmMain),
		r.layout.CacheDir,
	}
}

// Invocation returns the launcher call that runs the tests of one module.
// Its patches are the ones the test realm was compiled with.
func (r *Runner) Invocation(g model.Graph, module string) toolexec.Invocation {
	args := []string{"--module-path", r.SearchPath().String()}
	args = append(args, "--add-modules", strings.Join(rootModules(g, module), ","))
	args = append(args, model.PatchArgs(g.Patches(r.layout))...)
	args = append(args, "--module", r.opts.Module)
	args = append(args, r.opts.Options...)
	args = append(args,
		"--reports-dir="+r.layout.ReportsDir(module),
		"--select-module", module,
	)
	args = append(args, r.opts.ExtraArgs...)

	return toolexec.Invocation{Tool: LauncherTool, Args: args}
}

// rootModules returns the modules the launcher resolves explicitly. The
// selected module is always among them: --select-module only finds modules
// in the boot layer, and a patched module nothing else requires would not be.
func rootModules(g model.Graph, module string) []string {
	roots := append([]string{}, g.AddModules...)
	for _, m := range roots {
		if m == module {
			return roots
		}
	}
	return append(roots, module)
}

// Plan lists the invocations Run performs, in order.
func (r *Runner) Plan(g model.Graph) []toolexec.Invocation {
	plan := make([]toolexec.Invocation, 0, len(g.Test))
	for _, m := range g.Test {
		plan = append(plan, r.Invocation(g, m))
	}
	return plan
}

// Run executes the tests of every test module. The first failing module
// stops the run; later modules are not started.
func (r *Runner) Run(ctx context.Context, g model.Graph) error {
	for _, m := range g.Test {
		reportsDir := r.layout.ReportsDir(m)
		if err := os.MkdirAll(reportsDir, 0755); err != nil {
			return fmt.Errorf("failed to create reports directory: %w", err)
		}

		r.logger.Info().Str("module", m).Str("reports", reportsDir).Msg("Launching tests")

		start := time.Now()
		if err := r.runner.Run(ctx, r.Invocation(g, m)); err != nil {
			return &TestExecutionError{Module: m, Err: err}
		}

		r.logger.Info().
			Str("module", m).
			Dur("duration", time.Since(start)).
			Msg("Tests passed")
	}
	return nil
}
