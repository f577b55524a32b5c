// Package pipeline runs the build stages in their fixed order: dependency
// resolution, module graph compilation, then test execution. The first
// failing stage aborts the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/modforge/modforge/compile"
	"github.com/modforge/modforge/launch"
	"github.com/modforge/modforge/model"
	"github.com/modforge/modforge/resolve"
	"github.com/modforge/modforge/toolexec"
	"github.com/rs/zerolog"
)

// Stages lists every stage in execution order.
var Stages = []model.StageName{model.StageResolve, model.StageCompile, model.StageTest}

// StageError wraps the error that aborted a stage.
type StageError struct {
	Stage model.StageName
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Config describes what a pipeline builds.
type Config struct {
	Layout      model.Layout
	Graph       model.Graph
	Coordinates []model.Coordinate
}

// Result collects what the completed stages produced.
type Result struct {
	Stages    []model.Stage
	Artifacts []model.Artifact
}

type Pipeline struct {
	logger   zerolog.Logger
	cfg      Config
	resolver *resolve.Resolver
	compiler *compile.Compiler
	launcher *launch.Runner
}

func New(logger zerolog.Logger, cfg Config, resolver *resolve.Resolver, compiler *compile.Compiler, launcher *launch.Runner) *Pipeline {
	return &Pipeline{
		logger:   logger,
		cfg:      cfg,
		resolver: resolver,
		compiler: compiler,
		launcher: launcher,
	}
}

// Run executes the stages up to and including last.
func (p *Pipeline) Run(ctx context.Context, last model.StageName) (*Result, error) {
	result := &Result{}

	for _, stage := range Stages {
		start := time.Now()
		p.logger.Info().Str("stage", string(stage)).Msg("Starting stage")

		var err error
		switch stage {
		case model.StageResolve:
			err = p.resolve(ctx, result)
		case model.StageCompile:
			err = p.compile(ctx, result)
		case model.StageTest:
			err = p.test(ctx, result)
		}
		if err != nil {
			return result, &StageError{Stage: stage, Err: err}
		}

		result.Stages = append(result.Stages, model.Stage{Name: stage, Duration: time.Since(start)})
		if stage == last {
			break
		}
	}

	return result, nil
}

func (p *Pipeline) resolve(ctx context.Context, result *Result) error {
	report, err := p.resolver.Ensure(ctx, p.cfg.Coordinates, p.cfg.Layout.CacheDir)
	if err != nil {
		return err
	}
	p.logger.Info().
		Int("fetched", len(report.Fetched)).
		Int("cached", len(report.Cached)).
		Msg("Dependencies resolved")

	for _, c := range p.cfg.Coordinates {
		result.Artifacts = append(result.Artifacts, fileArtifact(model.ArtifactTypeDependency, p.resolver.Target(c, p.cfg.Layout.CacheDir)))
	}
	return nil
}

func (p *Pipeline) compile(ctx context.Context, result *Result) error {
	if err := p.compiler.Build(ctx, p.cfg.Graph); err != nil {
		return err
	}
	for _, m := range p.cfg.Graph.Main {
		result.Artifacts = append(result.Artifacts, fileArtifact(model.ArtifactTypeMainModule, p.cfg.Layout.ArtifactPath(model.RealmMain, m)))
	}
	for _, m := range p.cfg.Graph.Test {
		result.Artifacts = append(result.Artifacts, fileArtifact(model.ArtifactTypeTestModule, p.cfg.Layout.ArtifactPath(model.RealmTest, m)))
	}
	return nil
}

func (p *Pipeline) test(ctx context.Context, result *Result) error {
	if err := p.launcher.Run(ctx, p.cfg.Graph); err != nil {
		return err
	}
	for _, m := range p.cfg.Graph.Test {
		result.Artifacts = append(result.Artifacts, model.Artifact{
			Type: model.ArtifactTypeTestReport,
			File: p.cfg.Layout.ReportsDir(m),
		})
	}
	return nil
}

func fileArtifact(t model.ArtifactType, path string) model.Artifact {
	a := model.Artifact{Type: t, File: path}
	if info, err := os.Stat(path); err == nil {
		a.Size = uint64(info.Size())
	}
	return a
}

// Step is one planned action of the pipeline.
type Step struct {
	Stage model.StageName
	// Fetch is the URL of a dependency download; empty for tool invocations.
	Fetch      string
	Invocation toolexec.Invocation
}

func (s Step) String() string {
	if s.Fetch != "" {
		return "GET " + s.Fetch
	}
	return s.Invocation.String()
}

// Plan lists what Run would do up to last, without doing it. Dependencies
// already in the cache are left out.
func (p *Pipeline) Plan(last model.StageName) []Step {
	var steps []Step
	for _, stage := range Stages {
		switch stage {
		case model.StageResolve:
			for _, c := range p.cfg.Coordinates {
				if _, err := os.Stat(p.resolver.Target(c, p.cfg.Layout.CacheDir)); err == nil {
					continue
				}
				steps = append(steps, Step{Stage: stage, Fetch: p.resolver.URL(c)})
			}
		case model.StageCompile:
			for _, inv := range p.compiler.Plan(p.cfg.Graph) {
				steps = append(steps, Step{Stage: stage, Invocation: inv})
			}
		case model.StageTest:
			for _, inv := range p.launcher.Plan(p.cfg.Graph) {
				steps = append(steps, Step{Stage: stage, Invocation: inv})
			}
		}
		if stage == last {
			break
		}
	}
	return steps
}

// Clean removes the output root. The dependency cache is kept.
func (p *Pipeline) Clean() error {
	p.logger.Info().Str("dir", p.cfg.Layout.OutputRoot).Msg("Removing build output")
	if err := os.RemoveAll(p.cfg.Layout.OutputRoot); err != nil {
		return fmt.Errorf("failed to remove %s: %w", p.cfg.Layout.OutputRoot, err)
	}
	return nil
}

// Failure describes an aborting error for the run history.
func Failure(err error) *model.Failure {
	if err == nil {
		return nil
	}
	f := &model.Failure{Message: err.Error()}

	var stageErr *StageError
	if errors.As(err, &stageErr) {
		f.Stage = stageErr.Stage
	}
	var exitErr *toolexec.ExitError
	if errors.As(err, &exitErr) {
		f.Command = exitErr.Invocation.String()
		f.ExitCode = exitErr.Code
	}
	var fetchErr *resolve.FetchError
	if errors.As(err, &fetchErr) {
		f.Command = "GET " + fetchErr.URL
		f.HTTPStatus = fetchErr.StatusCode
	}
	return f
}
