package cli

// This file contains the resolve, build and test commands, which run the
// pipeline up to a given stage and record the run.

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/modforge/modforge/history"
	"github.com/modforge/modforge/model"
	"github.com/modforge/modforge/pipeline"
	"github.com/modforge/modforge/toolexec"
	"github.com/urfave/cli/v2"
)

func (a *App) resolve(ctx *cli.Context) error {
	return a.runPipeline(ctx, model.HistoryTypeResolve, model.StageResolve, nil)
}

func (a *App) build(ctx *cli.Context) error {
	return a.runPipeline(ctx, model.HistoryTypeBuild, model.StageCompile, nil)
}

func (a *App) test(ctx *cli.Context) error {
	launcherArgs := removeFirstDashDash(ctx.Args().Slice())
	if len(launcherArgs) > 0 {
		a.logger.Debug().Strs("args", launcherArgs).Msg("Additional launcher arguments")
	}
	return a.runPipeline(ctx, model.HistoryTypeTest, model.StageTest, launcherArgs)
}

func (a *App) runPipeline(ctx *cli.Context, kind model.HistoryType, last model.StageName, launcherArgs []string) error {
	startTime := time.Now()

	m, err := a.loadManifest(ctx)
	if err != nil {
		return err
	}

	// Generate random 16-byte ID
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return fmt.Errorf("failed to generate run ID: %w", err)
	}

	h := &model.History{
		ID:        hex.EncodeToString(idBytes),
		Type:      kind,
		Timestamp: startTime,
		Args:      os.Args,
		WorkDir:   m.Dir,
		Manifest:  m.Path,
	}
	if abs, err := filepath.Abs(m.Dir); err == nil {
		h.WorkDir = abs
	}

	// Capture git info (non-fatal if it fails)
	if git, err := a.getGitInfo(m.Dir); err == nil {
		h.Git = git
	} else {
		a.logger.Debug().Err(err).Msg("No git information")
	}

	var runOpts []toolexec.Option
	var runDir string
	var logFile *os.File
	if !ctx.Bool("no-history") {
		runDir = history.RunDir(history.Root(m.Dir), h)
		logFile, err = a.openBuildLog(runDir)
		if err != nil {
			a.logger.Warn().Err(err).Msg("Failed to create build log, output is not captured")
		} else {
			runOpts = append(runOpts, toolexec.WithCapture(logFile))
		}
	}

	p, err := a.newPipeline(ctx, m, a.newRunner(ctx, m, runOpts...), launcherArgs)
	if err != nil {
		return err
	}

	result, runErr := p.Run(ctx.Context, last)

	h.Duration = time.Since(startTime)
	h.ExitCode = ExitCode(runErr)
	h.Failure = pipeline.Failure(runErr)
	if result != nil {
		h.Stages = result.Stages
		h.Artifacts = result.Artifacts
	}

	if runDir != "" {
		// Record the history (non-fatal if it fails)
		if err := a.recordHistory(h, runDir, logFile); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to record history")
		}
	}

	if runErr != nil {
		logEvent := a.logger.Error().Err(runErr).Int("exit_code", h.ExitCode)
		if h.Failure != nil && h.Failure.Command != "" {
			logEvent.Str("command", h.Failure.Command)
		}
		logEvent.Msg("Pipeline aborted")
		return &reportedError{err: runErr}
	}

	a.logger.Info().
		Str("id", h.ID[:8]).
		Dur("duration", h.Duration.Round(time.Millisecond)).
		Msgf("%s %s succeeded", statusMark(0), kind)
	return nil
}
