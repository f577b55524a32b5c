package cli

// This file contains run recording functionality for saving run metadata
// and the captured tool output to the history directory.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/modforge/modforge/history"
	"github.com/modforge/modforge/model"
)

func (a *App) openBuildLog(runDir string) (*os.File, error) {
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	return os.Create(filepath.Join(runDir, history.LogFileName))
}

func (a *App) recordHistory(h *model.History, runDir string, logFile *os.File) error {
	if logFile != nil {
		if err := logFile.Close(); err != nil {
			a.logger.Warn().Err(err).Str("file", logFile.Name()).Msg("Failed to close build log")
		}
		if info, err := os.Stat(logFile.Name()); err == nil {
			h.Artifacts = append(h.Artifacts, model.Artifact{
				Type: model.ArtifactTypeBuildLog,
				Size: uint64(info.Size()),
				File: history.LogFileName,
			})
		}
	}

	if err := history.Write(runDir, h); err != nil {
		return err
	}

	a.logger.Debug().Str("dir", runDir).Str("id", h.ID).Msg("Recorded run")
	return nil
}
