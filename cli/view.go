package cli

// This file contains the view command for displaying a run from history.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/modforge/modforge/history"
	"github.com/modforge/modforge/model"
	"github.com/urfave/cli/v2"
)

func parseViewArgs(in []string) string {
	in = removeFirstDashDash(in)
	if len(in) == 0 {
		return "0"
	}
	return in[0]
}

func (a *App) view(ctx *cli.Context) error {
	arg := parseViewArgs(ctx.Args().Slice())

	m, err := a.loadManifest(ctx)
	if err != nil {
		return err
	}

	entries, err := history.LoadEntries(a.logger, history.Root(m.Dir))
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	entry, err := history.Select(entries, arg)
	if err != nil {
		return err
	}

	a.displayHistoryEntry(os.Stdout, entry)

	if ctx.Bool("log") {
		return a.displayLog(entry)
	}
	return nil
}

func (a *App) displayHistoryEntry(w io.Writer, entry *history.Entry) {
	h := entry.History

	fmt.Fprintln(w, headStyle.Render(fmt.Sprintf("=== %s run: %s ===", h.Type, shortID(h.ID))))
	fmt.Fprintf(w, "Status: %s exit=%d\n", statusMark(h.ExitCode), h.ExitCode)
	fmt.Fprintf(w, "Time: %s\n", h.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Duration: %s\n", h.Duration)
	if h.WorkDir != "" {
		fmt.Fprintf(w, "Project: %s\n", h.WorkDir)
	}
	if h.Git != nil && h.Git.Commit != "" {
		fmt.Fprintf(w, "Git Commit: %s", shortID(h.Git.Commit))
		if h.Git.Branch != "" {
			fmt.Fprintf(w, " (%s)", h.Git.Branch)
		}
		fmt.Fprintln(w)
	}

	if len(h.Stages) > 0 {
		fmt.Fprintln(w, "\nStages:")
		for _, s := range h.Stages {
			fmt.Fprintf(w, "  %s %-8s %s\n", statusMark(0), s.Name, s.Duration)
		}
	}

	if f := h.Failure; f != nil {
		fmt.Fprintf(w, "  %s %-8s %s\n", statusMark(1), f.Stage, f.Message)
		if f.Command != "" {
			fmt.Fprintf(w, "    command: %s\n", f.Command)
		}
		if f.HTTPStatus != 0 {
			fmt.Fprintf(w, "    http status: %d\n", f.HTTPStatus)
		}
	}

	if len(h.Artifacts) > 0 {
		fmt.Fprintln(w, "\nArtifacts:")
		for _, artifact := range h.Artifacts {
			if artifact.Type == model.ArtifactTypeTestReport {
				fmt.Fprintf(w, "  %-10s %s\n", artifact.Type, artifact.File)
				continue
			}
			fmt.Fprintf(w, "  %-10s %s (%.1f KB)\n", artifact.Type, artifact.File, float64(artifact.Size)/1024)
		}
	}

	fmt.Fprintf(w, "\nHistory directory: %s\n", dimStyle.Render(entry.FullPath))
}

func (a *App) displayLog(entry *history.Entry) error {
	logPath := filepath.Join(entry.FullPath, history.LogFileName)
	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open build log: %w", err)
	}
	defer f.Close()

	fmt.Println()
	_, err = io.Copy(os.Stdout, f)
	return err
}
