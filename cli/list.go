package cli

// This file contains the list command for displaying previous runs.

import (
	"fmt"
	"strings"
	"time"

	"github.com/modforge/modforge/history"
	"github.com/urfave/cli/v2"
)

func (a *App) list(ctx *cli.Context) error {
	limit := ctx.Int("limit")

	m, err := a.loadManifest(ctx)
	if err != nil {
		return err
	}

	root := history.Root(m.Dir)
	entries, err := history.LoadEntries(a.logger, root)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No runs found")
		fmt.Printf("Runs are saved to %s/<timestamp>-<commit>-<id>/\n", root)
		return nil
	}

	// Apply limit
	displayRuns := entries
	if limit > 0 && limit < len(displayRuns) {
		displayRuns = displayRuns[:limit]
	}

	fmt.Printf("\n%s\n\n", headStyle.Render(fmt.Sprintf("=== Runs (%d total) ===", len(entries))))

	for _, entry := range displayRuns {
		h := entry.History
		timestamp := h.Timestamp.Format("2006-01-02 15:04:05")
		duration := h.Duration.Round(time.Millisecond)

		// Format args (skip the program name)
		args := ""
		if len(h.Args) > 1 {
			args = strings.Join(h.Args[1:], " ")
		}

		fmt.Printf("%s  %s  %-7s [%s]  exit=%d  id=%s\n", statusMark(h.ExitCode), timestamp, h.Type, duration, h.ExitCode, shortID(h.ID))
		if args != "" {
			fmt.Printf("   Args: %s\n", args)
		}
		if h.Git != nil && h.Git.Commit != "" {
			fmt.Printf("   Commit: %s", shortID(h.Git.Commit))
			if h.Git.Branch != "" {
				fmt.Printf(" (%s)", h.Git.Branch)
			}
			fmt.Println()
		}
		if h.Failure != nil {
			fmt.Printf("   Failed in %s: %s\n", h.Failure.Stage, h.Failure.Message)
		}
		fmt.Printf("   %s\n", dimStyle.Render(entry.FullPath))
		fmt.Println()
	}

	fmt.Println("\nView a run: modforge view <ID> [--log]")

	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
