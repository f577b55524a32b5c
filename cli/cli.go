package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "modforge"

type App struct {
	logger zerolog.Logger
	cli    *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Resolve, compile, package and test multi-module Java projects",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
				&cli.StringFlag{
					Name:    "manifest",
					Aliases: []string{"m"},
					Usage:   "Build manifest (default: modforge.yaml, modforge.yml or modforge.hcl in the current directory)",
					EnvVars: []string{"MODFORGE_MANIFEST"},
				},
				&cli.StringFlag{
					Name:    "java-home",
					Usage:   "JDK to take javac, jar and java from when the manifest sets no java_home",
					EnvVars: []string{"JAVA_HOME"},
				},
				&cli.BoolFlag{
					Name:  "no-history",
					Usage: "Do not record runs in .modforge/history",
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}

	pipelineFlags := []cli.Flag{
		&cli.BoolFlag{
			Name:  "verify-checksums",
			Usage: "Verify downloaded dependencies against the repository's SHA-1 checksums",
		},
	}

	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "resolve",
		Usage:  "Download missing third-party dependencies into the cache",
		Action: app.resolve,
		Flags:  pipelineFlags,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "build",
		Usage:  "Resolve dependencies, then compile and package the main and test realms",
		Action: app.build,
		Flags:  pipelineFlags,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "test",
		Usage:     "Build, then run the tests of every test module",
		ArgsUsage: "[-- LAUNCHER-ARGS...]",
		Action:    app.test,
		Flags:     pipelineFlags,
		Description: `Runs the full pipeline. Arguments after -- are appended to every
test launcher invocation, e.g.:

  modforge test -- --include-tag fast`,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "plan",
		Usage:  "Print the downloads and tool invocations of a run without executing them",
		Action: app.plan,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "stage",
				Usage: "Last stage to plan (resolve, compile or test)",
				Value: "test",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "clean",
		Usage:  "Remove the build output directory (the dependency cache is kept)",
		Action: app.clean,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List previous runs",
		Action: app.list,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results (default: 20)",
				Value:   20,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "view",
		Usage:     "Show a previous run and its captured tool output",
		ArgsUsage: "[ID|INDEX]",
		Action:    app.view,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "log",
				Usage: "Print the captured tool output of the run",
			},
		},
		Description: `Show a previous run.

Arguments:
  0           View last run (default)
  -1          View 2nd last run
  <hex-id>    View run matching the hex ID prefix`,
	})
	return app
}

// Run parses args and executes the selected command. SIGINT and SIGTERM
// cancel the running tool.
func (a *App) Run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.cli.RunContext(ctx, args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && len(commit) >= 8 {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}
