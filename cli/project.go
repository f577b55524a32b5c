package cli

// This file contains manifest loading and wiring of the pipeline components
// for a project.

import (
	"github.com/modforge/modforge/compile"
	"github.com/modforge/modforge/launch"
	"github.com/modforge/modforge/manifest"
	"github.com/modforge/modforge/pipeline"
	"github.com/modforge/modforge/resolve"
	"github.com/modforge/modforge/toolexec"
	"github.com/urfave/cli/v2"
)

func (a *App) loadManifest(ctx *cli.Context) (*manifest.Manifest, error) {
	path := ctx.String("manifest")
	if path == "" {
		found, err := manifest.Find(".")
		if err != nil {
			return nil, err
		}
		path = found
	}

	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}

	a.logger.Debug().
		Str("manifest", m.Path).
		Strs("main", m.Main.Modules).
		Strs("test", m.Test.Modules).
		Strs("patches", m.Test.Patches).
		Msg("Loaded manifest")
	return m, nil
}

// javaHome prefers the manifest's java_home over --java-home / JAVA_HOME.
func javaHome(ctx *cli.Context, m *manifest.Manifest) string {
	if m.JavaHome != "" {
		return m.JavaHome
	}
	return ctx.String("java-home")
}

func (a *App) newRunner(ctx *cli.Context, m *manifest.Manifest, opts ...toolexec.Option) *toolexec.Exec {
	opts = append([]toolexec.Option{
		toolexec.WithJavaHome(javaHome(ctx, m)),
		toolexec.WithTools(m.Tools),
	}, opts...)
	return toolexec.New(a.logger, opts...)
}

func (a *App) newPipeline(ctx *cli.Context, m *manifest.Manifest, runner toolexec.Runner, launcherArgs []string) (*pipeline.Pipeline, error) {
	coords, err := m.Coordinates()
	if err != nil {
		return nil, err
	}

	layout := m.ModelLayout()
	cfg := pipeline.Config{
		Layout:      layout,
		Graph:       m.Graph(),
		Coordinates: coords,
	}

	resolver := resolve.New(a.logger, m.Repository, resolve.WithChecksums(ctx.Bool("verify-checksums")))
	compiler := compile.New(a.logger, runner, layout)
	launcher := launch.New(a.logger, runner, layout, m.LauncherOptions(launcherArgs))

	return pipeline.New(a.logger, cfg, resolver, compiler, launcher), nil
}
