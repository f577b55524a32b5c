package launch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/modforge/modforge/compile"
	"github.com/modforge/modforge/model"
	"github.com/modforge/modforge/toolexec"
	"github.com/modforge/modforge/toolexec/toolexectest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testLayout(t *testing.T) model.Layout {
	root := t.TempDir()
	return model.Layout{
		SourceRoot: filepath.Join(root, "src"),
		OutputRoot: filepath.Join(root, "out"),
		CacheDir:   filepath.Join(root, "lib"),
	}
}

func astroGraph() model.Graph {
	return model.Graph{
		Main:       []string{"org.astro", "com.greetings"},
		Test:       []string{"test.modules", "org.astro"},
		Patched:    []string{"org.astro"},
		AddModules: []string{"test.modules"},
	}
}

func TestInvocation(t *testing.T) {
	layout := testLayout(t)
	r := New(zerolog.Nop(), &toolexectest.Recorder{}, layout, Options{
		Options:   []string{"--disable-banner"},
		ExtraArgs: []string{"--include-tag", "fast"},
	})

	inv := r.Invocation(astroGraph(), "test.modules")
	require.Equal(t, "java", inv.Tool)
	require.Equal(t, []string{
		"--module-path", model.SearchPath{
			filepath.Join(layout.OutputRoot, "modules", "test"),
			filepath.Join(layout.OutputRoot, "modules", "main"),
			layout.CacheDir,
		}.String(),
		"--add-modules", "test.modules",
		"--patch-module", "org.astro=" + filepath.Join(layout.OutputRoot, "modules", "main", "org.astro.jar"),
		"--module", DefaultModule,
		"--disable-banner",
		"--reports-dir=" + filepath.Join(layout.OutputRoot, "test-reports", "test.modules"),
		"--select-module", "test.modules",
		"--include-tag", "fast",
	}, inv.Args)
}

func TestInvocationResolvesSelectedModule(t *testing.T) {
	layout := testLayout(t)
	r := New(zerolog.Nop(), &toolexectest.Recorder{}, layout, Options{})

	tests := []struct {
		name   string
		graph  model.Graph
		module string
		want   string
	}{
		{
			name:   "only patched test module",
			graph:  model.Graph{Main: []string{"p"}, Test: []string{"p"}, Patched: []string{"p"}},
			module: "p",
			want:   "p",
		},
		{
			name:   "patched module next to a black-box module",
			graph:  astroGraph(),
			module: "org.astro",
			want:   "test.modules,org.astro",
		},
		{
			name:   "already listed",
			graph:  astroGraph(),
			module: "test.modules",
			want:   "test.modules",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := r.Invocation(tt.graph, tt.module)
			require.Equal(t, tt.want, toolexectest.ArgValue(inv.Args, "--add-modules"))
		})
	}
}

func TestRunCreatesReportDirs(t *testing.T) {
	layout := testLayout(t)
	rec := &toolexectest.Recorder{}

	require.NoError(t, New(zerolog.Nop(), rec, layout, Options{}).Run(context.Background(), astroGraph()))
	require.Len(t, rec.Invocations, 2)
	require.Equal(t, "test.modules", toolexectest.ArgValue(rec.Invocations[0].Args, "--select-module"))
	require.Equal(t, "org.astro", toolexectest.ArgValue(rec.Invocations[1].Args, "--select-module"))

	for _, m := range astroGraph().Test {
		info, err := os.Stat(layout.ReportsDir(m))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
}

func TestRunFailsFast(t *testing.T) {
	rec := &toolexectest.Recorder{
		ExitCode: func(inv toolexec.Invocation) int {
			if toolexectest.ArgValue(inv.Args, "--select-module") == "test.modules" {
				return 1
			}
			return 0
		},
	}

	err := New(zerolog.Nop(), rec, testLayout(t), Options{}).Run(context.Background(), astroGraph())

	var testErr *TestExecutionError
	require.True(t, errors.As(err, &testErr))
	require.Equal(t, "test.modules", testErr.Module)
	require.Len(t, rec.Invocations, 1, "org.astro must not be launched after test.modules failed")

	var exitErr *toolexec.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 1, exitErr.Code)
}

func TestPatchesMatchCompiler(t *testing.T) {
	layout := testLayout(t)
	g := astroGraph()

	compiler := compile.New(zerolog.Nop(), &toolexectest.Recorder{}, layout)
	compileArgs := compiler.CompileInvocation(model.RealmTest, g).Args
	wantPatches := toolexectest.ArgValues(compileArgs, "--patch-module")
	require.NotEmpty(t, wantPatches)

	r := New(zerolog.Nop(), &toolexectest.Recorder{}, layout, Options{})
	for _, m := range g.Test {
		require.Equal(t, wantPatches, toolexectest.ArgValues(r.Invocation(g, m).Args, "--patch-module"), "module %s", m)
	}
}
