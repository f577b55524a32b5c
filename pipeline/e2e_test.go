package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/modforge/modforge/compile"
	"github.com/modforge/modforge/launch"
	"github.com/modforge/modforge/model"
	"github.com/modforge/modforge/resolve"
	"github.com/modforge/modforge/toolexec"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// Stand-ins for the JDK tools. They honour the same command contract and
// fail when an input they depend on is missing.
const fakeJavac = `#!/bin/sh
out=
modules=
while [ $# -gt 0 ]; do
  case "$1" in
    -d) out=$2; shift ;;
    --module) modules=$2; shift ;;
    --patch-module) [ -f "${2#*=}" ] || exit 9; shift ;;
  esac
  shift
done
for m in $(echo "$modules" | tr ',' ' '); do
  mkdir -p "$out/$m" || exit 3
  echo "$m" > "$out/$m/module-info.class"
done
`

const fakeJar = `#!/bin/sh
file=
dir=
while [ $# -gt 0 ]; do
  case "$1" in
    --file) file=$2; shift ;;
    -C) dir=$2; shift ;;
  esac
  shift
done
[ -f "$dir/module-info.class" ] || exit 4
cp "$dir/module-info.class" "$file"
`

const fakeJava = `#!/bin/sh
reports=
for arg in "$@"; do
  case "$arg" in
    --reports-dir=*) reports=${arg#--reports-dir=} ;;
  esac
done
[ -d "$reports" ] || exit 5
echo "<testsuite/>" > "$reports/TEST-junit-jupiter.xml"
exit %d
`

func writeTools(t *testing.T, javaExit int) map[string]string {
	t.Helper()
	bin := t.TempDir()
	tools := map[string]string{
		"javac": fakeJavac,
		"jar":   fakeJar,
		"java":  fmt.Sprintf(fakeJava, javaExit),
	}
	paths := map[string]string{}
	for name, script := range tools {
		path := filepath.Join(bin, name)
		require.NoError(t, os.WriteFile(path, []byte(script), 0755))
		paths[name] = path
	}
	return paths
}

func newEndToEnd(t *testing.T, javaExit int) (*Pipeline, Config) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	root := t.TempDir()
	cfg := Config{
		Layout: model.Layout{
			SourceRoot: filepath.Join(root, "src"),
			OutputRoot: filepath.Join(root, "out"),
			CacheDir:   filepath.Join(root, "lib"),
		},
		Graph: model.Graph{
			Main:    []string{"org.astro"},
			Test:    []string{"org.astro"},
			Patched: []string{"org.astro"},
		},
	}
	logger := zerolog.Nop()
	runner := toolexec.New(logger, toolexec.WithTools(writeTools(t, javaExit)), toolexec.WithOutput(io.Discard, io.Discard))
	return New(logger, cfg,
		resolve.New(logger, "http://127.0.0.1:1"),
		compile.New(logger, runner, cfg.Layout),
		launch.New(logger, runner, cfg.Layout, launch.Options{}),
	), cfg
}

func TestEndToEnd(t *testing.T) {
	p, cfg := newEndToEnd(t, 0)

	_, err := p.Run(context.Background(), model.StageTest)
	require.NoError(t, err)

	mainJars, err := filepath.Glob(filepath.Join(cfg.Layout.ModulesDir(model.RealmMain), "*.jar"))
	require.NoError(t, err)
	require.Equal(t, []string{cfg.Layout.ArtifactPath(model.RealmMain, "org.astro")}, mainJars)

	testJars, err := filepath.Glob(filepath.Join(cfg.Layout.ModulesDir(model.RealmTest), "*.jar"))
	require.NoError(t, err)
	require.Equal(t, []string{cfg.Layout.ArtifactPath(model.RealmTest, "org.astro")}, testJars)

	reports, err := os.ReadDir(filepath.Join(cfg.Layout.OutputRoot, "test-reports"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.FileExists(t, filepath.Join(cfg.Layout.ReportsDir("org.astro"), "TEST-junit-jupiter.xml"))

	require.DirExists(t, cfg.Layout.CacheDir)

	require.NoError(t, p.Clean())
	require.NoDirExists(t, cfg.Layout.OutputRoot)
	require.DirExists(t, cfg.Layout.CacheDir)
}

func TestEndToEndTestFailure(t *testing.T) {
	p, cfg := newEndToEnd(t, 7)

	_, err := p.Run(context.Background(), model.StageTest)

	var exitErr *toolexec.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 7, exitErr.Code)
	require.FileExists(t, cfg.Layout.ArtifactPath(model.RealmTest, "org.astro"), "artifacts are not cleaned up on abort")
}
