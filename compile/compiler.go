// Package compile builds the module graph: it compiles and packages the main
// realm, then compiles and packages the test realm with patch access to the
// packaged main-realm modules.
package compile

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
	CompilerTool = "javac"
	PackagerTool = "jar"
)

// CompileError reports a failed compiler invocation for a whole realm.
type CompileError struct {
	Realm model.Realm
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile %s realm: %v", e.Realm, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// PackageError reports a failed packager invocation for one module.
type PackageError struct {
	Realm  model.Realm
	Module string
	Err    error
}

func (e *PackageError) Error() string {
	return fmt.Sprintf("failed to package %s module %s: %v", e.Realm, e.Module, e.Err)
}

func (e *PackageError) Unwrap() error { return e.Err }

// MissingPatchError reports a patch whose main-realm artifact does not exist
// when the test realm is about to be compiled.
type MissingPatchError struct {
	Patch model.Patch
	Err   error
}

func (e *MissingPatchError) Error() string {
	return fmt.Sprintf("patch source for module %s not packaged: %v", e.Patch.Module, e.Err)
}

func (e *MissingPatchError) Unwrap() error { return e.Err }

// Compiler drives the compiler and packager tools over both realms.
type Compiler struct {
	logger zerolog.Logger
	runner toolexec.Runner
	layout model.Layout
}

func New(logger zerolog.Logger, runner toolexec.Runner, layout model.Layout) *Compiler {
	return &Compiler{
		logger: logger,
		runner: runner,
		layout: layout,
	}
}

// CompileInvocation returns the single multi-module compiler call of a realm.
func (c *Compiler) CompileInvocation(realm model.Realm, g model.Graph) toolexec.Invocation {
	args := []string{
		"-d", c.layout.ClassesDir(realm),
		"--module-source-path", c.layout.ModuleSourcePath(realm),
	}

	switch realm {
	case model.RealmMain:
		if g.MainNeedsCache {
			args = append(args, "--module-path", c.layout.CacheDir)
		}
	case model.RealmTest:
		modulePath := model.SearchPath{c.layout.ModulesDir(model.RealmMain), c.layout.CacheDir}
		args = append(args, "--module-path", modulePath.String())
		args = append(args, model.PatchArgs(g.Patches(c.layout))...)
	}

	args = append(args, g.Options(realm)...)
	args = append(args, "--module", strings.Join(g.Modules(realm), ","))

	return toolexec.Invocation{Tool: CompilerTool, Args: args}
}

// PackageInvocation returns the packager call producing one module artifact.
func (c *Compiler) PackageInvocation(realm model.Realm, module string) toolexec.Invocation {
	return toolexec.Invocation{
		Tool: PackagerTool,
		Args: []string{
			"--create",
			"--file", c.layout.ArtifactPath(realm, module),
			"-C", c.layout.ModuleClassesDir(realm, module),
			".",
		},
	}
}

// Plan lists the invocations Build performs, in order.
func (c *Compiler) Plan(g model.Graph) []toolexec.Invocation {
	var plan []toolexec.Invocation
	for _, realm := range []model.Realm{model.RealmMain, model.RealmTest} {
		if len(g.Modules(realm)) == 0 {
			continue
		}
		plan = append(plan, c.CompileInvocation(realm, g))
		for _, m := range g.Modules(realm) {
			plan = append(plan, c.PackageInvocation(realm, m))
		}
	}
	return plan
}

// Build compiles and packages the main realm, then the test realm. The test
// realm is only compiled once every patch source artifact exists.
func (c *Compiler) Build(ctx context.Context, g model.Graph) error {
	if err := c.buildRealm(ctx, model.RealmMain, g); err != nil {
		return err
	}

	for _, p := range g.Patches(c.layout) {
		if _, err := os.Stat(p.Artifact); err != nil {
			return &MissingPatchError{Patch: p, Err: err}
		}
	}

	return c.buildRealm(ctx, model.RealmTest, g)
}

func (c *Compiler) buildRealm(ctx context.Context, realm model.Realm, g model.Graph) error {
	modules := g.Modules(realm)
	if len(modules) == 0 {
		c.logger.Info().Str("realm", string(realm)).Msg("No modules to compile")
		return nil
	}

	start := time.Now()
	if err := c.runner.Run(ctx, c.CompileInvocation(realm, g)); err != nil {
		return &CompileError{Realm: realm, Err: err}
	}

	c.logger.Info().
		Str("realm", string(realm)).
		Strs("modules", modules).
		Dur("duration", time.Since(start)).
		Msg("Realm compiled")

	if err := os.MkdirAll(c.layout.ModulesDir(realm), 0755); err != nil {
		return fmt.Errorf("failed to create module directory: %w", err)
	}

	for _, m := range modules {
		if err := c.runner.Run(ctx, c.PackageInvocation(realm, m)); err != nil {
			return &PackageError{Realm: realm, Module: m, Err: err}
		}
		c.logger.Debug().
			Str("realm", string(realm)).
			Str("module", m).
			Str("artifact", c.layout.ArtifactPath(realm, m)).
			Msg("Module packaged")
	}

	return nil
}
