package model

import (
	"os"
	"strings"
)

// Realm is a build realm. Modules of the test realm may patch modules of the
// main realm.
type Realm string

const (
	RealmMain Realm = "main"
	RealmTest Realm = "test"
)

// Patch grants the test-realm module named Module access to the internals of
// the packaged main-realm artifact. The same patches are passed to the
// compiler and to the test launcher.
type Patch struct {
	Module   string `json:"module"`
	Artifact string `json:"artifact"`
}

func (p Patch) String() string {
	return p.Module + "=" + p.Artifact
}

// PatchArgs renders patches as compiler and launcher arguments.
func PatchArgs(patches []Patch) []string {
	args := make([]string, 0, 2*len(patches))
	for _, p := range patches {
		args = append(args, "--patch-module", p.String())
	}
	return args
}

// SearchPath is an ordered list of artifact files and directories.
type SearchPath []string

func (s SearchPath) String() string {
	return strings.Join(s, string(os.PathListSeparator))
}

// Graph describes the modules of both realms and how they relate.
type Graph struct {
	Main []string
	Test []string

	// Patched lists test-realm modules that extend the main-realm module of
	// the same name.
	Patched []string

	// AddModules lists test-realm modules resolved explicitly by the launcher.
	AddModules []string

	// MainOptions and TestOptions are extra compiler options per realm.
	MainOptions []string
	TestOptions []string

	// MainNeedsCache puts the dependency cache on the main realm's module path.
	MainNeedsCache bool
}

// Modules returns the module list of a realm.
func (g Graph) Modules(realm Realm) []string {
	if realm == RealmTest {
		return g.Test
	}
	return g.Main
}

// Options returns the extra compiler options of a realm.
func (g Graph) Options(realm Realm) []string {
	if realm == RealmTest {
		return g.TestOptions
	}
	return g.MainOptions
}

// Patches resolves the patched module names to main-realm artifacts.
func (g Graph) Patches(layout Layout) []Patch {
	patches := make([]Patch, 0, len(g.Patched))
	for _, m := range g.Patched {
		patches = append(patches, Patch{
			Module:   m,
			Artifact: layout.ArtifactPath(RealmMain, m),
		})
	}
	return patches
}
