// Package manifest loads the build manifest describing a modforge project:
// its realms, patches, dependencies, layout and toolchain.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modforge/modforge/launch"
	"github.com/modforge/modforge/model"
	"github.com/modforge/modforge/resolve"
)

// FileNames are the manifest names looked up in a project directory, in order.
var FileNames = []string{"modforge.yaml", "modforge.yml", "modforge.hcl"}

// Manifest is the decoded build manifest.
type Manifest struct {
	Repository   string            `yaml:"repository" hcl:"repository,optional"`
	JavaHome     string            `yaml:"java_home" hcl:"java_home,optional"`
	Tools        map[string]string `yaml:"tools" hcl:"tools,optional"`
	Layout       *Layout           `yaml:"layout" hcl:"layout,block"`
	Main         *Realm            `yaml:"main" hcl:"main,block"`
	Test         *Realm            `yaml:"test" hcl:"test,block"`
	Launcher     *Launcher         `yaml:"launcher" hcl:"launcher,block"`
	Dependencies *Dependencies     `yaml:"dependencies" hcl:"dependencies,block"`

	// Dir is the directory relative layout paths resolve against.
	Dir string `yaml:"-"`
	// Path is the file the manifest was loaded from.
	Path string `yaml:"-"`
}

type Layout struct {
	Source string `yaml:"source" hcl:"source,optional"`
	Output string `yaml:"output" hcl:"output,optional"`
	Cache  string `yaml:"cache" hcl:"cache,optional"`
}

type Realm struct {
	Modules []string `yaml:"modules" hcl:"modules,optional"`
	Options []string `yaml:"options" hcl:"options,optional"`
	// Patches names test modules that extend the main module of the same name.
	Patches []string `yaml:"patches" hcl:"patches,optional"`
	// AddModules names test modules the launcher resolves explicitly.
	AddModules []string `yaml:"add_modules" hcl:"add_modules,optional"`
}

type Launcher struct {
	Module  string   `yaml:"module" hcl:"module,optional"`
	Options []string `yaml:"options" hcl:"options,optional"`
}

type Dependencies struct {
	Main []string `yaml:"main" hcl:"main,optional"`
	Test []string `yaml:"test" hcl:"test,optional"`
}

// Normalized returns a copy with defaults applied.
func (m Manifest) Normalized() Manifest {
	if m.Repository == "" {
		m.Repository = resolve.DefaultRepository
	}
	m.Repository = strings.TrimSuffix(strings.TrimSpace(m.Repository), "/")
	if m.Dir == "" {
		m.Dir = "."
	}

	layout := Layout{}
	if m.Layout != nil {
		layout = *m.Layout
	}
	if layout.Source == "" {
		layout.Source = "src"
	}
	if layout.Output == "" {
		layout.Output = "out"
	}
	if layout.Cache == "" {
		layout.Cache = "lib"
	}
	m.Layout = &layout

	if m.Main == nil {
		m.Main = &Realm{}
	}
	test := Realm{}
	if m.Test != nil {
		test = *m.Test
	}
	if test.AddModules == nil {
		for _, t := range test.Modules {
			if !contains(test.Patches, t) {
				test.AddModules = append(test.AddModules, t)
			}
		}
	}
	m.Test = &test

	launcher := Launcher{}
	if m.Launcher != nil {
		launcher = *m.Launcher
	}
	if launcher.Module == "" {
		launcher.Module = launch.DefaultModule
		if launcher.Options == nil {
			launcher.Options = []string{"--disable-banner"}
		}
	}
	m.Launcher = &launcher

	if m.Dependencies == nil {
		m.Dependencies = &Dependencies{}
	}
	return m
}

// Validate checks the manifest for inconsistencies. It expects a normalized
// manifest.
func (m Manifest) Validate() error {
	var errs []error

	if m.Main == nil || len(m.Main.Modules) == 0 {
		errs = append(errs, errors.New("main realm declares no modules"))
	} else {
		errs = append(errs, checkNames("main", m.Main.Modules)...)
		if len(m.Main.Patches) > 0 {
			errs = append(errs, errors.New("main realm cannot declare patches"))
		}
	}

	if m.Test != nil {
		errs = append(errs, checkNames("test", m.Test.Modules)...)
		seen := map[string]bool{}
		for _, p := range m.Test.Patches {
			if seen[p] {
				errs = append(errs, fmt.Errorf("module %q patched more than once", p))
				continue
			}
			seen[p] = true
			if !contains(m.Test.Modules, p) {
				errs = append(errs, fmt.Errorf("patched module %q is not a test module", p))
			}
			if m.Main == nil || !contains(m.Main.Modules, p) {
				errs = append(errs, fmt.Errorf("patched module %q is not a main module", p))
			}
		}
		for _, a := range m.Test.AddModules {
			if !contains(m.Test.Modules, a) {
				errs = append(errs, fmt.Errorf("add_modules entry %q is not a test module", a))
			}
		}
	}

	if m.Dependencies != nil {
		for _, d := range append(append([]string{}, m.Dependencies.Main...), m.Dependencies.Test...) {
			if _, err := model.ParseCoordinate(d); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("manifest: %w", errors.Join(errs...))
	}
	return nil
}

func checkNames(realm string, modules []string) []error {
	var errs []error
	seen := map[string]bool{}
	for _, name := range modules {
		switch {
		case strings.TrimSpace(name) == "":
			errs = append(errs, fmt.Errorf("%s realm has an empty module name", realm))
		case strings.ContainsAny(name, ",/\\ "):
			errs = append(errs, fmt.Errorf("%s module %q has an invalid name", realm, name))
		case seen[name]:
			errs = append(errs, fmt.Errorf("%s module %q declared twice", realm, name))
		}
		seen[name] = true
	}
	return errs
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ModelLayout resolves the layout against the manifest directory.
func (m Manifest) ModelLayout() model.Layout {
	return model.Layout{
		SourceRoot: m.resolvePath(m.Layout.Source),
		OutputRoot: m.resolvePath(m.Layout.Output),
		CacheDir:   m.resolvePath(m.Layout.Cache),
	}
}

func (m Manifest) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(m.Dir, p)
}

// Graph returns the module graph of both realms.
func (m Manifest) Graph() model.Graph {
	return model.Graph{
		Main:           m.Main.Modules,
		Test:           m.Test.Modules,
		Patched:        m.Test.Patches,
		AddModules:     m.Test.AddModules,
		MainOptions:    m.Main.Options,
		TestOptions:    m.Test.Options,
		MainNeedsCache: len(m.Dependencies.Main) > 0,
	}
}

// Coordinates returns all dependencies, main scope first, without duplicates.
func (m Manifest) Coordinates() ([]model.Coordinate, error) {
	var coords []model.Coordinate
	seen := map[model.Coordinate]bool{}
	for _, d := range append(append([]string{}, m.Dependencies.Main...), m.Dependencies.Test...) {
		c, err := model.ParseCoordinate(d)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		coords = append(coords, c)
	}
	return coords, nil
}

// LauncherOptions returns the test launcher configuration.
func (m Manifest) LauncherOptions(extraArgs []string) launch.Options {
	return launch.Options{
		Module:    m.Launcher.Module,
		Options:   m.Launcher.Options,
		ExtraArgs: extraArgs,
	}
}

// Load reads, normalizes and validates the manifest at path. The format
// follows the file extension.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		m, err = ParseYAML(data)
	case ".hcl":
		m, err = ParseHCL(data, path)
	default:
		return nil, fmt.Errorf("manifest: unsupported file type %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}

	m.Path = filepath.Clean(path)
	m.Dir = filepath.Dir(m.Path)
	m = m.Normalized()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// Find returns the manifest path in dir.
func Find(dir string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no manifest found in %s (looked for %s)", dir, strings.Join(FileNames, ", "))
}
