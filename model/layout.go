package model

import "path/filepath"

// Layout holds the directories a build reads from and writes to.
type Layout struct {
	// SourceRoot contains one directory per module: <module>/<realm>/java.
	SourceRoot string
	// OutputRoot receives compiled classes, packaged modules and test reports.
	OutputRoot string
	// CacheDir holds resolved third-party artifacts.
	CacheDir string
}

// ModuleSourcePath returns the multi-module source pattern of a realm.
func (l Layout) ModuleSourcePath(realm Realm) string {
	return filepath.Join(l.SourceRoot, "*", string(realm), "java")
}

func (l Layout) ClassesDir(realm Realm) string {
	return filepath.Join(l.OutputRoot, "classes", string(realm))
}

func (l Layout) ModuleClassesDir(realm Realm, module string) string {
	return filepath.Join(l.ClassesDir(realm), module)
}

func (l Layout) ModulesDir(realm Realm) string {
	return filepath.Join(l.OutputRoot, "modules", string(realm))
}

func (l Layout) ArtifactPath(realm Realm, module string) string {
	return filepath.Join(l.ModulesDir(realm), module+".jar")
}

func (l Layout) ReportsDir(module string) string {
	return filepath.Join(l.OutputRoot, "test-reports", module)
}
