package model

import "time"

// HistoryType represents the command that produced a history entry
type HistoryType string

const (
	HistoryTypeResolve HistoryType = "resolve"
	HistoryTypeBuild   HistoryType = "build"
	HistoryTypeTest    HistoryType = "test"
)

// History represents a single modforge pipeline execution
type History struct {
	// Unique ID for this execution (16 random bytes, hex encoded)
	ID string `json:"id"`
	// Command that was executed
	Type HistoryType `json:"type"`
	// Timestamp when the execution started
	Timestamp time.Time `json:"timestamp"`
	// Command-line arguments (including command name)
	Args []string `json:"args"`
	// Project directory (the directory containing the manifest)
	WorkDir string `json:"workdir"`
	// Manifest file used for this run
	Manifest string `json:"manifest,omitempty"`
	// Exit code of the execution
	ExitCode int `json:"exit_code"`
	// Duration of execution
	Duration time.Duration `json:"duration"`
	// Git information
	Git *Git `json:"git,omitempty"`
	// Stages that completed successfully, in order
	Stages []Stage `json:"stages,omitempty"`
	// Failure is set when the pipeline aborted
	Failure *Failure `json:"failure,omitempty"`
	// Artifacts generated during this run
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Git contains git repository information
type Git struct {
	// Git commit hash at time of execution
	Commit string `json:"commit,omitempty"`
	// Git branch at time of execution
	Branch string `json:"branch,omitempty"`
}

// StageName identifies a pipeline stage
type StageName string

const (
	StageResolve StageName = "resolve"
	StageCompile StageName = "compile"
	StageTest    StageName = "test"
)

// Stage records a completed pipeline stage
type Stage struct {
	Name     StageName     `json:"name"`
	Duration time.Duration `json:"duration"`
}

// Failure describes why a pipeline aborted
type Failure struct {
	Stage StageName `json:"stage"`
	// Error message as reported to the operator
	Message string `json:"message"`
	// Shell-quoted command line of the failing tool invocation, if any
	Command string `json:"command,omitempty"`
	// Exit code of the failing tool invocation, if any
	ExitCode int `json:"exit_code,omitempty"`
	// HTTP status of the failing dependency fetch, if any
	HTTPStatus int `json:"http_status,omitempty"`
}

// ArtifactType identifies the type of artifact
type ArtifactType uint8

const (
	ArtifactTypeMainModule ArtifactType = iota
	ArtifactTypeTestModule
	ArtifactTypeTestReport
	ArtifactTypeDependency
	ArtifactTypeBuildLog
)

func (t ArtifactType) String() string {
	switch t {
	case ArtifactTypeMainModule:
		return "main"
	case ArtifactTypeTestModule:
		return "test"
	case ArtifactTypeTestReport:
		return "report"
	case ArtifactTypeDependency:
		return "dependency"
	case ArtifactTypeBuildLog:
		return "log"
	}
	return "unknown"
}

// Artifact represents a file or directory produced during execution
type Artifact struct {
	Type ArtifactType `json:"type"`
	Size uint64       `json:"size"`
	// Path of the artifact; the build log is relative to the run dir
	File string `json:"file"`
}
