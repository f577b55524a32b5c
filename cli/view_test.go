package cli

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/modforge/modforge/history"
	"github.com/modforge/modforge/model"
	"github.com/modforge/modforge/toolexec"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRemoveFirstDashDash(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "empty slice",
			in:   []string{},
			want: []string{},
		},
		{
			name: "starts with --",
			in:   []string{"--", "--include-tag", "fast"},
			want: []string{"--include-tag", "fast"},
		},
		{
			name: "no --",
			in:   []string{"--include-tag", "fast"},
			want: []string{"--include-tag", "fast"},
		},
		{
			name: "only --",
			in:   []string{"--"},
			want: []string{},
		},
		{
			name: "-- in middle",
			in:   []string{"--details=tree", "--", "--fail-if-no-tests"},
			want: []string{"--details=tree", "--", "--fail-if-no-tests"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := removeFirstDashDash(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("removeFirstDashDash() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseViewArgs(t *testing.T) {
	tests := []struct {
		name   string
		in     []string
		wantID string
	}{
		{name: "empty args - default to 0", in: []string{}, wantID: "0"},
		{name: "only ID - index 0", in: []string{"0"}, wantID: "0"},
		{name: "negative index after --", in: []string{"--", "-1"}, wantID: "-1"},
		{name: "hex ID", in: []string{"abc123"}, wantID: "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.wantID, parseViewArgs(tt.in))
		})
	}
}

func TestParseStage(t *testing.T) {
	for _, s := range []string{"resolve", "compile", "test"} {
		stage, err := parseStage(s)
		require.NoError(t, err)
		require.Equal(t, model.StageName(s), stage)
	}

	_, err := parseStage("package")
	require.Error(t, err)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "plain error", err: errors.New("boom"), want: 1},
		{
			name: "wrapped tool exit",
			err:  fmt.Errorf("test stage failed: %w", &toolexec.ExitError{Invocation: toolexec.Invocation{Tool: "java"}, Code: 2}),
			want: 2,
		},
		{
			name: "tool killed by signal",
			err:  &toolexec.ExitError{Invocation: toolexec.Invocation{Tool: "javac"}, Code: -1},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestDisplayHistoryEntry(t *testing.T) {
	a := &App{logger: zerolog.Nop()}
	entry := &history.Entry{
		FullPath: "/tmp/project/.modforge/history/20240102-030405-nogit-0123abcd",
		History: model.History{
			ID:        "0123abcdef",
			Type:      model.HistoryTypeTest,
			Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			ExitCode:  1,
			Stages:    []model.Stage{{Name: model.StageResolve, Duration: time.Second}},
			Failure: &model.Failure{
				Stage:   model.StageCompile,
				Message: "main realm: compilation failed",
				Command: "javac -d out/classes/main",
			},
			Artifacts: []model.Artifact{
				{Type: model.ArtifactTypeDependency, Size: 2048, File: "lib/junit.jar"},
				{Type: model.ArtifactTypeTestReport, File: "out/test-reports/org.astro"},
			},
		},
	}

	var buf bytes.Buffer
	a.displayHistoryEntry(&buf, entry)
	out := buf.String()

	require.Contains(t, out, "test run: 0123abcd")
	require.Contains(t, out, "main realm: compilation failed")
	require.Contains(t, out, "command: javac -d out/classes/main")
	require.Contains(t, out, "lib/junit.jar (2.0 KB)")
	require.Contains(t, out, "out/test-reports/org.astro")
	require.Contains(t, out, entry.FullPath)
}
