package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Coordinate
		wantErr bool
	}{
		{
			name: "valid",
			in:   "org.junit.jupiter:junit-jupiter:5.6.0",
			want: Coordinate{Group: "org.junit.jupiter", Artifact: "junit-jupiter", Version: "5.6.0"},
		},
		{
			name: "surrounding whitespace",
			in:   "  g.h:a:1.0.0 ",
			want: Coordinate{Group: "g.h", Artifact: "a", Version: "1.0.0"},
		},
		{
			name:    "missing version",
			in:      "g.h:a",
			wantErr: true,
		},
		{
			name:    "empty artifact",
			in:      "g.h::1.0.0",
			wantErr: true,
		},
		{
			name:    "too many elements",
			in:      "g:a:jar:1.0.0",
			wantErr: true,
		},
		{
			name:    "parent directory in artifact",
			in:      "g:../../evil:1",
			wantErr: true,
		},
		{
			name:    "slash in version",
			in:      "g.h:a:1.0/x",
			wantErr: true,
		},
		{
			name:    "backslash in group",
			in:      `g\h:a:1.0.0`,
			wantErr: true,
		},
		{
			name:    "inner whitespace",
			in:      "g.h:a b:1.0.0",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCoordinate(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCoordinateLocation(t *testing.T) {
	c := Coordinate{Group: "g.h", Artifact: "a", Version: "1.0.0"}

	require.Equal(t, "a-1.0.0.jar", c.FileName(""))
	require.Equal(t, "a-1.0.0.zip", c.FileName("zip"))
	require.Equal(t, "https://repo.example/g/h/a/1.0.0/a-1.0.0.jar", c.URL("https://repo.example", "jar"))
	require.Equal(t, "https://repo.example/g/h/a/1.0.0/a-1.0.0.jar", c.URL("https://repo.example/", "jar"))
	require.Equal(t, "g.h:a:1.0.0", c.String())
}
