package model

import (
	"fmt"
	"strings"
)

// DefaultExtension is the file extension of binary dependency artifacts.
const DefaultExtension = "jar"

// Coordinate identifies a pinned binary artifact in a remote repository.
type Coordinate struct {
	Group    string `json:"group"`
	Artifact string `json:"artifact"`
	Version  string `json:"version"`
}

// ParseCoordinate parses a "group:artifact:version" string.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: expected group:artifact:version", s)
	}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
			return Coordinate{}, fmt.Errorf("invalid coordinate %q: empty element", s)
		case strings.ContainsAny(p, "/\\ ") || strings.Contains(p, ".."):
			// Elements become path segments of the cache file and the URL.
			return Coordinate{}, fmt.Errorf("invalid coordinate %q: element %q is not a plain name", s, p)
		}
	}
	return Coordinate{
		Group:    strings.TrimSpace(parts[0]),
		Artifact: strings.TrimSpace(parts[1]),
		Version:  strings.TrimSpace(parts[2]),
	}, nil
}

// FileName returns the cache-relative file name, e.g. "junit-jupiter-5.6.0.jar".
func (c Coordinate) FileName(ext string) string {
	if ext == "" {
		ext = DefaultExtension
	}
	return c.Artifact + "-" + c.Version + "." + ext
}

// URL returns the location of the artifact below the repository base URL.
func (c Coordinate) URL(repository, ext string) string {
	return strings.Join([]string{
		strings.TrimSuffix(repository, "/"),
		strings.ReplaceAll(c.Group, ".", "/"),
		c.Artifact,
		c.Version,
		c.FileName(ext),
	}, "/")
}

func (c Coordinate) String() string {
	return c.Group + ":" + c.Artifact + ":" + c.Version
}
