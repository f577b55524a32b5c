// Package resolve ensures pinned third-party artifacts are present in the
// local dependency cache, downloading the missing ones.
package resolve

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/modforge/modforge/model"
	"github.com/rs/zerolog"
)

// DefaultRepository is the Maven Central base URL.
const DefaultRepository = "https://repo.maven.apache.org/maven2"

// FetchError reports a dependency download that did not complete with 200 OK.
type FetchError struct {
	Coordinate model.Coordinate
	URL        string
	StatusCode int
	Status     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s from %s: %s", e.Coordinate, e.URL, e.Status)
}

// ChecksumError reports a downloaded artifact whose SHA-1 does not match the
// repository's published checksum.
type ChecksumError struct {
	Coordinate model.Coordinate
	URL        string
	Expected   string
	Actual     string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s from %s: expected %s, got %s", e.Coordinate, e.URL, e.Expected, e.Actual)
}

// Report lists the cache file names touched by Ensure.
type Report struct {
	Fetched []string
	Cached  []string
}

// Resolver downloads artifacts from a remote repository into a cache dir.
type Resolver struct {
	logger     zerolog.Logger
	client     *http.Client
	repository string
	extension  string
	verify     bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		r.client = client
	}
}

// WithExtension changes the artifact file extension (default "jar").
func WithExtension(ext string) Option {
	return func(r *Resolver) {
		r.extension = ext
	}
}

// WithChecksums verifies each download against the repository's .sha1 file.
func WithChecksums(verify bool) Option {
	return func(r *Resolver) {
		r.verify = verify
	}
}

// New creates a resolver for the given repository base URL.
func New(logger zerolog.Logger, repository string, opts ...Option) *Resolver {
	if repository == "" {
		repository = DefaultRepository
	}
	r := &Resolver{
		logger:     logger,
		client:     http.DefaultClient,
		repository: repository,
		extension:  model.DefaultExtension,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// URL returns the remote location of a coordinate.
func (r *Resolver) URL(c model.Coordinate) string {
	return c.URL(r.repository, r.extension)
}

// Target returns the cache path of a coordinate.
func (r *Resolver) Target(c model.Coordinate, cacheDir string) string {
	return filepath.Join(cacheDir, c.FileName(r.extension))
}

// Ensure makes every coordinate available in cacheDir. Existing files are
// trusted as-is. The first failing download stops the resolver; coordinates
// after it are not fetched.
func (r *Resolver) Ensure(ctx context.Context, coords []model.Coordinate, cacheDir string) (Report, error) {
	var report Report

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return report, fmt.Errorf("failed to create dependency cache: %w", err)
	}

	for _, c := range coords {
		target := r.Target(c, cacheDir)
		file := filepath.Base(target)

		if _, err := os.Stat(target); err == nil {
			r.logger.Debug().Str("coordinate", c.String()).Str("file", target).Msg("Dependency cached")
			report.Cached = append(report.Cached, file)
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return report, fmt.Errorf("failed to inspect %s: %w", target, err)
		}

		if err := r.fetch(ctx, c, target); err != nil {
			return report, err
		}
		report.Fetched = append(report.Fetched, file)
	}

	return report, nil
}

func (r *Resolver) fetch(ctx context.Context, c model.Coordinate, target string) error {
	source := r.URL(c)
	r.logger.Info().Str("url", source).Msg("Fetching dependency")

	var expected string
	if r.verify {
		sum, err := r.checksum(ctx, c, source)
		if err != nil {
			return err
		}
		expected = sum
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", c, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &FetchError{Coordinate: c, URL: source, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	// The body lands in a temp file next to the target and is only renamed
	// into place once complete, so the cache never holds a truncated file.
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	digest := sha1.New()
	size, err := io.Copy(io.MultiWriter(tmp, digest), resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", c, err)
	}

	if r.verify {
		actual := hex.EncodeToString(digest.Sum(nil))
		if !strings.EqualFold(actual, expected) {
			return &ChecksumError{Coordinate: c, URL: source, Expected: expected, Actual: actual}
		}
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to store %s: %w", target, err)
	}

	r.logger.Debug().Str("file", target).Int64("bytes", size).Msg("Dependency stored")
	return nil
}

// checksum downloads the published SHA-1 of an artifact. The file may hold
// the bare digest or "<digest>  <file name>".
func (r *Resolver) checksum(ctx context.Context, c model.Coordinate, source string) (string, error) {
	url := source + ".sha1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch checksum of %s: %w", c, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{Coordinate: c, URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("failed to read checksum of %s: %w", c, err)
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", fmt.Errorf("empty checksum for %s at %s", c, url)
	}
	return fields[0], nil
}
