// Package artifact stores the files extracted from validated releases.
//
// Artifacts are namespaced by package slug and version. The filesystem
// backend lays them out as <root>/<owner>/<name>/<version>/<file>; the object
// store backend uses the same path as the object key below a prefix.
package artifact

import (
	"context"
	"path"
	"strings"

	"github.com/matzehuels/schemahub/pkg/errors"
)

// Well-known artifact names.
const (
	SchemaFile    = "schema.json"
	ReadmeFile    = "README.md"
	ChangelogFile = "CHANGELOG.md"
)

// Store persists release artifacts.
type Store interface {
	// Put writes one artifact, replacing any previous content.
	Put(ctx context.Context, slug, version, name string, data []byte) error
	// Get reads one artifact. A missing artifact yields a NOT_FOUND error.
	Get(ctx context.Context, slug, version, name string) ([]byte, error)
	// List returns the artifact names stored for a release, sorted.
	List(ctx context.Context, slug, version string) ([]string, error)
}

// Key returns the relative location of an artifact.
func Key(slug, version, name string) (string, error) {
	if err := errors.ValidateSlug(slug); err != nil {
		return "", err
	}
	for _, part := range []string{version, name} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", errors.New(errors.ErrCodeInvalidPath, "invalid artifact path component %q", part)
		}
	}
	return path.Join(slug, version, name), nil
}
