// Package session manages the local working copy of one package repository
// for the duration of a run.
//
// A Session owns the working directory at <reposDir>/<owner>/<name>. It
// resolves the repository's tags into ordered releases and checks them out one
// at a time. Every failure is reported as a [registry.ValidationError] so the
// caller can record it without inspecting transport errors:
//
//   - Open fails with SOURCE_UNAVAILABLE when the repository cannot be cloned
//     or fetched.
//   - Releases reports each unparsable tag as INVALID_VERSION, and fails with
//     NO_TAGS_FOUND when no tag resolves.
//   - Checkout fails with SOURCE_UNAVAILABLE for that tag only.
//
// # Usage
//
//	s, err := session.Open(ctx, provider, src, "repos")
//	if err != nil {
//	    bag.Add(err)
//	    return
//	}
//	releases, tagErrs, err := s.Releases(ctx)
//	for _, rel := range releases {
//	    if err := s.Checkout(ctx, rel); err != nil {
//	        continue
//	    }
//	    // inspect s.WorkDir()
//	}
package session

import (
	"context"
	"path/filepath"

	"github.com/matzehuels/schemahub/pkg/errors"
	"github.com/matzehuels/schemahub/pkg/registry"
	"github.com/matzehuels/schemahub/pkg/vcs"
	"github.com/matzehuels/schemahub/pkg/version"
)

// Session is an open working copy of one package repository.
type Session struct {
	source  registry.PackageSource
	repo    vcs.Repository
	labels  []string
	current *version.Release
}

// Dir returns the working copy location for src under reposDir.
func Dir(reposDir string, src registry.PackageSource) string {
	return filepath.Join(reposDir, src.Owner, src.Name)
}

// Open clones or refreshes the repository of src under reposDir.
func Open(ctx context.Context, provider vcs.Provider, src registry.PackageSource, reposDir string) (*Session, *registry.ValidationError) {
	repo, err := provider.EnsureLocal(ctx, src.URL, Dir(reposDir, src))
	if err != nil {
		ve := registry.NewValidationError(errors.ErrCodeSourceUnavailable, src, nil,
			"cannot access repository %s", src.URL)
		ve.Cause = err
		return nil, ve
	}
	return &Session{source: src, repo: repo}, nil
}

// Source returns the package the session belongs to.
func (s *Session) Source() registry.PackageSource { return s.source }

// WorkDir returns the root of the working tree.
func (s *Session) WorkDir() string { return s.repo.WorkDir() }

// Current returns the release checked out last, or nil.
func (s *Session) Current() *version.Release { return s.current }

// Releases resolves every tag label into a release. Labels that are not
// semantic versions are returned as INVALID_VERSION errors and skipped. The
// releases come back in ascending version order. When no label resolves the
// returned error is NO_TAGS_FOUND.
func (s *Session) Releases(ctx context.Context) ([]version.Release, []*registry.ValidationError, *registry.ValidationError) {
	labels, err := s.repo.TagLabels(ctx)
	if err != nil {
		ve := registry.NewValidationError(errors.ErrCodeSourceUnavailable, s.source, nil, "cannot list tags")
		ve.Cause = err
		return nil, nil, ve
	}
	s.labels = labels

	var (
		releases []version.Release
		tagErrs  []*registry.ValidationError
	)
	for _, label := range labels {
		rel, err := version.Parse(label)
		if err != nil {
			tagErrs = append(tagErrs, registry.AsValidationError(err, s.source, &version.Release{Label: label, Version: label}))
			continue
		}
		releases = append(releases, rel)
	}

	if len(releases) == 0 {
		_, err := version.Latest(nil)
		return nil, tagErrs, registry.AsValidationError(err, s.source, nil)
	}
	return version.Order(releases), tagErrs, nil
}

// Checkout switches the working tree to rel.
func (s *Session) Checkout(ctx context.Context, rel version.Release) *registry.ValidationError {
	label := version.TagName(rel, s.labels)
	if err := s.repo.Checkout(ctx, label); err != nil {
		ve := registry.NewValidationError(errors.ErrCodeSourceUnavailable, s.source, &rel,
			"cannot check out tag %s", label)
		ve.Cause = err
		return ve
	}
	s.current = &rel
	return nil
}
