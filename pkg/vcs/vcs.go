// Package vcs abstracts the version-control operations schemahub needs:
// keeping a local working copy of a remote repository current, listing its
// tags and checking a tag out into the working tree.
//
// [GitProvider] implements the interfaces with go-git, so no git binary is
// required on the host.
package vcs

import "context"

// Provider materializes repositories locally.
type Provider interface {
	// EnsureLocal clones url into dir when dir holds no repository yet,
	// otherwise opens it and fetches new tags.
	EnsureLocal(ctx context.Context, url, dir string) (Repository, error)
}

// Repository is a local working copy.
type Repository interface {
	// TagLabels lists the tag names present in the repository.
	TagLabels(ctx context.Context) ([]string, error)

	// Checkout replaces the working tree with the contents of the tag named
	// label. Annotated tags are peeled to their commit.
	Checkout(ctx context.Context, label string) error

	// WorkDir is the root of the working tree.
	WorkDir() string
}
