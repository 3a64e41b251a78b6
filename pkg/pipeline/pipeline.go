// Package pipeline runs the schema registry over every configured package.
//
// A run walks the packages in registry order. For each package it acquires
// the repository, resolves its tags into releases and processes them one at a
// time in version order: checkout, validate, extract. Extracted releases feed
// the catalog aggregator; every failure goes into the run's error bag. Once all
// packages are done the catalog is written, and owners whose error set changed
// since the last run are notified.
//
// # Failure isolation
//
// No validation failure aborts a run:
//
//   - Package-level errors (unsupported schema kind, unreachable repository,
//     no usable tags) skip the package.
//   - Tag-level errors (unparsable label, failed checkout, missing file,
//     invalid schema) skip the tag.
//
// [Runner.Run] returns an error only for infrastructure failures the owners
// cannot act on: writing the catalog, loading or persisting the dedup cache,
// and context cancellation.
//
// # Usage
//
//	runner := pipeline.NewRunner(vcs.NewGitProvider(logger), artifacts, logger)
//	runner.Catalog = catalog.NewFileWriter("catalog.json")
//	runner.Cache = cache.NewFileStore("errors-cache.json")
//	result, err := runner.Run(ctx, packages, pipeline.Options{ReposDir: "repos"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report.Write(os.Stdout, result.Errors)
package pipeline

import (
	"path/filepath"
	"time"

	"github.com/matzehuels/schemahub/pkg/catalog"
	"github.com/matzehuels/schemahub/pkg/errors"
	"github.com/matzehuels/schemahub/pkg/report"
)

// DefaultReposDir is where working copies live when Options.ReposDir is empty.
const DefaultReposDir = "repos"

// Options control one run.
type Options struct {
	// ReposDir holds one working copy per package at <ReposDir>/<owner>/<name>.
	ReposDir string

	// DryRun logs notifications instead of sending them and leaves the dedup
	// cache untouched, so the next real run still sees every change.
	DryRun bool
}

// ValidateAndSetDefaults applies defaults and checks the options.
func (o *Options) ValidateAndSetDefaults() error {
	if o.ReposDir == "" {
		o.ReposDir = DefaultReposDir
	}
	o.ReposDir = filepath.Clean(o.ReposDir)
	if o.ReposDir == string(filepath.Separator) {
		return errors.New(errors.ErrCodeInvalidPath, "repos dir cannot be the filesystem root")
	}
	return nil
}

// Result contains the outputs of a run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string

	// Catalog is the aggregated catalog, possibly partial.
	Catalog catalog.Catalog

	// Errors holds every validation error of the run.
	Errors *report.Bag

	// Notified lists the owners notified, in notification order.
	Notified []string

	// Faults are artifact store failures during extraction. The affected
	// releases are missing from the catalog but are not reported to owners.
	Faults []error

	// Stats contains counters and timing.
	Stats Stats
}

// Stats contains run statistics.
type Stats struct {
	Packages   int // configured packages
	Skipped    int // packages aborted by a package-level error
	Releases   int // releases checked out and run through validation
	Extracted  int
	Invalid    int
	Suppressed int // owners with errors whose fingerprint was unchanged
	Duration   time.Duration
}
