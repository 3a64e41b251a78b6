package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/schemahub/pkg/artifact"
	"github.com/matzehuels/schemahub/pkg/cache"
	"github.com/matzehuels/schemahub/pkg/catalog"
	"github.com/matzehuels/schemahub/pkg/config"
	"github.com/matzehuels/schemahub/pkg/notify"
	"github.com/matzehuels/schemahub/pkg/observability"
	"github.com/matzehuels/schemahub/pkg/registry"
	"github.com/matzehuels/schemahub/pkg/report"
	"github.com/matzehuels/schemahub/pkg/session"
	"github.com/matzehuels/schemahub/pkg/validation"
	"github.com/matzehuels/schemahub/pkg/vcs"
)

// Runner executes registry runs. It holds no per-run state: the aggregator,
// error bag and dedup cache are created fresh by every call to Run, so a
// Runner can be reused across scheduled runs.
type Runner struct {
	VCS        vcs.Provider
	Validation *validation.Pipeline
	Catalog    catalog.Writer
	Cache      cache.Store
	Notifier   notify.Notifier
	Logger     *log.Logger
}

// NewRunner creates a runner extracting into artifacts. The catalog is
// discarded, the dedup cache never remembers and notifications are logged
// until the corresponding fields are set.
func NewRunner(provider vcs.Provider, artifacts artifact.Store, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		VCS:        provider,
		Validation: validation.New(artifacts, validation.WithLogger(logger)),
		Catalog:    catalog.DiscardWriter{},
		Cache:      cache.NullStore{},
		Notifier:   notify.NewLogNotifier(logger),
		Logger:     logger,
	}
}

// run is the state of one Run call.
type run struct {
	*Runner
	opts   Options
	logger *log.Logger
	agg    *catalog.Aggregator
	result *Result
}

// Run processes every package and returns the run's catalog and errors.
func (r *Runner) Run(ctx context.Context, pkgs []config.Package, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	start := time.Now()
	runID := uuid.NewString()
	hooks := observability.Pipeline()
	hooks.OnRunStart(ctx, runID, len(pkgs))

	st := &run{
		Runner: r,
		opts:   opts,
		logger: r.Logger.With("run", runID[:8]),
		agg:    catalog.NewAggregator(),
		result: &Result{RunID: runID, Errors: &report.Bag{}},
	}
	st.result.Stats.Packages = len(pkgs)

	err := st.execute(ctx, pkgs)
	st.result.Stats.Duration = time.Since(start)
	hooks.OnRunComplete(ctx, runID, st.result.Stats.Duration, err)
	if err != nil {
		return nil, err
	}
	return st.result, nil
}

func (st *run) execute(ctx context.Context, pkgs []config.Package) error {
	for _, p := range pkgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		st.processPackage(ctx, p)
	}

	cat := st.agg.Finalize()
	st.result.Catalog = cat
	if err := st.Catalog.Write(ctx, cat); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	st.logger.Info("catalog written", "packages", len(cat), "errors", st.result.Errors.Len())

	return st.notify(ctx)
}

// processPackage walks every release of one package. Errors are routed into
// the bag; nothing here stops the run.
func (st *run) processPackage(ctx context.Context, p config.Package) {
	start := time.Now()
	bag := st.result.Errors

	src, err := registry.NewPackageSource(p.ID, p.URL, p.Email, p.Type)
	if err != nil {
		st.skip(bag, registry.AsValidationError(err, src, nil))
		return
	}
	logger := st.logger.With("pkg", src.Slug())
	hooks := observability.Pipeline()
	hooks.OnPackageStart(ctx, src.Slug())

	extracted, failed := 0, 0
	defer func() {
		hooks.OnPackageComplete(ctx, src.Slug(), extracted, failed, time.Since(start))
	}()

	sess, verr := session.Open(ctx, st.VCS, src, st.opts.ReposDir)
	if verr != nil {
		st.skip(bag, verr)
		return
	}
	releases, tagErrs, verr := sess.Releases(ctx)
	for _, e := range tagErrs {
		logger.Warn("skipping tag", "tag", e.Release.Label, "code", e.Code)
		bag.Add(e)
		failed++
	}
	if verr != nil {
		st.skip(bag, verr)
		return
	}
	logger.Info("processing releases", "count", len(releases), "latest", releases[len(releases)-1].Version)

	for _, rel := range releases {
		if ctx.Err() != nil {
			return
		}
		relStart := time.Now()
		if verr := sess.Checkout(ctx, rel); verr != nil {
			logger.Warn("checkout failed", "tag", rel.Label, "err", verr.Detail)
			bag.Add(verr)
			failed++
			hooks.OnRelease(ctx, src.Slug(), rel.Version, "checkout-failed", time.Since(relStart))
			continue
		}

		st.result.Stats.Releases++
		out := st.Validation.Run(ctx, src, rel, sess.WorkDir())
		hooks.OnRelease(ctx, src.Slug(), rel.Version, out.State.String(), time.Since(relStart))
		switch {
		case out.OK():
			st.agg.Add(*out.Record)
			st.result.Stats.Extracted++
			extracted++
		case out.Err != nil:
			logger.Warn("release invalid", "tag", rel.Label, "code", out.Err.Code, "detail", out.Err.Detail)
			bag.Add(out.Err)
			st.result.Stats.Invalid++
			failed++
		case out.Fault != nil:
			logger.Error("extraction failed", "tag", rel.Label, "err", out.Fault)
			st.result.Faults = append(st.result.Faults, fmt.Errorf("%s@%s: %w", src.Slug(), rel.Version, out.Fault))
			failed++
		}
	}
	logger.Info("package done", "extracted", extracted, "failed", failed, "duration", time.Since(start).Round(time.Millisecond))
}

func (st *run) skip(bag *report.Bag, verr *registry.ValidationError) {
	st.logger.Warn("skipping package", "pkg", verr.Source.ID, "code", verr.Code, "detail", verr.Detail)
	bag.Add(verr)
	st.result.Stats.Skipped++
}

// notify sends each owner with a changed error set their errors, then
// persists the new fingerprints.
func (st *run) notify(ctx context.Context) error {
	dedup := cache.NewDedup(st.Cache)
	if err := dedup.Load(ctx); err != nil {
		return fmt.Errorf("load notification cache: %w", err)
	}

	notifier := st.Notifier
	if st.opts.DryRun {
		notifier = notify.NewLogNotifier(st.logger)
	}
	for _, g := range st.result.Errors.ByOwner() {
		dedup.Record(g.Key, g.Errors)
		if len(g.Errors) == 0 {
			continue
		}
		if !dedup.HasChanged(g.Key, g.Errors) {
			st.logger.Debug("owner already notified", "owner", g.Key, "errors", len(g.Errors))
			st.result.Stats.Suppressed++
			continue
		}
		if err := notifier.Send(ctx, g.Key, g.Errors); err != nil {
			st.logger.Error("notification failed", "owner", g.Key, "err", err)
			continue
		}
		st.result.Notified = append(st.result.Notified, g.Key)
	}

	if st.opts.DryRun {
		st.logger.Info("dry run: notification cache not persisted", "owners", len(dedup.Staged()))
		return nil
	}
	if err := dedup.Persist(ctx); err != nil {
		return fmt.Errorf("persist notification cache: %w", err)
	}
	return nil
}
