package pipeline

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/schemahub/pkg/artifact"
	"github.com/matzehuels/schemahub/pkg/cache"
	"github.com/matzehuels/schemahub/pkg/catalog"
	"github.com/matzehuels/schemahub/pkg/config"
	"github.com/matzehuels/schemahub/pkg/errors"
	"github.com/matzehuels/schemahub/pkg/notify"
	"github.com/matzehuels/schemahub/pkg/observability"
	"github.com/matzehuels/schemahub/pkg/vcs/vcstest"
)

const repoA = "https://git.example.com/acme/weather"

const validSchema = `{
  "title": "Weather stations",
  "description": "Stations and their location",
  "author": "ACME",
  "contact": "ops@acme.test",
  "version": "1.0.0",
  "created": "2024-01-01",
  "updated": "2024-02-01",
  "homepage": "https://acme.test/weather",
  "fields": [{"name": "id", "type": "integer"}]
}`

func validTree() vcstest.Files {
	return vcstest.Files{"README.md": "# Weather\n", "schema.json": validSchema}
}

type harness struct {
	provider  *vcstest.Provider
	artifacts *artifact.FileStore
	cachePath string
	catalog   string
	recorder  *notify.Recorder
	reposDir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{
		provider:  vcstest.NewProvider(),
		artifacts: artifact.NewFileStore(filepath.Join(dir, "data")),
		cachePath: filepath.Join(dir, "errors-cache.json"),
		catalog:   filepath.Join(dir, "catalog.json"),
		recorder:  &notify.Recorder{},
		reposDir:  filepath.Join(dir, "repos"),
	}
}

// runner returns a fresh runner sharing the harness' durable state, as a new
// process would.
func (h *harness) runner() *Runner {
	logger := log.New(io.Discard)
	r := NewRunner(h.provider, h.artifacts, logger)
	r.Catalog = catalog.NewFileWriter(h.catalog)
	r.Cache = cache.NewFileStore(h.cachePath)
	r.Notifier = h.recorder
	return r
}

func (h *harness) run(t *testing.T, pkgs []config.Package) *Result {
	t.Helper()
	res, err := h.runner().Run(context.Background(), pkgs, Options{ReposDir: h.reposDir})
	require.NoError(t, err)
	return res
}

var pkgA = []config.Package{{ID: "pkg-a", URL: repoA, Email: "a@x.com", Type: "tableschema"}}

func TestTwoValidTags(t *testing.T) {
	h := newHarness(t)
	h.provider.Add(repoA, map[string]vcstest.Files{"v1.0.0": validTree(), "v1.1.0": validTree()})

	res := h.run(t, pkgA)

	require.Len(t, res.Catalog, 1)
	e := res.Catalog["acme/weather"]
	require.NotNil(t, e)
	assert.Equal(t, "pkg-a", e.ID)
	assert.Equal(t, []string{"1.0.0", "1.1.0"}, e.Versions)
	assert.Equal(t, "1.1.0", e.LatestVersion)
	assert.Zero(t, res.Errors.Len())
	assert.Empty(t, h.recorder.Sent())
	assert.Equal(t, 2, res.Stats.Extracted)
	assert.NotEmpty(t, res.RunID)

	written, err := catalog.Load(h.catalog)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", written["acme/weather"].LatestVersion)
}

func TestMissingSchemaNotifiesOnce(t *testing.T) {
	h := newHarness(t)
	h.provider.Add(repoA, map[string]vcstest.Files{
		"v1.0.0": validTree(),
		"v1.1.0": {"README.md": "# Weather\n"},
	})

	// First run: one MISSING_FILE error, owner notified.
	res := h.run(t, pkgA)
	assert.Equal(t, []string{"1.0.0"}, res.Catalog["acme/weather"].Versions)
	require.Equal(t, 1, res.Errors.Len())
	verr := res.Errors.All()[0]
	assert.Equal(t, errors.ErrCodeMissingFile, verr.Code)
	assert.Equal(t, "1.1.0", verr.Version())
	assert.Equal(t, []string{"a@x.com"}, res.Notified)
	assert.Equal(t, []string{"a@x.com"}, h.recorder.Owners())

	names, err := h.artifacts.List(context.Background(), "acme/weather", "1.1.0")
	require.NoError(t, err)
	assert.Empty(t, names, "invalid release must not be extracted")

	// Second run with identical inputs: nothing sent.
	h.recorder.Reset()
	res = h.run(t, pkgA)
	assert.Empty(t, res.Notified)
	assert.Empty(t, h.recorder.Sent())
	assert.Equal(t, 1, res.Stats.Suppressed)

	// Owner fixes the tag: clean run drops the owner from the cache.
	h.provider.Repos[repoA].Tags["v1.1.0"] = validTree()
	res = h.run(t, pkgA)
	assert.Zero(t, res.Errors.Len())
	state, err := cache.NewFileStore(h.cachePath).Load(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, state, "a@x.com")

	// The error reappears: the owner is told again.
	h.recorder.Reset()
	h.provider.Repos[repoA].Tags["v1.1.0"] = vcstest.Files{"README.md": "x"}
	res = h.run(t, pkgA)
	assert.Equal(t, []string{"a@x.com"}, res.Notified)
}

func TestNoTagsFound(t *testing.T) {
	h := newHarness(t)
	h.provider.Add(repoA, map[string]vcstest.Files{})

	res := h.run(t, pkgA)
	assert.Empty(t, res.Catalog)
	require.Equal(t, 1, res.Errors.Len())
	assert.Equal(t, errors.ErrCodeNoTagsFound, res.Errors.All()[0].Code)
	assert.Equal(t, 1, res.Stats.Skipped)
}

func TestInvalidLabelIsIsolated(t *testing.T) {
	h := newHarness(t)
	h.provider.Add(repoA, map[string]vcstest.Files{
		"v1.0.0":  validTree(),
		"nightly": validTree(),
		"v2.0.0":  validTree(),
	})

	res := h.run(t, pkgA)
	assert.Equal(t, []string{"1.0.0", "2.0.0"}, res.Catalog["acme/weather"].Versions)
	require.Equal(t, 1, res.Errors.Len())
	verr := res.Errors.All()[0]
	assert.Equal(t, errors.ErrCodeInvalidVersion, verr.Code)
	assert.Equal(t, "nightly", verr.Release.Label)
}

func TestCheckoutFailureIsolated(t *testing.T) {
	h := newHarness(t)
	repo := h.provider.Add(repoA, map[string]vcstest.Files{"v1.0.0": validTree(), "v1.1.0": validTree()})
	repo.FailCheckout = []string{"v1.0.0"}

	res := h.run(t, pkgA)
	assert.Equal(t, []string{"1.1.0"}, res.Catalog["acme/weather"].Versions)
	require.Equal(t, 1, res.Errors.Len())
	assert.Equal(t, errors.ErrCodeSourceUnavailable, res.Errors.All()[0].Code)
	assert.Equal(t, "1.0.0", res.Errors.All()[0].Version())
}

func TestPackageLevelErrorsDoNotStopRun(t *testing.T) {
	h := newHarness(t)
	h.provider.Add(repoA, map[string]vcstest.Files{"v1.0.0": validTree()})
	pkgs := []config.Package{
		{ID: "avro-pkg", URL: "https://git.example.com/acme/avro", Email: "b@x.com", Type: "avro"},
		{ID: "gone", URL: "https://git.example.com/acme/gone", Email: "b@x.com", Type: "tableschema"},
		pkgA[0],
	}

	res := h.run(t, pkgs)
	assert.Contains(t, res.Catalog, "acme/weather")
	assert.Equal(t, 2, res.Stats.Skipped)

	codes := []errors.Code{}
	for _, e := range res.Errors.All() {
		codes = append(codes, e.Code)
	}
	assert.Equal(t, []errors.Code{errors.ErrCodeUnsupportedSchemaKind, errors.ErrCodeSourceUnavailable}, codes)
	assert.NotContains(t, h.provider.Opened, "https://git.example.com/acme/avro",
		"unsupported kind must fail before repository access")
	assert.Equal(t, []string{"b@x.com"}, res.Notified)
}

func TestPrereleaseLatest(t *testing.T) {
	h := newHarness(t)
	h.provider.Add(repoA, map[string]vcstest.Files{"v1.0.0": validTree(), "v2.0.0-beta": validTree()})

	res := h.run(t, pkgA)
	assert.Equal(t, "2.0.0-beta", res.Catalog["acme/weather"].LatestVersion)
}

func TestDryRunLeavesCache(t *testing.T) {
	h := newHarness(t)
	h.provider.Add(repoA, map[string]vcstest.Files{"v1.0.0": {"README.md": "x"}})

	res, err := h.runner().Run(context.Background(), pkgA, Options{ReposDir: h.reposDir, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com"}, res.Notified)
	assert.Empty(t, h.recorder.Sent(), "dry run must not use the configured notifier")

	state, err := cache.NewFileStore(h.cachePath).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state)

	// A real run afterwards still notifies.
	h.run(t, pkgA)
	assert.Equal(t, []string{"a@x.com"}, h.recorder.Owners())
}

func TestCanceledContext(t *testing.T) {
	h := newHarness(t)
	h.provider.Add(repoA, map[string]vcstest.Files{"v1.0.0": validTree()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.runner().Run(ctx, pkgA, Options{ReposDir: h.reposDir})
	assert.ErrorIs(t, err, context.Canceled)
}

type countingHooks struct {
	observability.NoopPipelineHooks
	releases map[string]string
	runs     int
}

func (c *countingHooks) OnRelease(_ context.Context, slug, version, state string, _ time.Duration) {
	c.releases[slug+"@"+version] = state
}

func (c *countingHooks) OnRunComplete(context.Context, string, time.Duration, error) { c.runs++ }

func TestPipelineHooks(t *testing.T) {
	hooks := &countingHooks{releases: map[string]string{}}
	observability.SetPipelineHooks(hooks)
	t.Cleanup(observability.Reset)

	h := newHarness(t)
	h.provider.Add(repoA, map[string]vcstest.Files{"v1.0.0": validTree(), "v1.1.0": {"README.md": "x"}})
	h.run(t, pkgA)

	assert.Equal(t, 1, hooks.runs)
	assert.Equal(t, map[string]string{
		"acme/weather@1.0.0": "extracted",
		"acme/weather@1.1.0": "invalid",
	}, hooks.releases)
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	require.NoError(t, o.ValidateAndSetDefaults())
	assert.Equal(t, DefaultReposDir, o.ReposDir)

	o = Options{ReposDir: "/"}
	assert.Error(t, o.ValidateAndSetDefaults())
}
