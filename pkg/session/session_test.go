package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/schemahub/pkg/errors"
	"github.com/matzehuels/schemahub/pkg/registry"
	"github.com/matzehuels/schemahub/pkg/vcs/vcstest"
	"github.com/matzehuels/schemahub/pkg/version"
)

const repoURL = "https://git.example.com/acme/weather"

func testSource(t *testing.T) registry.PackageSource {
	t.Helper()
	src, err := registry.NewPackageSource("weather", repoURL, "ops@acme.test", "tableschema")
	if err != nil {
		t.Fatalf("NewPackageSource: %v", err)
	}
	return src
}

func TestOpenUnavailable(t *testing.T) {
	p := vcstest.NewProvider()
	_, err := Open(context.Background(), p, testSource(t), t.TempDir())
	if err == nil {
		t.Fatal("expected error for unknown repository")
	}
	if err.Code != errors.ErrCodeSourceUnavailable {
		t.Errorf("Code = %s, want SOURCE_UNAVAILABLE", err.Code)
	}
	if err.Release != nil {
		t.Error("open failure is package-level")
	}
}

func TestOpenUsesOwnerNameLayout(t *testing.T) {
	p := vcstest.NewProvider()
	p.Add(repoURL, map[string]vcstest.Files{"v1.0.0": {"README.md": "x"}})

	reposDir := t.TempDir()
	s, err := Open(context.Background(), p, testSource(t), reposDir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if want := filepath.Join(reposDir, "acme", "weather"); s.WorkDir() != want {
		t.Errorf("WorkDir() = %q, want %q", s.WorkDir(), want)
	}
}

func TestReleases(t *testing.T) {
	p := vcstest.NewProvider()
	p.Add(repoURL, map[string]vcstest.Files{
		"v1.1.0":      {},
		"v1.0.0":      {},
		"1.1.0-rc.1":  {},
		"nightly":     {},
		"release-2.0": {},
	})

	s, err := Open(context.Background(), p, testSource(t), t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	releases, tagErrs, fatal := s.Releases(context.Background())
	if fatal != nil {
		t.Fatalf("Releases: %v", fatal)
	}

	var got []string
	for _, r := range releases {
		got = append(got, r.Label)
	}
	want := []string{"v1.0.0", "1.1.0-rc.1", "v1.1.0"}
	if len(got) != len(want) {
		t.Fatalf("releases = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("releases[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if len(tagErrs) != 2 {
		t.Fatalf("tag errors = %d, want 2", len(tagErrs))
	}
	for _, e := range tagErrs {
		if e.Code != errors.ErrCodeInvalidVersion {
			t.Errorf("tag error code = %s, want INVALID_VERSION", e.Code)
		}
		if e.Release == nil {
			t.Error("invalid tag should be reported against its label")
		}
	}
}

func TestReleasesNoTags(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]vcstest.Files
		errs int
	}{
		{"no tags at all", map[string]vcstest.Files{}, 0},
		{"only invalid tags", map[string]vcstest.Files{"latest": {}, "stable": {}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := vcstest.NewProvider()
			p.Add(repoURL, tt.tags)
			s, err := Open(context.Background(), p, testSource(t), t.TempDir())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}

			releases, tagErrs, fatal := s.Releases(context.Background())
			if fatal == nil || fatal.Code != errors.ErrCodeNoTagsFound {
				t.Fatalf("fatal = %v, want NO_TAGS_FOUND", fatal)
			}
			if len(releases) != 0 {
				t.Errorf("releases = %v, want none", releases)
			}
			if len(tagErrs) != tt.errs {
				t.Errorf("tag errors = %d, want %d", len(tagErrs), tt.errs)
			}
		})
	}
}

func TestCheckout(t *testing.T) {
	p := vcstest.NewProvider()
	remote := p.Add(repoURL, map[string]vcstest.Files{
		"v1.0.0": {"README.md": "one"},
		"v2.0.0": {"README.md": "two"},
	})
	remote.FailCheckout = []string{"v2.0.0"}

	ctx := context.Background()
	s, err := Open(ctx, p, testSource(t), t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	releases, _, fatal := s.Releases(ctx)
	if fatal != nil {
		t.Fatalf("Releases: %v", fatal)
	}

	if err := s.Checkout(ctx, releases[0]); err != nil {
		t.Fatalf("Checkout(v1.0.0): %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(s.WorkDir(), "README.md"))
	if string(data) != "one" {
		t.Errorf("README = %q, want one", data)
	}
	if s.Current() == nil || s.Current().Version != "1.0.0" {
		t.Errorf("Current() = %v", s.Current())
	}

	cerr := s.Checkout(ctx, releases[1])
	if cerr == nil {
		t.Fatal("expected checkout failure")
	}
	if cerr.Code != errors.ErrCodeSourceUnavailable || cerr.Version() != "2.0.0" {
		t.Errorf("checkout error = %v", cerr)
	}
}

func TestCheckoutAddsPrefixForBareVersion(t *testing.T) {
	p := vcstest.NewProvider()
	p.Add(repoURL, map[string]vcstest.Files{"v3.0.0": {"README.md": "three"}})

	ctx := context.Background()
	s, err := Open(ctx, p, testSource(t), t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, _, fatal := s.Releases(ctx); fatal != nil {
		t.Fatalf("Releases: %v", fatal)
	}

	// A release built from the bare version still resolves to the v-prefixed tag.
	if err := s.Checkout(ctx, version.Release{Version: "3.0.0"}); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
}
