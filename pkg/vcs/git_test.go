package vcs

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var sig = &object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(1700000000, 0)}

// commitFiles writes files into the worktree, stages and commits them.
func commitFiles(t *testing.T, repo *git.Repository, dir string, files map[string]string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("Add(%s): %v", name, err)
		}
	}
	hash, err := wt.Commit("update", &git.CommitOptions{Author: sig})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return hash
}

func newTaggedRepo(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "acme", "weather")
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}

	h1 := commitFiles(t, repo, dir, map[string]string{"README.md": "first"})
	if _, err := repo.CreateTag("v1.0.0", h1, nil); err != nil {
		t.Fatalf("CreateTag lightweight: %v", err)
	}

	h2 := commitFiles(t, repo, dir, map[string]string{"README.md": "second", "CHANGELOG.md": "changes"})
	if _, err := repo.CreateTag("v2.0.0", h2, &git.CreateTagOptions{Tagger: sig, Message: "release 2"}); err != nil {
		t.Fatalf("CreateTag annotated: %v", err)
	}

	if _, err := repo.CreateTag("not-a-version", h2, nil); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	return dir
}

func TestGitProviderOpensExistingRepository(t *testing.T) {
	dir := newTaggedRepo(t)
	ctx := context.Background()

	repo, err := NewGitProvider(nil).EnsureLocal(ctx, "https://example.invalid/acme/weather", dir)
	if err != nil {
		t.Fatalf("EnsureLocal: %v", err)
	}
	if repo.WorkDir() != dir {
		t.Errorf("WorkDir() = %q, want %q", repo.WorkDir(), dir)
	}

	labels, err := repo.TagLabels(ctx)
	if err != nil {
		t.Fatalf("TagLabels: %v", err)
	}
	want := []string{"not-a-version", "v1.0.0", "v2.0.0"}
	if !slices.Equal(labels, want) {
		t.Errorf("TagLabels() = %v, want %v", labels, want)
	}
}

func TestGitCheckoutLightweightAndAnnotated(t *testing.T) {
	dir := newTaggedRepo(t)
	ctx := context.Background()

	repo, err := NewGitProvider(nil).EnsureLocal(ctx, "", dir)
	if err != nil {
		t.Fatalf("EnsureLocal: %v", err)
	}

	tests := []struct {
		label         string
		readme        string
		wantChangelog bool
	}{
		{"v1.0.0", "first", false},
		{"v2.0.0", "second", true},
		{"v1.0.0", "first", false},
	}
	for _, tt := range tests {
		if err := repo.Checkout(ctx, tt.label); err != nil {
			t.Fatalf("Checkout(%s): %v", tt.label, err)
		}
		data, err := os.ReadFile(filepath.Join(dir, "README.md"))
		if err != nil {
			t.Fatalf("read README after %s: %v", tt.label, err)
		}
		if string(data) != tt.readme {
			t.Errorf("README at %s = %q, want %q", tt.label, data, tt.readme)
		}
		_, err = os.Stat(filepath.Join(dir, "CHANGELOG.md"))
		if got := err == nil; got != tt.wantChangelog {
			t.Errorf("CHANGELOG present at %s = %v, want %v", tt.label, got, tt.wantChangelog)
		}
	}
}

func TestGitCheckoutUnknownTag(t *testing.T) {
	dir := newTaggedRepo(t)
	ctx := context.Background()

	repo, err := NewGitProvider(nil).EnsureLocal(ctx, "", dir)
	if err != nil {
		t.Fatalf("EnsureLocal: %v", err)
	}
	if err := repo.Checkout(ctx, "v9.9.9"); err == nil {
		t.Error("expected error for unknown tag")
	}
}

func TestGitCloneFailureLeavesNoDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "acme", "missing")
	_, err := NewGitProvider(nil).EnsureLocal(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"), dir)
	if err == nil {
		t.Fatal("expected clone error")
	}
	if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
		t.Errorf("clone target should be removed after failure, stat err = %v", statErr)
	}
}
