// Package vcstest provides an in-memory [vcs.Provider] for tests.
//
// Repositories are declared as a set of tags, each tag holding a flat map of
// file names to contents. Checkout writes the tag's files into the working
// directory, removing whatever the previous checkout left there.
package vcstest

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/matzehuels/schemahub/pkg/vcs"
)

// Files maps a relative file name to its contents.
type Files map[string]string

// Repo is a fake remote repository.
type Repo struct {
	Tags map[string]Files

	// FailCheckout lists tags whose checkout fails.
	FailCheckout []string
	// FailTags makes TagLabels fail.
	FailTags bool
}

// Provider is a fake vcs.Provider keyed by repository URL. URLs without an
// entry fail EnsureLocal, as an unreachable remote would.
type Provider struct {
	mu     sync.Mutex
	Repos  map[string]*Repo
	Opened []string // URLs passed to EnsureLocal, in call order
}

// NewProvider returns an empty provider.
func NewProvider() *Provider {
	return &Provider{Repos: map[string]*Repo{}}
}

// Add registers repo under url and returns it for further setup.
func (p *Provider) Add(url string, tags map[string]Files) *Repo {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := &Repo{Tags: tags}
	p.Repos[url] = r
	return r
}

// EnsureLocal implements vcs.Provider.
func (p *Provider) EnsureLocal(ctx context.Context, url, dir string) (vcs.Repository, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Opened = append(p.Opened, url)

	r, ok := p.Repos[url]
	if !ok {
		return nil, fmt.Errorf("repository %s not found", url)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &repository{remote: r, dir: dir}, nil
}

type repository struct {
	remote  *Repo
	dir     string
	written []string
}

func (r *repository) WorkDir() string { return r.dir }

func (r *repository) TagLabels(ctx context.Context) ([]string, error) {
	if r.remote.FailTags {
		return nil, fmt.Errorf("list tags: remote hung up")
	}
	return slices.Sorted(maps.Keys(r.remote.Tags)), nil
}

func (r *repository) Checkout(ctx context.Context, label string) error {
	files, ok := r.remote.Tags[label]
	if !ok || slices.Contains(r.remote.FailCheckout, label) {
		return fmt.Errorf("checkout %s: reference not found", label)
	}
	for _, name := range r.written {
		_ = os.Remove(filepath.Join(r.dir, name))
	}
	r.written = r.written[:0]
	for name, content := range files {
		path := filepath.Join(r.dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
		r.written = append(r.written, name)
	}
	return nil
}

var _ vcs.Provider = (*Provider)(nil)
