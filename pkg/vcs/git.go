package vcs

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// tagRefSpec mirrors all remote tags, moving ones that were re-pointed.
const tagRefSpec = config.RefSpec("+refs/tags/*:refs/tags/*")

// GitProvider implements Provider on top of go-git.
type GitProvider struct {
	// Auth is used for clone and fetch. Nil means anonymous access.
	Auth transport.AuthMethod
	// Logger receives debug output. Nil disables logging.
	Logger *log.Logger
}

// NewGitProvider returns a provider with anonymous access.
func NewGitProvider(logger *log.Logger) *GitProvider {
	return &GitProvider{Logger: logger}
}

// EnsureLocal implements Provider.
func (p *GitProvider) EnsureLocal(ctx context.Context, url, dir string) (Repository, error) {
	if _, err := os.Stat(filepath.Join(dir, git.GitDirName)); err == nil {
		return p.open(ctx, dir)
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", filepath.Dir(dir), err)
	}
	p.debug("cloning", "url", url, "dir", dir)
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:  url,
		Auth: p.Auth,
		Tags: git.AllTags,
	})
	if err != nil {
		// Leave no half-cloned directory behind; the next run retries a clean clone.
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("clone %s: %w", url, err)
	}
	return &gitRepository{repo: repo, dir: dir}, nil
}

func (p *GitProvider) open(ctx context.Context, dir string) (Repository, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dir, err)
	}

	p.debug("fetching", "dir", dir)
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []config.RefSpec{tagRefSpec},
		Tags:       git.AllTags,
		Auth:       p.Auth,
		Force:      true,
	})
	switch {
	case err == nil, stderrors.Is(err, git.NoErrAlreadyUpToDate):
	case stderrors.Is(err, git.ErrRemoteNotFound):
		// Local-only repository: nothing to fetch.
	default:
		return nil, fmt.Errorf("fetch %s: %w", dir, err)
	}
	return &gitRepository{repo: repo, dir: dir}, nil
}

func (p *GitProvider) debug(msg string, kv ...any) {
	if p.Logger != nil {
		p.Logger.Debug(msg, kv...)
	}
}

type gitRepository struct {
	repo *git.Repository
	dir  string
}

func (r *gitRepository) WorkDir() string { return r.dir }

func (r *gitRepository) TagLabels(ctx context.Context) ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer iter.Close()

	var labels []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		labels = append(labels, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(labels)
	return labels, nil
}

func (r *gitRepository) Checkout(ctx context.Context, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ref, err := r.repo.Tag(label)
	if err != nil {
		return fmt.Errorf("resolve tag %s: %w", label, err)
	}

	hash := ref.Hash()
	if tag, err := r.repo.TagObject(hash); err == nil {
		commit, err := tag.Commit()
		if err != nil {
			return fmt.Errorf("peel tag %s: %w", label, err)
		}
		hash = commit.Hash
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return fmt.Errorf("checkout %s: %w", label, err)
	}
	return nil
}

var _ Provider = (*GitProvider)(nil)
