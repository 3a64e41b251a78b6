package artifact

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/matzehuels/schemahub/pkg/errors"
	schemaio "github.com/matzehuels/schemahub/pkg/io"
)

// FileStore keeps artifacts in a directory tree.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Root returns the base directory.
func (s *FileStore) Root() string { return s.root }

// Put writes data atomically through a temporary file in the target directory.
func (s *FileStore) Put(ctx context.Context, slug, version, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(slug, version, name)
	if err != nil {
		return err
	}
	if err := schemaio.WriteFileAtomic(p, data); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write artifact %s", p)
	}
	return nil
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, slug, version, name string) ([]byte, error) {
	p, err := s.path(slug, version, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeNotFound, "artifact %s@%s/%s not found", slug, version, name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read artifact %s", p)
	}
	return data, nil
}

// List implements Store.
func (s *FileStore) List(ctx context.Context, slug, version string) ([]string, error) {
	dir, err := s.path(slug, version, "_")
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Dir(dir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list artifacts")
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func (s *FileStore) path(slug, version, name string) (string, error) {
	key, err := Key(slug, version, name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

var _ Store = (*FileStore)(nil)
