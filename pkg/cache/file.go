package cache

import (
	"context"
	stderrors "errors"
	"io/fs"

	"github.com/matzehuels/schemahub/pkg/errors"
	schemaio "github.com/matzehuels/schemahub/pkg/io"
)

// FileStore keeps the document as a JSON (or YAML, by extension) file that is
// replaced atomically on every persist.
type FileStore struct {
	path string
}

// NewFileStore returns a store for the file at path. The file need not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the file. A missing file is an empty document.
func (s *FileStore) Load(ctx context.Context) (map[string]string, error) {
	m := map[string]string{}
	if err := schemaio.Import(s.path, &m); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load notification cache")
	}
	return m, nil
}

// Replace writes entries to the file.
func (s *FileStore) Replace(ctx context.Context, entries map[string]string) error {
	if entries == nil {
		entries = map[string]string{}
	}
	if err := schemaio.Export(s.path, entries); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "persist notification cache")
	}
	return nil
}

// Close does nothing for file store.
func (s *FileStore) Close() error { return nil }

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
