package catalog

import (
	"context"
	stderrors "errors"
	"io/fs"

	"github.com/matzehuels/schemahub/pkg/errors"
	schemaio "github.com/matzehuels/schemahub/pkg/io"
)

// Writer persists a finalized catalog.
type Writer interface {
	Write(ctx context.Context, c Catalog) error
}

// FileWriter writes the catalog to a file, as YAML when the path ends in
// .yml or .yaml and as JSON otherwise. The previous file is replaced
// atomically.
type FileWriter struct {
	Path string
}

// NewFileWriter returns a writer for path.
func NewFileWriter(path string) *FileWriter {
	return &FileWriter{Path: path}
}

// Write implements Writer.
func (w *FileWriter) Write(ctx context.Context, c Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c == nil {
		c = Catalog{}
	}
	if err := schemaio.Export(w.Path, c); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write catalog")
	}
	return nil
}

// Load reads a catalog written by FileWriter. A missing file is NOT_FOUND.
func Load(path string) (Catalog, error) {
	c := Catalog{}
	if err := schemaio.Import(path, &c); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "catalog %s does not exist", path)
		}
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read catalog")
	}
	for slug, e := range c {
		if e == nil {
			delete(c, slug)
			continue
		}
		if e.Slug == "" {
			e.Slug = slug
		}
	}
	return c, nil
}

// DiscardWriter drops the catalog. It is the runner default until a
// destination is configured.
type DiscardWriter struct{}

// Write implements Writer.
func (DiscardWriter) Write(context.Context, Catalog) error { return nil }

var (
	_ Writer = (*FileWriter)(nil)
	_ Writer = DiscardWriter{}
)
