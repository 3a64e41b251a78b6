// Package validation runs the validate-then-extract state machine for one
// checked-out release of a package.
//
// A release moves through [CheckedOut], [Validating] and then either
// [Invalid] or [Valid], [Extracting] and [Extracted]. Validation checks run in
// a fixed order and stop at the first failure:
//
//  1. README.md and the kind's schema artifact exist (MISSING_FILE).
//  2. The schema artifact conforms to its kind's specification
//     (INVALID_SCHEMA, all reasons joined with "; ").
//  3. The schema artifact declares every required metadata key
//     (INVALID_SCHEMA naming the first missing key).
//
// Only a valid release is extracted: its schema, README (with publishing
// front matter) and optional changelog are written to the artifact store
// under the release's own (slug, version) namespace.
//
// Run never returns a bare error. Owner-facing failures are reported as
// [registry.ValidationError]; failures of the artifact store itself are
// reported separately as a fault, since the package owner cannot act on them.
package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/schemahub/pkg/artifact"
	"github.com/matzehuels/schemahub/pkg/errors"
	"github.com/matzehuels/schemahub/pkg/frontmatter"
	"github.com/matzehuels/schemahub/pkg/registry"
	"github.com/matzehuels/schemahub/pkg/schema"
	"github.com/matzehuels/schemahub/pkg/version"
)

// Validator describes how to validate one schema kind.
type Validator struct {
	Kind       registry.SchemaKind
	SchemaFile string // schema artifact name in the working tree
	Label      string // human name used in messages, e.g. "TableSchema"
	Checker    schema.Checker
}

// DefaultValidators returns a validator for every supported kind.
func DefaultValidators() map[registry.SchemaKind]*Validator {
	out := map[registry.SchemaKind]*Validator{}
	labels := map[registry.SchemaKind]string{
		registry.KindTableSchema: "TableSchema",
		registry.KindJSONSchema:  "JSON Schema",
	}
	for _, kind := range registry.SchemaKinds {
		checker, ok := schema.ForKind(kind)
		if !ok {
			continue
		}
		out[kind] = &Validator{
			Kind:       kind,
			SchemaFile: artifact.SchemaFile,
			Label:      labels[kind],
			Checker:    checker,
		}
	}
	return out
}

// Outcome is the result of running the state machine on one release.
type Outcome struct {
	Release version.Release
	State   State
	Trace   []State

	Record *registry.ExtractedRecord // set when State is Extracted
	Err    *registry.ValidationError // set when State is Invalid
	Fault  error                     // artifact store failure during extraction
}

// OK reports whether the release was extracted.
func (o Outcome) OK() bool { return o.State == Extracted }

// Pipeline validates and extracts releases.
type Pipeline struct {
	store      artifact.Store
	validators map[registry.SchemaKind]*Validator
	logger     *log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithValidator registers or replaces the validator for v.Kind.
func WithValidator(v *Validator) Option {
	return func(p *Pipeline) { p.validators[v.Kind] = v }
}

// New creates a pipeline writing extracted artifacts to store.
func New(store artifact.Store, opts ...Option) *Pipeline {
	p := &Pipeline{store: store, validators: DefaultValidators()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type machine struct {
	state State
	trace []State
}

func (m *machine) to(next State) {
	if !m.state.CanTransition(next) {
		panic(fmt.Sprintf("validation: illegal transition %s -> %s", m.state, next))
	}
	m.state = next
	m.trace = append(m.trace, next)
}

// Run validates the working tree at dir as release rel of src and, when
// valid, extracts it.
func (p *Pipeline) Run(ctx context.Context, src registry.PackageSource, rel version.Release, dir string) Outcome {
	m := &machine{state: CheckedOut, trace: []State{CheckedOut}}
	out := func() Outcome { return Outcome{Release: rel, State: m.state, Trace: m.trace} }

	m.to(Validating)
	doc, verr := p.validate(src, rel, dir)
	if verr != nil {
		m.to(Invalid)
		o := out()
		o.Err = verr
		p.debug("release invalid", "pkg", src.Slug(), "tag", rel.Label, "code", verr.Code)
		return o
	}
	m.to(Valid)

	m.to(Extracting)
	rec, err := p.extract(ctx, src, rel, dir, doc)
	if err != nil {
		o := out()
		o.Fault = err
		return o
	}
	m.to(Extracted)

	o := out()
	o.Record = rec
	p.debug("release extracted", "pkg", src.Slug(), "tag", rel.Label, "artifacts", len(rec.Artifacts))
	return o
}

// Check runs the validation steps only. It is the authoring aid behind the
// validate command and never touches the artifact store.
func (p *Pipeline) Check(src registry.PackageSource, rel version.Release, dir string) (registry.Metadata, *registry.ValidationError) {
	doc, verr := p.validate(src, rel, dir)
	if verr != nil {
		return registry.Metadata{}, verr
	}
	return metadataOf(doc), nil
}

type namedFile struct {
	name string
	data []byte
}

type schemaDoc struct {
	raw    []byte
	fields map[string]any
}

func (p *Pipeline) validate(src registry.PackageSource, rel version.Release, dir string) (*schemaDoc, *registry.ValidationError) {
	fail := func(code errors.Code, format string, args ...any) *registry.ValidationError {
		return registry.NewValidationError(code, src, &rel, format, args...)
	}

	v, ok := p.validators[src.Kind]
	if !ok {
		return nil, fail(errors.ErrCodeUnsupportedSchemaKind, "`%s` is not a supported schema type", src.Kind)
	}

	for _, name := range []string{artifact.ReadmeFile, v.SchemaFile} {
		if !isFile(filepath.Join(dir, name)) {
			return nil, fail(errors.ErrCodeMissingFile, "Required file %s was not found", name)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, v.SchemaFile))
	if err != nil {
		return nil, fail(errors.ErrCodeMissingFile, "Required file %s could not be read", v.SchemaFile)
	}
	doc, err := schema.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fail(errors.ErrCodeInvalidSchema, "Schema %s is not valid JSON: %v", v.SchemaFile, err)
	}

	reasons, err := v.Checker.Validate(doc)
	if err != nil {
		reasons = []string{err.Error()}
	}
	if len(reasons) > 0 {
		return nil, fail(errors.ErrCodeInvalidSchema, "Schema %s is not a valid %s schema. Errors: %s",
			v.SchemaFile, v.Label, strings.Join(reasons, "; "))
	}

	fields, ok := doc.(map[string]any)
	if !ok {
		return nil, fail(errors.ErrCodeInvalidSchema, "Schema %s must be a JSON object", v.SchemaFile)
	}
	for _, key := range registry.RequiredKeys {
		if _, ok := fields[key]; !ok {
			return nil, fail(errors.ErrCodeInvalidSchema, "Key `%s` is a required key and is missing from %s", key, v.SchemaFile)
		}
	}
	return &schemaDoc{raw: raw, fields: fields}, nil
}

func (p *Pipeline) extract(ctx context.Context, src registry.PackageSource, rel version.Release, dir string, doc *schemaDoc) (*registry.ExtractedRecord, error) {
	if p.store == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no artifact store configured")
	}
	slug := src.Slug()
	meta := metadataOf(doc)

	readme, err := os.ReadFile(filepath.Join(dir, artifact.ReadmeFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", artifact.ReadmeFile, err)
	}
	published, err := frontmatter.Merge(readme, PublishFields(slug, rel.Version, meta))
	if err != nil {
		// A malformed README header is kept verbatim after the generated block.
		published, err = frontmatter.Merge(append([]byte("\n"), readme...), PublishFields(slug, rel.Version, meta))
		if err != nil {
			return nil, err
		}
	}

	files := []namedFile{
		{artifact.SchemaFile, doc.raw},
		{artifact.ReadmeFile, published},
	}
	hasChangelog := false
	if changelog, err := os.ReadFile(filepath.Join(dir, artifact.ChangelogFile)); err == nil {
		hasChangelog = true
		files = append(files, namedFile{artifact.ChangelogFile, changelog})
	}

	rec := &registry.ExtractedRecord{
		Source:       src,
		Version:      rel.Version,
		Metadata:     meta,
		HasChangelog: hasChangelog,
	}
	for _, f := range files {
		if err := p.store.Put(ctx, slug, rel.Version, f.name, f.data); err != nil {
			return nil, err
		}
		rec.Artifacts = append(rec.Artifacts, f.name)
	}
	return rec, nil
}

// PublishFields returns the front matter added to a published README.
func PublishFields(slug, ver string, meta registry.Metadata) []frontmatter.Field {
	return []frontmatter.Field{
		{Key: "permalink", Value: fmt.Sprintf("/%s/%s.html", slug, ver)},
		{Key: "title", Value: meta.Title},
		{Key: "version", Value: ver},
		{Key: "homepage", Value: meta.Homepage},
	}
}

func metadataOf(doc *schemaDoc) registry.Metadata {
	get := func(key string) string {
		switch v := doc.fields[key].(type) {
		case nil:
			return ""
		case string:
			return v
		case json.Number:
			return v.String()
		default:
			b, _ := json.Marshal(v)
			return string(b)
		}
	}
	return registry.Metadata{
		Title:       get("title"),
		Description: get("description"),
		Author:      get("author"),
		Contact:     get("contact"),
		Version:     get("version"),
		Created:     get("created"),
		Updated:     get("updated"),
		Homepage:    get("homepage"),
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (p *Pipeline) debug(msg string, kv ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, kv...)
	}
}
