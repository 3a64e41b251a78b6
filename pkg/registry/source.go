// Package registry defines the domain model shared by the schemahub pipeline:
// configured package sources, schema kinds, validation errors and extracted
// per-version records.
package registry

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/matzehuels/schemahub/pkg/errors"
)

// SchemaKind identifies the formal specification a package's schema artifact
// is validated against.
type SchemaKind string

const (
	// KindTableSchema is a Frictionless Table Schema descriptor.
	KindTableSchema SchemaKind = "tableschema"
	// KindJSONSchema is a JSON Schema document (draft-07 meta-schema).
	KindJSONSchema SchemaKind = "jsonschema"
)

// SchemaKinds is the enumerated set of supported kinds.
var SchemaKinds = []SchemaKind{KindTableSchema, KindJSONSchema}

// ParseSchemaKind returns the kind named s, or false when it is not supported.
func ParseSchemaKind(s string) (SchemaKind, bool) {
	k := SchemaKind(strings.TrimSpace(s))
	return k, slices.Contains(SchemaKinds, k)
}

// PackageSource is the identity of one configured package. It is immutable
// once constructed.
type PackageSource struct {
	ID    string     // configuration key
	URL   string     // repository location
	Owner string     // repository owner, derived from URL
	Name  string     // repository name, derived from URL
	Email string     // owner contact for notifications
	Kind  SchemaKind // declared schema kind
}

// Slug returns "owner/name".
func (s PackageSource) Slug() string {
	if s.Owner == "" && s.Name == "" {
		return s.ID
	}
	return s.Owner + "/" + s.Name
}

// String returns the slug.
func (s PackageSource) String() string { return s.Slug() }

// NewPackageSource builds a PackageSource from configuration values. An
// unrecognized kind fails immediately with UNSUPPORTED_SCHEMA_KIND, before any
// repository access. A URL from which no owner/name can be derived fails with
// SOURCE_UNAVAILABLE.
func NewPackageSource(id, url, email, kind string) (PackageSource, error) {
	src := PackageSource{ID: id, URL: strings.TrimSpace(url), Email: strings.TrimSpace(email), Kind: SchemaKind(kind)}
	if owner, name, ok := ParseRepoURL(src.URL); ok {
		src.Owner, src.Name = owner, name
	}

	k, ok := ParseSchemaKind(kind)
	if !ok {
		return src, NewValidationError(errors.ErrCodeUnsupportedSchemaKind, src, nil,
			"`%s` is not a supported schema type. Supported: %s", kind, joinKinds())
	}
	src.Kind = k

	if src.Owner == "" {
		return src, NewValidationError(errors.ErrCodeSourceUnavailable, src, nil,
			"cannot derive owner/name from repository location %q", url)
	}
	if err := errors.ValidateSlug(src.Slug()); err != nil {
		return src, NewValidationError(errors.ErrCodeSourceUnavailable, src, nil, "%s", errors.UserMessage(err))
	}
	return src, nil
}

// ParseRepoURL extracts owner and repository name from a git location. It
// understands https and ssh URLs, scp-style "git@host:owner/name.git" and
// plain filesystem paths; the last two path segments are used in every case.
func ParseRepoURL(raw string) (owner, name string, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", "", false
	}
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
		// drop host (and userinfo)
		if j := strings.Index(s, "/"); j >= 0 {
			s = s[j+1:]
		} else {
			return "", "", false
		}
	} else if at := strings.Index(s, "@"); at >= 0 && strings.Contains(s[at:], ":") {
		s = s[strings.Index(s[at:], ":")+at+1:]
	}

	s = strings.TrimSuffix(strings.TrimRight(s, "/"), ".git")
	s = path.Clean(strings.ReplaceAll(s, "\\", "/"))
	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) < 2 {
		return "", "", false
	}
	owner, name = parts[len(parts)-2], parts[len(parts)-1]
	if owner == "" || name == "" || owner == "." || owner == ".." {
		return "", "", false
	}
	return owner, name, true
}

func joinKinds() string {
	names := make([]string, len(SchemaKinds))
	for i, k := range SchemaKinds {
		names[i] = string(k)
	}
	return strings.Join(names, ",")
}

// GoString keeps sources readable in test failure output.
func (s PackageSource) GoString() string {
	return fmt.Sprintf("PackageSource{%s %s %s}", s.Slug(), s.Email, s.Kind)
}
