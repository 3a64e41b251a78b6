// Package catalog folds extracted release records into one entry per package
// and persists the result.
//
// # Aggregation
//
// [Aggregator.Add] appends each successfully extracted version to its
// package's version list in processing order and recomputes the entry's
// latest version on every call. Descriptive fields (title, description,
// author, contact, homepage, changelog presence) always come from the record
// of the highest version, so the catalog does not depend on the order in which
// tags were processed.
//
// # Output
//
// The persisted catalog is one document mapping package slug to entry:
//
//	{
//	  "acme/weather": {
//	    "title": "Weather stations",
//	    "versions": ["1.0.0", "1.1.0"],
//	    "latest_version": "1.1.0",
//	    ...
//	  }
//	}
//
// [FileWriter] writes it as JSON or YAML; [MongoWriter] stores one document
// per package in a MongoDB collection.
package catalog

import (
	"maps"
	"slices"

	"github.com/matzehuels/schemahub/pkg/registry"
	"github.com/matzehuels/schemahub/pkg/version"
)

// Entry is the aggregate of all extracted versions of one package.
type Entry struct {
	Slug          string   `json:"slug" yaml:"slug" bson:"_id"`
	ID            string   `json:"id" yaml:"id" bson:"id"`
	Owner         string   `json:"owner" yaml:"owner" bson:"owner"`
	Name          string   `json:"name" yaml:"name" bson:"name"`
	Kind          string   `json:"type" yaml:"type" bson:"type"`
	Email         string   `json:"email" yaml:"email" bson:"email"`
	Title         string   `json:"title" yaml:"title" bson:"title"`
	Description   string   `json:"description" yaml:"description" bson:"description"`
	Author        string   `json:"author" yaml:"author" bson:"author"`
	Contact       string   `json:"contact" yaml:"contact" bson:"contact"`
	Homepage      string   `json:"homepage" yaml:"homepage" bson:"homepage"`
	Created       string   `json:"created" yaml:"created" bson:"created"`
	Updated       string   `json:"updated" yaml:"updated" bson:"updated"`
	HasChangelog  bool     `json:"has_changelog" yaml:"has_changelog" bson:"has_changelog"`
	Versions      []string `json:"versions" yaml:"versions" bson:"versions"`
	LatestVersion string   `json:"latest_version" yaml:"latest_version" bson:"latest_version"`
}

// Catalog maps package slug to entry.
type Catalog map[string]*Entry

// Slugs returns the catalog's slugs in sorted order.
func (c Catalog) Slugs() []string {
	return slices.Sorted(maps.Keys(c))
}

// Entries returns the entries sorted by slug.
func (c Catalog) Entries() []*Entry {
	out := make([]*Entry, 0, len(c))
	for _, slug := range c.Slugs() {
		out = append(out, c[slug])
	}
	return out
}

// Aggregator accumulates extracted records for one run.
type Aggregator struct {
	entries Catalog
	records map[string]map[string]registry.ExtractedRecord
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		entries: Catalog{},
		records: map[string]map[string]registry.ExtractedRecord{},
	}
}

// Add folds rec into its package entry.
func (a *Aggregator) Add(rec registry.ExtractedRecord) {
	slug := rec.Slug()
	e, ok := a.entries[slug]
	if !ok {
		e = &Entry{
			Slug:  slug,
			ID:    rec.Source.ID,
			Owner: rec.Source.Owner,
			Name:  rec.Source.Name,
			Kind:  string(rec.Source.Kind),
			Email: rec.Source.Email,
		}
		a.entries[slug] = e
		a.records[slug] = map[string]registry.ExtractedRecord{}
	}
	if !slices.Contains(e.Versions, rec.Version) {
		e.Versions = append(e.Versions, rec.Version)
	}
	a.records[slug][rec.Version] = rec
	a.refresh(e)
}

// refresh recomputes the latest version and takes descriptive fields from
// its record.
func (a *Aggregator) refresh(e *Entry) {
	e.LatestVersion = version.Max(e.Versions)
	rec, ok := a.records[e.Slug][e.LatestVersion]
	if !ok {
		return
	}
	m := rec.Metadata
	e.Title = m.Title
	e.Description = m.Description
	e.Author = m.Author
	e.Contact = m.Contact
	e.Homepage = m.Homepage
	e.Created = m.Created
	e.Updated = m.Updated
	e.HasChangelog = rec.HasChangelog
}

// Get returns the entry for slug.
func (a *Aggregator) Get(slug string) (*Entry, bool) {
	e, ok := a.entries[slug]
	return e, ok
}

// Len returns the number of packages with at least one extracted version.
func (a *Aggregator) Len() int { return len(a.entries) }

// Finalize recomputes every entry and returns the catalog. The aggregator
// stays usable; further Adds are reflected in the returned catalog.
func (a *Aggregator) Finalize() Catalog {
	for _, e := range a.entries {
		a.refresh(e)
	}
	return a.entries
}
