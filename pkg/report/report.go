// Package report collects the validation errors of a run and renders them.
//
// A [Bag] keeps two insertion-ordered projections of the same error stream:
// grouped by package slug and grouped by owner contact. The owner projection
// drives notifications; both are printed in the textual run report.
package report

import (
	"fmt"
	"io"

	"github.com/matzehuels/schemahub/pkg/errors"
	"github.com/matzehuels/schemahub/pkg/registry"
)

// Group is the list of errors sharing one key.
type Group struct {
	Key    string
	Errors []*registry.ValidationError
}

// Bag accumulates the validation errors of one run. The zero value is ready
// to use.
type Bag struct {
	all     []*registry.ValidationError
	bySlug  grouping
	byOwner grouping
}

type grouping struct {
	order []string
	index map[string][]*registry.ValidationError
}

func (g *grouping) add(key string, e *registry.ValidationError) {
	if g.index == nil {
		g.index = map[string][]*registry.ValidationError{}
	}
	if _, ok := g.index[key]; !ok {
		g.order = append(g.order, key)
	}
	g.index[key] = append(g.index[key], e)
}

func (g *grouping) groups() []Group {
	out := make([]Group, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, Group{Key: k, Errors: g.index[k]})
	}
	return out
}

// Add records e. Nil errors are ignored.
func (b *Bag) Add(e *registry.ValidationError) {
	if e == nil {
		return
	}
	b.all = append(b.all, e)
	b.bySlug.add(e.Source.Slug(), e)
	b.byOwner.add(e.Source.Email, e)
}

// Len returns the number of recorded errors.
func (b *Bag) Len() int { return len(b.all) }

// All returns every error in insertion order.
func (b *Bag) All() []*registry.ValidationError { return b.all }

// BySlug groups errors by package slug, in order of first occurrence.
func (b *Bag) BySlug() []Group { return b.bySlug.groups() }

// ByOwner groups errors by owner contact, in order of first occurrence.
func (b *Bag) ByOwner() []Group { return b.byOwner.groups() }

// ForOwner returns the errors recorded for owner.
func (b *Bag) ForOwner(owner string) []*registry.ValidationError {
	return b.byOwner.index[owner]
}

// Owners lists the owners with at least one error.
func (b *Bag) Owners() []string { return b.byOwner.order }

// Counts returns the number of errors per taxonomy code.
func (b *Bag) Counts() map[errors.Code]int {
	out := map[errors.Code]int{}
	for _, e := range b.all {
		out[e.Code]++
	}
	return out
}

// Write renders the plain-text report: errors grouped by slug, then by owner.
func Write(w io.Writer, b *Bag) error {
	ew := &errWriter{w: w}
	ew.printf("### Errors by slug ###\n\n")
	for _, g := range b.BySlug() {
		ew.printf("%s:\n", g.Key)
		for _, e := range g.Errors {
			ew.printf("  - %s\n", e.Line())
		}
	}
	ew.printf("\n\n### Errors by owner ###\n\n")
	for _, g := range b.ByOwner() {
		ew.printf("%s:\n", g.Key)
		for _, e := range g.Errors {
			ew.printf("- %s\n", e.Line())
		}
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
