// Package cache implements the notification dedup cache.
//
// The cache remembers, per owner contact, the fingerprint of the error list
// last sent to that owner. A run loads the remembered state once, stages the
// fingerprints of the current run, and replaces the stored state in one
// atomic write at the end:
//
//	d := cache.NewDedup(store)
//	if err := d.Load(ctx); err != nil { ... }
//	for _, g := range bag.ByOwner() {
//	    d.Record(g.Key, g.Errors)
//	    if d.HasChanged(g.Key, g.Errors) {
//	        notifier.Send(ctx, g.Key, g.Errors)
//	    }
//	}
//	err := d.Persist(ctx)
//
// Owners without errors in a run are never staged, so persisting drops their
// previous fingerprint: a clean run forgets that owner's error history.
//
// # Backends
//
// [Store] implementations keep the owner → fingerprint document in a JSON
// file ([FileStore]), a Redis hash ([RedisStore]), a bbolt bucket
// ([BoltStore]) or nowhere at all ([NullStore]).
package cache

import (
	"context"
	"maps"

	"github.com/matzehuels/schemahub/pkg/observability"
	"github.com/matzehuels/schemahub/pkg/registry"
)

// Store persists the owner → fingerprint document.
type Store interface {
	// Load returns the stored document. An absent document is an empty map.
	Load(ctx context.Context) (map[string]string, error)
	// Replace atomically replaces the stored document with entries.
	Replace(ctx context.Context, entries map[string]string) error
	// Close releases the backend.
	Close() error
}

// Dedup decides whether an owner's current error list differs from the one
// last notified.
type Dedup struct {
	store  Store
	loaded map[string]string
	staged map[string]string
}

// NewDedup returns a cache backed by store. Call Load before use.
func NewDedup(store Store) *Dedup {
	if store == nil {
		store = NullStore{}
	}
	return &Dedup{store: store, loaded: map[string]string{}, staged: map[string]string{}}
}

// Load reads the previously persisted state.
func (d *Dedup) Load(ctx context.Context) error {
	m, err := d.store.Load(ctx)
	if err != nil {
		return err
	}
	if m == nil {
		m = map[string]string{}
	}
	d.loaded = m
	return nil
}

// HasChanged reports whether owner is absent from the loaded state or its
// stored fingerprint differs from the fingerprint of errs.
func (d *Dedup) HasChanged(owner string, errs []*registry.ValidationError) bool {
	prev, ok := d.loaded[owner]
	changed := !ok || prev != Fingerprint(errs)
	observability.Cache().OnDedupCheck(context.Background(), owner, changed)
	return changed
}

// Record stages the fingerprint of errs for owner. Empty lists are not
// staged.
func (d *Dedup) Record(owner string, errs []*registry.ValidationError) {
	if len(errs) == 0 {
		return
	}
	d.staged[owner] = Fingerprint(errs)
}

// Loaded returns a copy of the state read by Load.
func (d *Dedup) Loaded() map[string]string { return maps.Clone(d.loaded) }

// Staged returns a copy of the fingerprints staged during this run.
func (d *Dedup) Staged() map[string]string { return maps.Clone(d.staged) }

// Persist replaces the stored state with the staged fingerprints.
func (d *Dedup) Persist(ctx context.Context) error {
	err := d.store.Replace(ctx, d.staged)
	observability.Cache().OnPersist(ctx, len(d.staged), err)
	return err
}
