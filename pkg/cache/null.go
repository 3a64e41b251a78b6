package cache

import "context"

// NullStore never remembers anything: every owner with errors is notified on
// every run. Useful for testing or when deduplication should be disabled.
type NullStore struct{}

// Load always returns an empty document.
func (NullStore) Load(context.Context) (map[string]string, error) {
	return map[string]string{}, nil
}

// Replace does nothing.
func (NullStore) Replace(context.Context, map[string]string) error { return nil }

// Close does nothing.
func (NullStore) Close() error { return nil }

// Ensure NullStore implements Store.
var _ Store = NullStore{}
