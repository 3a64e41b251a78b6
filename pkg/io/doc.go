// Package io reads and writes the structured documents schemahub persists:
// the catalog, the notification dedup cache and run reports.
//
// # Formats
//
// Documents are JSON by default. Paths ending in ".yml" or ".yaml" are
// written and read as YAML instead, so operators can pick the catalog format
// by file name alone:
//
//	io.Export("catalog.json", cat)   // indented JSON
//	io.Export("catalog.yaml", cat)   // YAML
//
// # Atomic Writes
//
// [Export] and [WriteFileAtomic] write to a temporary file in the target
// directory and rename it into place. Readers therefore see either the old
// document or the new one, never a partial write, and a crash mid-run leaves
// the previous state intact.
package io
