// Package pkg provides the libraries behind schemahub.
//
// # Overview
//
// schemahub turns a registry of git repositories into a catalog of schema
// packages. The pkg directory is organized into four areas:
//
//  1. Domain: [version], [registry], [session], [validation], [catalog],
//     [report] and [cache] implement the per-release rules.
//  2. Capabilities: [vcs], [schema], [artifact] and [notify] wrap git, JSON
//     Schema validation, artifact storage and mail delivery.
//  3. Ambient: [config], [errors], [observability], [buildinfo], [io] and
//     [httputil].
//  4. Orchestration: [pipeline] runs everything in order.
//
// # Architecture
//
// The data flow of one run:
//
//	repertoires.yml
//	      ↓
//	[config] package (registry entries)
//	      ↓
//	[session] package (clone, list tags, resolve versions)
//	      ↓
//	[validation] package (checkout → validate → extract, per tag)
//	      ↓                         ↓
//	[catalog] aggregator       [report] error bag
//	      ↓                         ↓
//	catalog.json / MongoDB     [cache] dedup → [notify]
//
// # Quick Start
//
//	cfg, _ := config.LoadOrDefault("")
//	pkgs, _ := config.LoadRegistry(cfg.Registry)
//	artifacts, _ := cfg.ArtifactStore(ctx)
//
//	runner := pipeline.NewRunner(cfg.GitProvider(logger), artifacts, logger)
//	runner.Catalog = catalog.NewFileWriter(cfg.Catalog.Path)
//	runner.Cache = cache.NewFileStore(cfg.Cache.Path)
//
//	result, err := runner.Run(ctx, pkgs, pipeline.Options{ReposDir: cfg.ReposDir})
//
// [version]: github.com/matzehuels/schemahub/pkg/version
// [registry]: github.com/matzehuels/schemahub/pkg/registry
// [session]: github.com/matzehuels/schemahub/pkg/session
// [validation]: github.com/matzehuels/schemahub/pkg/validation
// [catalog]: github.com/matzehuels/schemahub/pkg/catalog
// [report]: github.com/matzehuels/schemahub/pkg/report
// [cache]: github.com/matzehuels/schemahub/pkg/cache
// [vcs]: github.com/matzehuels/schemahub/pkg/vcs
// [schema]: github.com/matzehuels/schemahub/pkg/schema
// [artifact]: github.com/matzehuels/schemahub/pkg/artifact
// [notify]: github.com/matzehuels/schemahub/pkg/notify
// [config]: github.com/matzehuels/schemahub/pkg/config
// [errors]: github.com/matzehuels/schemahub/pkg/errors
// [observability]: github.com/matzehuels/schemahub/pkg/observability
// [buildinfo]: github.com/matzehuels/schemahub/pkg/buildinfo
// [io]: github.com/matzehuels/schemahub/pkg/io
// [httputil]: github.com/matzehuels/schemahub/pkg/httputil
// [pipeline]: github.com/matzehuels/schemahub/pkg/pipeline
package pkg
