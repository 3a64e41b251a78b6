// Package cli implements the schemahub command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/schemahub/pkg/buildinfo"
	"github.com/matzehuels/schemahub/pkg/config"
	"github.com/matzehuels/schemahub/pkg/pipeline"
	"github.com/matzehuels/schemahub/pkg/vcs"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used in help text and completions.
const appName = "schemahub"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output. Logs go to the logger's writer.
	Out io.Writer

	// VCS replaces the git provider built from the configuration.
	VCS vcs.Provider

	configPath string
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "schemahub publishes a catalog of versioned schema packages",
		Long:         `schemahub walks the tagged releases of every registered schema repository, validates each release, extracts the valid ones and publishes a catalog of the latest version per package. Owners are notified when their error set changes.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default "+config.DefaultPath+")")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the --config file, or the defaults when no file exists at
// the default location.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(c.configPath)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner wires a pipeline runner from cfg. The returned cleanup releases
// the catalog and cache backends and is never nil.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config) (*pipeline.Runner, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*pipeline.Runner, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	provider := c.VCS
	if provider == nil {
		provider = cfg.GitProvider(c.Logger)
	}
	artifacts, err := cfg.ArtifactStore(ctx)
	if err != nil {
		return fail(err)
	}
	runner := pipeline.NewRunner(provider, artifacts, c.Logger)

	writer, closeCatalog, err := cfg.CatalogWriter(ctx)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() {
		if err := closeCatalog(context.Background()); err != nil {
			c.Logger.Warn("close catalog", "err", err)
		}
	})
	runner.Catalog = writer

	store, err := cfg.CacheStore(ctx)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() {
		if err := store.Close(); err != nil {
			c.Logger.Warn("close cache", "err", err)
		}
	})
	runner.Cache = store

	notifier, err := cfg.Notifier(c.Logger)
	if err != nil {
		return fail(err)
	}
	runner.Notifier = notifier

	return runner, cleanup, nil
}
