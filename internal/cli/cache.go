package cli

import (
	"context"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/schemahub/pkg/cache"
	"github.com/matzehuels/schemahub/pkg/config"
	"github.com/matzehuels/schemahub/pkg/errors"
)

// cacheCommand creates the notification cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the notification dedup cache",
		Long: `The notification cache remembers, per owner, a fingerprint of the errors
last sent. Owners are only notified again when their error set changes.`,
	}

	cmd.AddCommand(c.cacheShowCommand())
	cmd.AddCommand(c.cacheForgetCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// withCacheStore opens the configured store for the duration of fn.
func (c *CLI) withCacheStore(ctx context.Context, fn func(*config.Config, cache.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := cfg.CacheStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func (c *CLI) cacheShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List the owners with a remembered error fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCacheStore(cmd.Context(), func(_ *config.Config, store cache.Store) error {
				state, err := store.Load(cmd.Context())
				if err != nil {
					return err
				}
				p := printer{c.Out}
				if len(state) == 0 {
					p.info("Cache is empty")
					return nil
				}
				var rows [][]string
				for _, owner := range slices.Sorted(maps.Keys(state)) {
					fp := state[owner]
					if len(fp) > 12 {
						fp = fp[:12]
					}
					rows = append(rows, []string{owner, fp})
				}
				p.line(renderTable([]string{"Owner", "Fingerprint"}, rows))
				return nil
			})
		},
	}
}

func (c *CLI) cacheForgetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <owner>...",
		Short: "Drop owners so their current errors are sent on the next run",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCacheStore(cmd.Context(), func(_ *config.Config, store cache.Store) error {
				state, err := store.Load(cmd.Context())
				if err != nil {
					return err
				}
				p := printer{c.Out}
				for _, owner := range args {
					if _, ok := state[owner]; !ok {
						p.warning("%s is not in the cache", owner)
						continue
					}
					delete(state, owner)
					p.success("Forgot %s", owner)
				}
				return store.Replace(cmd.Context(), state)
			})
		},
	}
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget every remembered fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCacheStore(cmd.Context(), func(cfg *config.Config, store cache.Store) error {
				state, err := store.Load(cmd.Context())
				if err != nil {
					return err
				}
				if err := store.Replace(cmd.Context(), map[string]string{}); err != nil {
					return err
				}
				p := printer{c.Out}
				p.success("Cleared %d cached owners", len(state))
				p.detail("Location: %s", cacheLocation(cfg))
				return nil
			})
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Cache.Backend == config.BackendNone {
				return errors.New(errors.ErrCodeNotFound, "the cache is disabled")
			}
			printer{c.Out}.line(cacheLocation(cfg))
			return nil
		},
	}
}

// cacheLocation describes where the configured backend keeps the document.
func cacheLocation(cfg *config.Config) string {
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		key := cfg.Cache.RedisKey
		if key == "" {
			key = cache.DefaultRedisKey
		}
		return "redis://" + cfg.Cache.RedisAddr + "/" + key
	case config.BackendNone:
		return "(disabled)"
	default:
		return cfg.Cache.Path
	}
}
