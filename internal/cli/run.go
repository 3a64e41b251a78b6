package cli

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/matzehuels/schemahub/pkg/config"
	"github.com/matzehuels/schemahub/pkg/errors"
	schemaio "github.com/matzehuels/schemahub/pkg/io"
	"github.com/matzehuels/schemahub/pkg/pipeline"
	"github.com/matzehuels/schemahub/pkg/report"
)

// runFlags holds flags for the run command.
type runFlags struct {
	dryRun     bool
	watch      bool
	schedule   string
	reportPath string
}

// runCommand creates the run command.
func (c *CLI) runCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Validate every registered package and publish the catalog",
		Long: `Run walks every package in the registry file, validates each tagged
release and extracts the valid ones. The catalog is written once all packages
are processed. Owners whose error set changed since the last run are notified.

With --watch (or --schedule) the run repeats on the cron schedule until
interrupted. A run still in progress when the next one is due is skipped.`,
		Example: `  # One-off run using ./schemahub.toml
  schemahub run

  # See what would be sent without sending it
  schemahub run --dry-run

  # Run every night at 02:00
  schemahub run --schedule "0 2 * * *"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if flags.schedule != "" {
				cfg.Schedule = flags.schedule
				flags.watch = true
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			opts := pipeline.Options{ReposDir: cfg.ReposDir, DryRun: flags.dryRun}
			if !flags.watch {
				return c.runOnce(cmd.Context(), cfg, opts, flags.reportPath)
			}
			return c.runScheduled(cmd.Context(), cfg, opts, flags.reportPath)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "log notifications instead of sending them and keep the dedup cache")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "repeat on the configured schedule")
	cmd.Flags().StringVar(&flags.schedule, "schedule", "", "cron expression overriding the configured schedule (implies --watch)")
	cmd.Flags().StringVar(&flags.reportPath, "report", "", "also write the error report to this file")

	return cmd
}

// runOnce performs a single registry run and prints its outcome.
func (c *CLI) runOnce(ctx context.Context, cfg *config.Config, opts pipeline.Options, reportPath string) error {
	pkgs, err := config.LoadRegistry(cfg.Registry)
	if err != nil {
		return err
	}
	runner, cleanup, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	prog := newProgress(c.Logger)
	res, err := runner.Run(ctx, pkgs, opts)
	if err != nil {
		return err
	}
	prog.done("Run complete")

	c.printResult(res)
	if reportPath != "" {
		var buf bytes.Buffer
		if err := report.Write(&buf, res.Errors); err != nil {
			return err
		}
		if err := schemaio.WriteFileAtomic(reportPath, buf.Bytes()); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "write report %s", reportPath)
		}
	}
	return nil
}

func (c *CLI) printResult(res *pipeline.Result) {
	p := printer{c.Out}
	if res.Errors.Len() > 0 {
		_ = report.Write(c.Out, res.Errors)
		p.line("")
	}

	if res.Errors.Len() == 0 {
		p.success("Published %s packages", StyleNumber.Render(strconv.Itoa(len(res.Catalog))))
	} else {
		p.warning("Published %d packages with %d errors", len(res.Catalog), res.Errors.Len())
	}
	s := res.Stats
	p.stats(
		statPart{s.Extracted, "releases extracted"},
		statPart{s.Invalid, "invalid"},
		statPart{s.Skipped, "packages skipped"},
		statPart{len(res.Notified), "owners notified"},
		statPart{s.Suppressed, "already notified"},
	)
	for _, f := range res.Faults {
		p.failure("%v", f)
	}
}

// runScheduled runs immediately and then on cfg.Schedule until ctx is done.
func (c *CLI) runScheduled(ctx context.Context, cfg *config.Config, opts pipeline.Options, reportPath string) error {
	if cfg.Schedule == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "--watch needs a schedule in the config or --schedule")
	}

	sched := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.PrintfLogger(c.Logger.StandardLog())),
	))
	job := func() {
		if err := c.runOnce(ctx, cfg, opts, reportPath); err != nil && ctx.Err() == nil {
			c.Logger.Error("run failed", "err", err)
		}
	}
	id, err := sched.AddFunc(cfg.Schedule, job)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "schedule %q", cfg.Schedule)
	}

	job()
	sched.Start()
	c.Logger.Info("Waiting for next run", "schedule", cfg.Schedule, "next", sched.Entry(id).Schedule.Next(time.Now()).Format("2006-01-02 15:04"))

	<-ctx.Done()
	<-sched.Stop().Done()
	return ctx.Err()
}
