package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/contest-digest/internal/calendar"
	"github.com/pfrederiksen/contest-digest/internal/logger"
	"github.com/pfrederiksen/contest-digest/internal/notifier"
	"github.com/pfrederiksen/contest-digest/internal/pipeline"
	"github.com/pfrederiksen/contest-digest/internal/scheduler"
	"github.com/pfrederiksen/contest-digest/internal/server"
)

func newSendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send",
		Short: "Fetch contests and deliver the digest to the configured sinks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, true)
			if err != nil {
				return err
			}

			n, err := notifier.FromConfig(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			res, err := pipeline.FromConfig(cfg, n, a.clock).Run(cmd.Context())
			if err != nil {
				return err
			}

			if a.verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "Run %s: %d fetched, %d kept, %d skipped\n",
					res.RunID, res.Fetched, res.Kept, res.Malformed)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Sent: %s\n", res.Digest.Summary())
			return nil
		},
	}
}

func newPreviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Print the digest without delivering it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, false)
			if err != nil {
				return err
			}

			res, err := pipeline.FromConfig(cfg, nil, a.clock).Build(cmd.Context())
			if err != nil {
				return err
			}

			return notifier.NewDryRunNotifier(cmd.OutOrStdout()).Notify(cmd.Context(), res.Digest)
		},
	}
}

func newUpcomingCmd(a *app) *cobra.Command {
	var (
		flagFormat string
		flagSort   string
	)

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List filtered contests starting in the next few days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := OutputFormat(strings.ToLower(flagFormat))
			if format != FormatText && format != FormatJSON {
				return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
			}
			order := SortOrder(strings.ToLower(flagSort))
			if !order.Valid() {
				return fmt.Errorf("invalid sort: %s (must be 'start', 'platform' or 'title')", flagSort)
			}

			cfg, err := a.loadConfig(cmd, false)
			if err != nil {
				return err
			}

			contests, err := pipeline.FromConfig(cfg, nil, a.clock).Upcoming(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching contests: %w", err)
			}
			sortContests(contests, order)

			result := &OutputResult{
				GeneratedAt:   a.clock().UTC(),
				LookaheadDays: cfg.LookaheadDays,
				Contests:      contests,
				Total:         len(contests),
			}
			return WriteOutput(cmd.OutOrStdout(), result, format, a.verbose)
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&flagSort, "sort", "start", "Sort by: start, platform or title")
	return cmd
}

func newICSCmd(a *app) *cobra.Command {
	var flagOutput string

	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Write an iCalendar file of the upcoming contests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, false)
			if err != nil {
				return err
			}

			contests, err := pipeline.FromConfig(cfg, nil, a.clock).Upcoming(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching contests: %w", err)
			}

			if flagOutput == "" || flagOutput == "-" {
				return calendar.Write(cmd.OutOrStdout(), contests, a.clock())
			}

			f, err := os.Create(flagOutput)
			if err != nil {
				return fmt.Errorf("creating %s: %w", flagOutput, err)
			}
			if err := calendar.Write(f, contests, a.clock()); err != nil {
				f.Close()
				return fmt.Errorf("writing %s: %w", flagOutput, err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d contests to %s\n", len(contests), flagOutput)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var flagListen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve GET /contests and run the cron schedule if configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, true)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Listen = flagListen
			}

			n, err := notifier.FromConfig(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			svc := pipeline.FromConfig(cfg, n, a.clock)

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			var sched *scheduler.Scheduler
			if cfg.Schedule != "" {
				if sched, err = scheduler.New(cfg.Schedule, cfg.Location(), svc); err != nil {
					return err
				}
			}

			gin.SetMode(gin.ReleaseMode)
			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				return server.New(cfg.Listen, server.NewHandler(svc, a.clock)).Run(gctx)
			})

			if sched != nil {
				g.Go(func() error {
					if err := sched.Start(gctx); err != nil && gctx.Err() == nil {
						return err
					}
					return nil
				})
			}

			logger.Info("Serving contest digests", logger.Fields{
				"listen":   cfg.Listen,
				"schedule": cfg.Schedule,
				"pipeline": svc.String(),
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (default from config, :8080)")
	return cmd
}
