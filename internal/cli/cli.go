package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/contest-digest/internal/config"
	"github.com/pfrederiksen/contest-digest/internal/logger"
	"github.com/pfrederiksen/contest-digest/internal/notifier"
	"github.com/pfrederiksen/contest-digest/internal/window"
)

const (
	ExitSuccess        = 0
	ExitError          = 1
	ExitDeliveryFailed = 2
)

// app carries state shared by the subcommands
type app struct {
	clock window.Clock
	// stderr receives log lines
	stderr io.Writer

	configPath string
	verbose    bool
	logLevel   string

	// overrides applied on top of the loaded configuration
	utcOffset string
	buckets   int
	limit     int
	keywords  []string
	noLinks   bool
	liveNow   bool
	timestamp bool
	flavor    string
	strict    bool
	sinks     []string
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{clock: window.SystemClock, stderr: os.Stderr})
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contest-digest",
		Short: "Post a digest of beginner-friendly programming contests",
		Long: `A tool that fetches upcoming contests from clist.by, keeps the
beginner-friendly ones and posts a digest to a chat webhook.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	flags.BoolVar(&a.verbose, "verbose", false, "Enable verbose logging (same as --log-level debug)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&a.utcOffset, "utc-offset", "", "Local zone as a fixed offset, e.g. +05:30")
	flags.IntVar(&a.buckets, "buckets", 0, "Number of day buckets (1-3)")
	flags.IntVar(&a.limit, "limit", 0, "Maximum contests kept after filtering (0 = no limit)")
	flags.StringSliceVar(&a.keywords, "keywords", nil, "Comma separated title keywords")
	flags.BoolVar(&a.noLinks, "no-links", false, "Omit the Join Contest link")
	flags.BoolVar(&a.liveNow, "live-now", true, "Include the live-now section")
	flags.BoolVar(&a.timestamp, "timestamp", false, "Append a generated-at line")
	flags.StringVar(&a.flavor, "flavor", "", "Entry layout: full or compact")
	flags.BoolVar(&a.strict, "strict", false, "Abort on malformed contest records instead of skipping them")
	flags.StringSliceVar(&a.sinks, "sinks", nil, "Delivery sinks: webhook, telegram, twitter, stdout")

	cmd.AddCommand(
		newSendCmd(a),
		newPreviewCmd(a),
		newUpcomingCmd(a),
		newICSCmd(a),
		newServeCmd(a),
	)

	return cmd
}

// loadConfig loads configuration, applies the flags the user set and then
// validates the result. deliver adds the sink credential checks.
func (a *app) loadConfig(cmd *cobra.Command, deliver bool) (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	if flags.Changed("utc-offset") {
		cfg.UTCOffset = a.utcOffset
	}
	if flags.Changed("buckets") {
		cfg.Buckets = a.buckets
	}
	if flags.Changed("limit") {
		cfg.Limit = a.limit
	}
	if flags.Changed("keywords") {
		cfg.Keywords = a.keywords
	}
	if flags.Changed("no-links") {
		cfg.IncludeLink = !a.noLinks
	}
	if flags.Changed("live-now") {
		cfg.LiveNow = a.liveNow
	}
	if flags.Changed("timestamp") {
		cfg.Timestamp = a.timestamp
	}
	if flags.Changed("flavor") {
		cfg.Flavor = a.flavor
	}
	if flags.Changed("strict") {
		cfg.StrictRecords = a.strict
	}
	if flags.Changed("sinks") {
		cfg.Sinks = a.sinks
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if deliver {
		if err := cfg.ValidateSinks(); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	logger.SetDefault(logger.New(cfg.Level(), a.stderr))
	logger.Debug("Configuration loaded", logger.Fields{
		"buckets":    cfg.Buckets,
		"sinks":      cfg.Sinks,
		"utc_offset": cfg.UTCOffset,
		"keywords":   len(cfg.Keywords),
	})

	return cfg, nil
}

// signalContext is canceled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var de *notifier.DeliveryError
	if errors.As(err, &de) {
		return ExitDeliveryFailed
	}
	return ExitError
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
