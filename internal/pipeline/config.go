package pipeline

import (
	"github.com/pfrederiksen/contest-digest/internal/clist"
	"github.com/pfrederiksen/contest-digest/internal/config"
	"github.com/pfrederiksen/contest-digest/internal/format"
	"github.com/pfrederiksen/contest-digest/internal/notifier"
	"github.com/pfrederiksen/contest-digest/internal/window"
)

// OptionsFromConfig maps configuration onto pipeline options
func OptionsFromConfig(cfg *config.Config, clock window.Clock) Options {
	return Options{
		Buckets:       cfg.Buckets,
		ResourceIDs:   cfg.ResourceIDs,
		Format:        format.Options{IncludeLink: cfg.IncludeLink},
		Flavor:        cfg.RenderFlavor(),
		LiveNow:       cfg.LiveNow,
		Timestamp:     cfg.Timestamp,
		LookaheadDays: cfg.LookaheadDays,
		StrictRecords: cfg.StrictRecords,
		Clock:         clock,
		Location:      cfg.Location(),
	}
}

// FromConfig creates a Service backed by the clist.by API
func FromConfig(cfg *config.Config, n notifier.Notifier, clock window.Clock) *Service {
	client := clist.NewClient(cfg.Credentials(), cfg.BaseURL, cfg.HTTPTimeout)
	return New(client, cfg.Filter(), n, OptionsFromConfig(cfg, clock))
}
