package notifier

import (
	"fmt"
	"io"
	"net/http"

	"github.com/pfrederiksen/contest-digest/internal/config"
)

// FromConfig builds a Multi over the sinks named in cfg.Sinks. The stdout sink writes to
// out. An empty sink list is an error.
func FromConfig(cfg *config.Config, out io.Writer) (Notifier, error) {
	if len(cfg.Sinks) == 0 {
		return nil, fmt.Errorf("no sinks configured")
	}

	client := &http.Client{Timeout: cfg.HTTPTimeout}

	var sinks Multi
	for _, name := range cfg.Sinks {
		switch name {
		case config.SinkWebhook:
			sinks = append(sinks, NewWebhookNotifier(cfg.WebhookURL, client))
		case config.SinkTelegram:
			tg, err := NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, "", client)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, tg)
		case config.SinkTwitter:
			tw, err := NewTwitterNotifier(TwitterCredentials{
				APIKey:       cfg.Twitter.APIKey,
				APISecret:    cfg.Twitter.APISecret,
				AccessToken:  cfg.Twitter.AccessToken,
				AccessSecret: cfg.Twitter.AccessSecret,
			})
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, tw)
		case config.SinkStdout:
			sinks = append(sinks, NewDryRunNotifier(out))
		default:
			return nil, fmt.Errorf("unknown sink %q", name)
		}
	}

	return sinks, nil
}
