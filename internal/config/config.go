// Package config loads contest-digest settings from defaults, an optional
// YAML file, the environment (with optional .env) and command-line flags, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/contest-digest/internal/clist"
	"github.com/pfrederiksen/contest-digest/internal/filter"
	"github.com/pfrederiksen/contest-digest/internal/format"
	"github.com/pfrederiksen/contest-digest/internal/logger"
	"github.com/pfrederiksen/contest-digest/internal/window"
)

// Sink names accepted in Sinks
const (
	SinkWebhook  = "webhook"
	SinkTelegram = "telegram"
	SinkTwitter  = "twitter"
	SinkStdout   = "stdout"
)

const (
	DefaultListen  = ":8080"
	DefaultBuckets = 2
)

// TelegramConfig holds bot credentials for the Telegram sink
type TelegramConfig struct {
	Token  string `yaml:"-"`
	ChatID string `yaml:"chat_id"`
}

// TwitterConfig holds OAuth1 credentials for the Twitter sink
type TwitterConfig struct {
	APIKey       string `yaml:"-"`
	APISecret    string `yaml:"-"`
	AccessToken  string `yaml:"-"`
	AccessSecret string `yaml:"-"`
}

// Config is the full runtime configuration
type Config struct {
	// clist.by credentials, environment only
	Username string `yaml:"-"`
	APIKey   string `yaml:"-"`

	BaseURL     string        `yaml:"base_url"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	ResourceIDs []int         `yaml:"resource_ids"`

	Keywords      []string `yaml:"keywords"`
	Limit         int      `yaml:"limit"`
	Buckets       int      `yaml:"buckets"`
	IncludeLink   bool     `yaml:"include_link"`
	LiveNow       bool     `yaml:"live_now"`
	Timestamp     bool     `yaml:"timestamp"`
	Flavor        string   `yaml:"flavor"`
	LookaheadDays int      `yaml:"lookahead_days"`
	StrictRecords bool     `yaml:"strict_records"`
	UTCOffset     string   `yaml:"utc_offset"`

	WebhookURL string         `yaml:"webhook_url"`
	Sinks      []string       `yaml:"sinks"`
	Telegram   TelegramConfig `yaml:"telegram"`
	Twitter    TwitterConfig  `yaml:"-"`

	Schedule string `yaml:"schedule"`
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		BaseURL:       clist.DefaultBaseURL,
		HTTPTimeout:   clist.DefaultTimeout,
		ResourceIDs:   append([]int(nil), clist.DefaultResourceIDs...),
		Keywords:      append([]string(nil), filter.DefaultKeywords...),
		Buckets:       DefaultBuckets,
		IncludeLink:   true,
		LiveNow:       true,
		Flavor:        "full",
		LookaheadDays: window.DefaultLookaheadDays,
		UTCOffset:     window.DefaultOffset,
		Sinks:         []string{SinkWebhook},
		Listen:        DefaultListen,
		LogLevel:      "info",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment. A missing .env file is not an error.
// Load does not validate; callers apply their own overrides first and then
// call Validate, plus ValidateSinks when they deliver.
func Load(path string) (*Config, error) {
	if err := loadDotenv(".env"); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// loadDotenv exports the variables of a dotenv file without overriding the
// environment. Only a missing file is ignored.
func loadDotenv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	// Unmarshal over the defaults so absent keys keep their default value
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("USERNAME", &c.Username)
	str("API_KEY", &c.APIKey)
	str("WEBHOOK_URL", &c.WebhookURL)
	str("CLIST_BASE_URL", &c.BaseURL)
	str("UTC_OFFSET", &c.UTCOffset)
	str("LISTEN_ADDR", &c.Listen)
	str("LOG_LEVEL", &c.LogLevel)
	str("SCHEDULE", &c.Schedule)
	str("TELEGRAM_BOT_TOKEN", &c.Telegram.Token)
	str("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	str("TWITTER_API_KEY", &c.Twitter.APIKey)
	str("TWITTER_API_SECRET", &c.Twitter.APISecret)
	str("TWITTER_ACCESS_TOKEN", &c.Twitter.AccessToken)
	str("TWITTER_ACCESS_SECRET", &c.Twitter.AccessSecret)

	if v, ok := lookup("SINKS"); ok && v != "" {
		c.Sinks = SplitList(v)
	}

	if v, ok := lookup("HTTP_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			// Bare numbers are seconds
			secs, convErr := strconv.Atoi(v)
			if convErr != nil {
				return fmt.Errorf("invalid HTTP_TIMEOUT %q: %w", v, err)
			}
			d = time.Duration(secs) * time.Second
		}
		c.HTTPTimeout = d
	}

	return nil
}

// Normalize fills zero values with defaults and tidies list entries
func (c *Config) Normalize() {
	def := Default()

	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = def.HTTPTimeout
	}
	if len(c.ResourceIDs) == 0 {
		c.ResourceIDs = def.ResourceIDs
	}
	if c.Keywords == nil {
		c.Keywords = def.Keywords
	}
	if c.Buckets == 0 {
		c.Buckets = def.Buckets
	}
	if c.LookaheadDays <= 0 {
		c.LookaheadDays = def.LookaheadDays
	}
	if c.UTCOffset == "" {
		c.UTCOffset = def.UTCOffset
	}
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Flavor == "" {
		c.Flavor = def.Flavor
	}

	sinks := make([]string, 0, len(c.Sinks))
	for _, s := range c.Sinks {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			sinks = append(sinks, s)
		}
	}
	c.Sinks = sinks
}

// Validate rejects settings the pipeline cannot run with. Sink credentials
// are checked separately by ValidateSinks.
func (c *Config) Validate() error {
	if c.Buckets < 1 || c.Buckets > 3 {
		return fmt.Errorf("buckets must be between 1 and 3, got %d", c.Buckets)
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", c.Limit)
	}
	if _, err := window.ParseOffset(c.UTCOffset); err != nil {
		return err
	}
	if _, err := format.ParseFlavor(c.Flavor); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	for _, id := range c.ResourceIDs {
		if id <= 0 {
			return fmt.Errorf("resource id must be positive, got %d", id)
		}
	}

	return nil
}

// ValidateSinks checks sink names and the credentials each sink needs. Only
// commands that deliver a digest call it.
func (c *Config) ValidateSinks() error {
	if len(c.Sinks) == 0 {
		return errors.New("at least one sink is required")
	}

	for _, s := range c.Sinks {
		switch s {
		case SinkWebhook:
			if c.WebhookURL == "" {
				return errors.New("WEBHOOK_URL is required for the webhook sink")
			}
		case SinkTelegram:
			if c.Telegram.Token == "" || c.Telegram.ChatID == "" {
				return errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required for the telegram sink")
			}
		case SinkTwitter:
			if !c.Twitter.Complete() {
				return errors.New("TWITTER_API_KEY, TWITTER_API_SECRET, TWITTER_ACCESS_TOKEN and TWITTER_ACCESS_SECRET are required for the twitter sink")
			}
		case SinkStdout:
		default:
			return fmt.Errorf("unknown sink %q (must be webhook, telegram, twitter or stdout)", s)
		}
	}

	return nil
}

// Complete reports whether all four OAuth1 values are set
func (t TwitterConfig) Complete() bool {
	return t.APIKey != "" && t.APISecret != "" && t.AccessToken != "" && t.AccessSecret != ""
}

// Credentials returns the clist.by credentials
func (c *Config) Credentials() clist.Credentials {
	return clist.Credentials{Username: c.Username, APIKey: c.APIKey}
}

// Location returns the fixed local zone
func (c *Config) Location() *time.Location {
	loc, err := window.ParseOffset(c.UTCOffset)
	if err != nil {
		// Validate rejects bad offsets before this is reachable
		return time.UTC
	}
	return loc
}

// Filter returns the keyword filter for this configuration
func (c *Config) Filter() *filter.Filter {
	f := filter.NewKeywordFilter(c.Keywords)
	f.Limit = c.Limit
	return f
}

// RenderFlavor returns the parsed Flavor
func (c *Config) RenderFlavor() format.Flavor {
	f, _ := format.ParseFlavor(c.Flavor)
	return f
}

// Level returns the parsed log level
func (c *Config) Level() logger.Level {
	l, _ := logger.ParseLevel(c.LogLevel)
	return l
}

// SplitList splits a comma separated list, dropping blanks
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
