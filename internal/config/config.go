/*
Package config loads run settings from defaults, an optional YAML file and
environment overrides, in that order.
*/
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "MIKECAST_CONFIG"
	dataDirEnv      = "MIKECAST_DATA_DIR"
	logLevelEnv     = "MIKECAST_LOG_LEVEL"
	nytAPIKeyEnv    = "NYTAPIKEY"
	geminiAPIKeyEnv = "GEMINI_API_KEY"
	openAIAPIKeyEnv = "OPENAI_API_KEY"
	gmailPassEnv    = "GMAIL_APP_PASSWORD"
	gmailFromEnv    = "GMAIL_FROM"
	gmailToEnv      = "GMAIL_TO"

	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

type Config struct {
	Paths     PathsConfig     `yaml:"paths"`
	History   HistoryConfig   `yaml:"history"`
	Dedup     DedupConfig     `yaml:"dedup"`
	Sources   SourcesConfig   `yaml:"sources"`
	Selection SelectionConfig `yaml:"selection"`
	AI        AIConfig        `yaml:"ai"`
	TTS       TTSConfig       `yaml:"tts"`
	Email     EmailConfig     `yaml:"email"`
	Retry     RetryConfig     `yaml:"retry"`
	Server    ServerConfig    `yaml:"server"`
	Timezone  string          `yaml:"timezone"`
	LogLevel  string          `yaml:"log_level"`

	location *time.Location
}

// PathsConfig holds file locations. Relative history, picks and lock paths
// are resolved against DataDir's parent.
type PathsConfig struct {
	DataDir string `yaml:"data_dir"`
	History string `yaml:"history"`
	Picks   string `yaml:"picks"`
	Lock    string `yaml:"lock"`
}

type HistoryConfig struct {
	Backend       string `yaml:"backend"`
	RetentionDays int    `yaml:"retention_days"`
}

type DedupConfig struct {
	MatchThreshold  float64 `yaml:"match_threshold"`
	UpdateThreshold float64 `yaml:"update_threshold"`
}

// CategoryConfig is one briefing section and the queries that feed it.
type CategoryConfig struct {
	Name       string   `yaml:"name"`
	Queries    []string `yaml:"queries"`
	NYTQueries []string `yaml:"nyt_queries"`
}

// SectionConfig maps an NYT Top Stories section to a category.
type SectionConfig struct {
	Section  string `yaml:"section"`
	Category string `yaml:"category"`
}

type SourcesConfig struct {
	NYTAPIKey       string           `yaml:"nyt_api_key"`
	NYTBaseURL      string           `yaml:"nyt_base_url"`
	GoogleNewsURL   string           `yaml:"google_news_url"`
	Categories      []CategoryConfig `yaml:"categories"`
	NYTSections     []SectionConfig  `yaml:"nyt_sections"`
	TopStoriesLimit int              `yaml:"top_stories_limit"`
	MaxResults      int              `yaml:"max_results"`
	RequestInterval time.Duration    `yaml:"request_interval"`
	Timeout         time.Duration    `yaml:"timeout"`
}

type SelectionConfig struct {
	TotalArticles int `yaml:"total_articles"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key"`
	Model        string `yaml:"model"`
}

type TTSConfig struct {
	OpenAIAPIKey string `yaml:"openai_api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	Voice        string `yaml:"voice"`
	ChunkSize    int    `yaml:"chunk_size"`
}

type EmailConfig struct {
	SMTPServer string   `yaml:"smtp_server"`
	SMTPPort   int      `yaml:"smtp_port"`
	User       string   `yaml:"user"`
	Pass       string   `yaml:"pass"`
	From       string   `yaml:"from"`
	To         []string `yaml:"to"`
}

// Enabled reports whether enough is configured to attempt delivery.
func (e EmailConfig) Enabled() bool {
	return e.SMTPServer != "" && e.User != "" && e.Pass != "" && len(e.To) > 0
}

type RetryConfig struct {
	Attempts  int           `yaml:"attempts"`
	BaseDelay time.Duration `yaml:"base_delay"`
	MaxDelay  time.Duration `yaml:"max_delay"`
}

type ServerConfig struct {
	Addr         string `yaml:"addr"`
	DashboardDir string `yaml:"dashboard_dir"`
}

// Load builds the configuration. path may be empty, in which case
// MIKECAST_CONFIG is consulted. An unreadable or invalid file is logged and
// the defaults are kept.
func Load(path string, logger *slog.Logger) Config {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			logger.Warn("config file ignored, using defaults", "path", path, "error", err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.resolvePaths()
	cfg.bindTimezone(logger)
	return cfg
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	// Decode over a copy so a half-parsed file never leaks into the result.
	merged := *c
	if err := yaml.Unmarshal(raw, &merged); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	*c = merged
	return nil
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Paths.DataDir, dataDirEnv)
	setString(&c.LogLevel, logLevelEnv)
	setString(&c.Sources.NYTAPIKey, nytAPIKeyEnv)
	setString(&c.AI.GeminiAPIKey, geminiAPIKeyEnv)
	setString(&c.TTS.OpenAIAPIKey, openAIAPIKeyEnv)
	setString(&c.Email.Pass, gmailPassEnv)
	if from := os.Getenv(gmailFromEnv); from != "" {
		c.Email.From = from
		if c.Email.User == "" {
			c.Email.User = from
		}
	}
	if to := os.Getenv(gmailToEnv); to != "" {
		c.Email.To = []string{to}
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func (c *Config) resolvePaths() {
	base := filepath.Dir(filepath.Clean(c.Paths.DataDir))
	for _, p := range []*string{&c.Paths.History, &c.Paths.Picks, &c.Paths.Lock} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

func (c *Config) bindTimezone(logger *slog.Logger) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, using UTC", "timezone", c.Timezone, "error", err)
		c.Timezone = "UTC"
		loc = time.UTC
	}
	c.location = loc
}

// Location is the zone the run date is computed in.
func (c Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	return time.UTC
}

// CategoryNames lists the configured categories in order.
func (c Config) CategoryNames() []string {
	names := make([]string, 0, len(c.Sources.Categories))
	for _, cat := range c.Sources.Categories {
		names = append(names, cat.Name)
	}
	return names
}

// Validate checks values a run cannot proceed without.
func (c Config) Validate() error {
	var errs []error
	if c.Dedup.MatchThreshold <= 0 || c.Dedup.MatchThreshold > 1 {
		errs = append(errs, fmt.Errorf("dedup.match_threshold must be in (0,1], got %v", c.Dedup.MatchThreshold))
	}
	if c.Dedup.UpdateThreshold <= 0 || c.Dedup.UpdateThreshold > 1 {
		errs = append(errs, fmt.Errorf("dedup.update_threshold must be in (0,1], got %v", c.Dedup.UpdateThreshold))
	}
	if c.History.RetentionDays < 1 {
		errs = append(errs, fmt.Errorf("history.retention_days must be at least 1, got %d", c.History.RetentionDays))
	}
	switch c.History.Backend {
	case BackendJSON, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("history.backend must be %q or %q, got %q", BackendJSON, BackendSQLite, c.History.Backend))
	}
	if c.Paths.DataDir == "" {
		errs = append(errs, errors.New("paths.data_dir is required"))
	}
	if len(c.Sources.Categories) == 0 {
		errs = append(errs, errors.New("sources.categories is empty"))
	}
	known := make(map[string]bool, len(c.Sources.Categories))
	for _, cat := range c.Sources.Categories {
		known[cat.Name] = true
	}
	for _, s := range c.Sources.NYTSections {
		if !known[s.Category] {
			errs = append(errs, fmt.Errorf("nyt section %q maps to unknown category %q", s.Section, s.Category))
		}
	}
	return errors.Join(errs...)
}
