package curation

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config is the operator-supplied curation document, read once per run. A
// missing or unparseable file falls back to defaults so a bad deploy never
// crashes the bot; the caller only ever sees a usable config.
type Config struct {
	// Source references: AT-URIs or bsky.app profile URLs.
	Feeds         []string `json:"feeds"`
	Lists         []string `json:"lists"`
	Hashtags      []string `json:"hashtags"`
	SinglePostURI string   `json:"single_post_uri"`

	// BlockedUsers accepts DIDs, handles, and bsky.app profile URLs.
	BlockedUsers []string `json:"blocked_users"`

	// RequiredTag opts feed/list posts in by hashtag; empty disables the
	// rule. Tag-search results already matched a query and are exempt.
	RequiredTag string `json:"required_tag"`

	MaxTotalPerRun     int     `json:"max_total_per_run"`
	MaxPerAuthorPerRun int     `json:"max_per_author_per_run"`
	DelaySeconds       float64 `json:"delay_seconds"`

	FetchLimitPerFeed int64 `json:"fetch_limit_per_feed"`
	FetchLimitPerList int64 `json:"fetch_limit_per_list"`
	SearchLimitPerTag int64 `json:"search_limit_per_tag"`

	OverlapMinutes        int `json:"overlap_minutes"`
	FallbackHoursFirstRun int `json:"fallback_hours_first_run"`
	StateMaxURIs          int `json:"state_max_uris"`

	LikeOnRepost bool `json:"like_on_repost"`

	PDSHost           string `json:"pds_host"`
	LoginAttempts     int    `json:"login_attempts"`
	LoginRetrySeconds int    `json:"login_retry_seconds"`
}

func DefaultConfig() *Config {
	return &Config{
		MaxTotalPerRun:        100,
		MaxPerAuthorPerRun:    3,
		DelaySeconds:          2,
		FetchLimitPerFeed:     50,
		FetchLimitPerList:     50,
		SearchLimitPerTag:     50,
		OverlapMinutes:        15,
		FallbackHoursFirstRun: 3,
		StateMaxURIs:          8000,
		PDSHost:               "https://bsky.social",
		LoginAttempts:         3,
		LoginRetrySeconds:     5,
	}
}

// LoadConfig reads the config document at path, tolerating missing, empty,
// and corrupt files by returning defaults.
func LoadConfig(path string, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("could not read config, using defaults", "path", path, "err", err)
		}
		return cfg
	}
	if strings.TrimSpace(string(b)) == "" {
		return cfg
	}
	if err := json.Unmarshal(b, cfg); err != nil {
		logger.Warn("could not parse config, using defaults", "path", path, "err", err)
		return DefaultConfig()
	}
	cfg.sanitize()
	return cfg
}

func (c *Config) sanitize() {
	c.Feeds = trimList(c.Feeds)
	c.Lists = trimList(c.Lists)
	c.Hashtags = trimList(c.Hashtags)
	c.BlockedUsers = trimList(c.BlockedUsers)
	c.SinglePostURI = strings.TrimSpace(c.SinglePostURI)
	c.RequiredTag = strings.TrimSpace(c.RequiredTag)
	c.PDSHost = strings.TrimSpace(c.PDSHost)

	def := DefaultConfig()
	if c.MaxTotalPerRun < 0 {
		c.MaxTotalPerRun = 0
	}
	if c.MaxPerAuthorPerRun < 0 {
		c.MaxPerAuthorPerRun = 0
	}
	if c.DelaySeconds < 0 {
		c.DelaySeconds = 0
	}
	if c.StateMaxURIs < 0 {
		c.StateMaxURIs = 0
	}
	if c.FetchLimitPerFeed <= 0 {
		c.FetchLimitPerFeed = def.FetchLimitPerFeed
	}
	if c.FetchLimitPerList <= 0 {
		c.FetchLimitPerList = def.FetchLimitPerList
	}
	if c.SearchLimitPerTag <= 0 {
		c.SearchLimitPerTag = def.SearchLimitPerTag
	}
	if c.OverlapMinutes < 0 {
		c.OverlapMinutes = 0
	}
	if c.FallbackHoursFirstRun <= 0 {
		c.FallbackHoursFirstRun = def.FallbackHoursFirstRun
	}
	if c.PDSHost == "" {
		c.PDSHost = def.PDSHost
	}
	if c.LoginAttempts < 1 {
		c.LoginAttempts = def.LoginAttempts
	}
	if c.LoginRetrySeconds < 0 {
		c.LoginRetrySeconds = def.LoginRetrySeconds
	}
}

func (c *Config) Delay() time.Duration {
	return time.Duration(c.DelaySeconds * float64(time.Second))
}

func (c *Config) Overlap() time.Duration {
	return time.Duration(c.OverlapMinutes) * time.Minute
}

func (c *Config) FallbackHorizon() time.Duration {
	return time.Duration(c.FallbackHoursFirstRun) * time.Hour
}

func (c *Config) LoginRetryDelay() time.Duration {
	return time.Duration(c.LoginRetrySeconds) * time.Second
}

// BlocklistSet normalizes blocked_users into a lookup set of lower-cased
// actor keys (DIDs or handles).
func (c *Config) BlocklistSet() map[string]bool {
	out := make(map[string]bool, len(c.BlockedUsers))
	for _, raw := range c.BlockedUsers {
		if key := NormalizeActorKey(raw); key != "" {
			out[key] = true
		}
	}
	return out
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
