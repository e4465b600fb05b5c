// Package config loads the TOML configuration file into a typed Config,
// using the same nested-struct-per-concern shape as the wider codebase's
// config loaders, scoped down to the replication engine's own key table.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/mmreplicate/internal/ingesterr"
	"github.com/ternarybob/mmreplicate/internal/model"
)

// DBConfig is the storage engine connection.
type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Name     string `toml:"name"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// MMConfig is the upstream API credentials and bounds.
type MMConfig struct {
	Key                 string `toml:"key"`
	Secret              string `toml:"secret"`
	Env                 string `toml:"env"`
	ChangelogMaxTimespan int64  `toml:"changelog_max_timespan"`
}

// LogConfig is the sink and level.
type LogConfig struct {
	Location string `toml:"location"`
	Level    string `toml:"level"`
}

// HookEntry is one configured webhook target under a type in the [hooks]
// table.
type HookEntry struct {
	URL      string `toml:"url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Config is the full flat key table the replication engine reads from TOML.
type Config struct {
	DB                      DBConfig               `toml:"db"`
	MM                      MMConfig               `toml:"mm"`
	Log                     LogConfig              `toml:"log"`
	ThreadPoolSize          int                    `toml:"thread_pool_size"`
	MinRuntimeDelta         int64                  `toml:"min_runtime_delta"`
	LookbackTimeframe       int64                  `toml:"lookback_timeframe"`
	EnableHooks             bool                   `toml:"enable_hooks"`
	HooksRateLimitPerSecond float64                `toml:"hooks_rate_limit_per_second"`
	Hooks                   map[string][]HookEntry `toml:"hooks"`
}

// Defaults returns the baseline Config: zero-value fields fall back to
// these when missing from the file.
func Defaults() Config {
	return Config{
		ThreadPoolSize:    8,
		MinRuntimeDelta:   300,
		LookbackTimeframe: 30,
		EnableHooks:       true,
		MM: MMConfig{
			Env:                  "production",
			ChangelogMaxTimespan: 86400,
		},
		Log: LogConfig{
			Location: "./logs",
			Level:    "info",
		},
	}
}

// Load reads path, overlays it onto Defaults(), and validates the result.
// A missing file, a malformed TOML body, or a failed Validate is a fatal
// ingesterr.KindInvalidConfig error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ingesterr.New(ingesterr.KindInvalidConfig, path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, ingesterr.New(ingesterr.KindInvalidConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, ingesterr.New(ingesterr.KindInvalidConfig, path, err)
	}

	return &cfg, nil
}

// Validate checks the minimum fields the engine cannot run without.
func (c *Config) Validate() error {
	if c.DB.Host == "" || c.DB.Name == "" {
		return errRequired("db.host / db.name")
	}
	if c.MM.Key == "" || c.MM.Secret == "" {
		return errRequired("mm.key / mm.secret")
	}
	if c.ThreadPoolSize <= 0 {
		return errRequired("thread_pool_size must be positive")
	}
	return nil
}

// HookTable converts the TOML-shaped Hooks map into model.HookTable.
func (c *Config) HookTable() model.HookTable {
	table := make(model.HookTable, len(c.Hooks))
	for typ, entries := range c.Hooks {
		hooks := make([]model.Hook, 0, len(entries))
		for _, e := range entries {
			hooks = append(hooks, model.Hook{URL: e.URL, Username: e.Username, Password: e.Password})
		}
		table[typ] = hooks
	}
	return table
}

type configError string

func (e configError) Error() string { return string(e) }

func errRequired(what string) error {
	return configError("missing required config: " + what)
}
