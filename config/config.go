// Package config loads process configuration from file, environment, and
// flags via viper, and watches the config file for changes via fsnotify —
// matching the teacher's go.mod dependency set for configuration. A change
// is reported to a callback; an already loaded Config is not updated.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// HTTPConfig configures the websocket/HTTP listener.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// AdminConfig configures the admin gRPC surface.
type AdminConfig struct {
	Addr string `mapstructure:"addr"`
}

// RuntimeConfig mirrors internal/runtime.Config's tunables, expressed in
// config-file-friendly durations.
type RuntimeConfig struct {
	JoinGrace         time.Duration `mapstructure:"join_grace"`
	MatchDuration     time.Duration `mapstructure:"match_duration"`
	EvictionDelay     time.Duration `mapstructure:"eviction_delay"`
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout"`
}

// PubSubConfig selects and configures the event bus factory.
type PubSubConfig struct {
	Driver  string `mapstructure:"driver"` // "gochannel" or "amqp"
	AMQPURI string `mapstructure:"amqp_uri"`
}

// RepositoryConfig configures the cache/breaker decorators wrapping the
// persistence store.
type RepositoryConfig struct {
	CacheSize   int    `mapstructure:"cache_size"`
	BreakerName string `mapstructure:"breaker_name"`
}

// Config is the root configuration tree.
type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Runtime    RuntimeConfig    `mapstructure:"runtime"`
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
	Repository RepositoryConfig `mapstructure:"repository"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("admin.addr", ":9090")
	v.SetDefault("runtime.join_grace", 15*time.Second)
	v.SetDefault("runtime.match_duration", 10*time.Minute)
	v.SetDefault("runtime.eviction_delay", 10*time.Minute)
	v.SetDefault("runtime.inactivity_timeout", 30*time.Second)
	v.SetDefault("pubsub.driver", "gochannel")
	v.SetDefault("repository.cache_size", 512)
	v.SetDefault("repository.breaker_name", "tournament-repository")
}

// LoadConfig builds a Config from (in ascending priority) defaults, an
// optional config file, and environment variables prefixed TOURNAMENT_.
// flags, if non-nil, are bound last so CLI overrides win.
func LoadConfig(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix("tournament")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// WatchReload calls onChange every time configFile changes on disk. It does
// not update any Config previously returned by LoadConfig.
func WatchReload(configFile string, logger *slog.Logger, onChange func()) {
	if configFile == "" {
		return
	}
	v := viper.New()
	v.SetConfigFile(configFile)
	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Info("config file changed", "file", e.Name)
		onChange()
	})
	v.WatchConfig()
}
