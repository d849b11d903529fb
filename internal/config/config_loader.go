package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Marketen/epoch-clock/internal/application/domain"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix      = "EPOCHCLOCK_"
	configPathEnv  = "EPOCHCLOCK_CONFIG"
	defaultCfgPath = "config.yaml"
)

// Schedule sources.
const (
	SourceStatic = "static"
	SourceBeacon = "beacon"
	SourceRemote = "remote"
)

// Config holds runtime configuration for the epoch-clock service.
type Config struct {
	HTTP      HTTPConfig       `koanf:"http"`
	Watcher   WatcherConfig    `koanf:"watcher"`
	Log       LogConfig        `koanf:"log"`
	Redis     RedisConfig      `koanf:"redis"`
	Beacon    BeaconConfig     `koanf:"beacon"`
	Schedules []ScheduleConfig `koanf:"schedules"`
}

type HTTPConfig struct {
	ListenAddress   string        `koanf:"listen_address"`
	MaxRangeEpochs  int64         `koanf:"max_range_epochs"`
	MaxPageSize     int           `koanf:"max_page_size"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type WatcherConfig struct {
	PollInterval time.Duration `koanf:"poll_interval"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// RedisConfig enables the shared schedule cache when URL is set.
type RedisConfig struct {
	URL string        `koanf:"url"`
	TTL time.Duration `koanf:"ttl"`
}

type BeaconConfig struct {
	URL string `koanf:"url"`
}

// ScheduleConfig declares one (kind, network) schedule and where it comes from.
type ScheduleConfig struct {
	Network string `koanf:"network"`
	Kind    string `koanf:"kind"`
	Source  string `koanf:"source"`

	// static
	FirstEpochStartTime int64 `koanf:"first_epoch_start_time"`
	EpochDurationMillis int64 `koanf:"epoch_duration_millis"`

	// beacon: beacon epochs per schedule epoch
	BeaconEpochs uint64 `koanf:"beacon_epochs"`

	// remote
	RemoteURL     string        `koanf:"remote_url"`
	RemoteTimeout time.Duration `koanf:"remote_timeout"`
}

// Key parses the schedule's kind and network.
func (s ScheduleConfig) Key() (domain.ScheduleKey, error) {
	return domain.ParseScheduleKey(s.Kind, s.Network)
}

// Static returns the configured static schedule.
func (s ScheduleConfig) Static() domain.EpochSchedule {
	return domain.EpochSchedule{
		FirstEpochStartTime: domain.Timestamp(s.FirstEpochStartTime),
		EpochDurationMillis: s.EpochDurationMillis,
	}
}

// Default returns the configuration used for anything not set in the file or environment.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			ListenAddress:   ":8080",
			MaxRangeEpochs:  10_000,
			MaxPageSize:     100,
			ShutdownTimeout: 10 * time.Second,
		},
		Watcher: WatcherConfig{PollInterval: 5 * time.Second},
		Log:     LogConfig{Level: "info", Format: "console"},
		Redis:   RedisConfig{TTL: time.Hour},
	}
}

// Load reads .env (if present), the YAML file named by EPOCHCLOCK_CONFIG (default
// config.yaml, optional), then EPOCHCLOCK_* environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := strings.TrimSpace(os.Getenv(configPathEnv))
	if path == "" {
		path = defaultCfgPath
	}

	var provider koanf.Provider
	if _, err := os.Stat(path); err == nil {
		provider = file.Provider(path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config file %s: %w", path, err)
	} else if os.Getenv(configPathEnv) != "" {
		return nil, fmt.Errorf("config file %s not found", path)
	}
	return LoadFrom(provider)
}

// LoadFrom layers defaults, the given YAML provider (may be nil) and the environment.
func LoadFrom(provider koanf.Provider) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if provider != nil {
		if err := k.Load(provider, yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, envPrefix)), "__", ".", -1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.ListenAddress) == "" {
		return fmt.Errorf("http.listen_address is required")
	}
	if c.HTTP.MaxRangeEpochs <= 0 || c.HTTP.MaxRangeEpochs > domain.MaxListedEpochs {
		return fmt.Errorf("invalid http.max_range_epochs: %d (must be between 1 and %d)", c.HTTP.MaxRangeEpochs, domain.MaxListedEpochs)
	}
	if c.HTTP.MaxPageSize <= 0 || c.HTTP.MaxPageSize > domain.MaxListedEpochs {
		return fmt.Errorf("invalid http.max_page_size: %d (must be between 1 and %d)", c.HTTP.MaxPageSize, domain.MaxListedEpochs)
	}
	if c.Watcher.PollInterval <= 0 {
		return fmt.Errorf("invalid watcher.poll_interval: %s", c.Watcher.PollInterval)
	}
	if c.Redis.URL != "" && c.Redis.TTL <= 0 {
		return fmt.Errorf("invalid redis.ttl: %s", c.Redis.TTL)
	}
	if len(c.Schedules) == 0 {
		return fmt.Errorf("at least one entry in schedules is required")
	}

	seen := make(map[domain.ScheduleKey]struct{}, len(c.Schedules))
	for i, s := range c.Schedules {
		key, err := s.Key()
		if err != nil {
			return fmt.Errorf("schedules[%d]: %w", i, err)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("schedules[%d]: duplicate schedule %s", i, key)
		}
		seen[key] = struct{}{}

		switch s.Source {
		case SourceStatic, "":
			if err := s.Static().Validate(); err != nil {
				return fmt.Errorf("schedules[%d] %s: %w", i, key, err)
			}
		case SourceBeacon:
			if c.Beacon.URL == "" {
				return fmt.Errorf("schedules[%d] %s: beacon.url is required for beacon source", i, key)
			}
			if s.BeaconEpochs == 0 {
				return fmt.Errorf("schedules[%d] %s: beacon_epochs must be positive", i, key)
			}
		case SourceRemote:
			if s.RemoteURL == "" {
				return fmt.Errorf("schedules[%d] %s: remote_url is required for remote source", i, key)
			}
		default:
			return fmt.Errorf("schedules[%d] %s: unknown source %q", i, key, s.Source)
		}
	}
	return nil
}
