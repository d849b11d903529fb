package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/Marketen/epoch-clock/internal/config"

	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/stretchr/testify/require"
)

const testYaml = `
http:
  listen_address: ":9090"
  max_range_epochs: 500
watcher:
  poll_interval: 2s
log:
  level: debug
  format: json
beacon:
  url: http://beacon:5052
schedules:
  - network: flare
    kind: reward
    source: static
    first_epoch_start_time: 1658430000000
    epoch_duration_millis: 302400000
  - network: flare
    kind: price
    first_epoch_start_time: 1658429955000
    epoch_duration_millis: 180000
  - network: mainnet
    kind: reward
    source: beacon
    beacon_epochs: 225
  - network: coston2
    kind: reward
    source: remote
    remote_url: http://upstream:8080
    remote_timeout: 3s
`

func TestLoadFrom(t *testing.T) {
	cfg, err := config.LoadFrom(rawbytes.Provider([]byte(testYaml)))
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTP.ListenAddress)
	require.Equal(t, int64(500), cfg.HTTP.MaxRangeEpochs)
	require.Equal(t, 100, cfg.HTTP.MaxPageSize) // default kept
	require.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	require.Equal(t, 2*time.Second, cfg.Watcher.PollInterval)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, time.Hour, cfg.Redis.TTL)
	require.Len(t, cfg.Schedules, 4)

	key, err := cfg.Schedules[0].Key()
	require.NoError(t, err)
	require.Equal(t, domain.ScheduleKey{Kind: domain.RewardEpoch, Network: domain.Flare}, key)
	require.Equal(t, domain.EpochSchedule{FirstEpochStartTime: 1658430000000, EpochDurationMillis: 302400000}, cfg.Schedules[0].Static())

	require.Equal(t, uint64(225), cfg.Schedules[2].BeaconEpochs)
	require.Equal(t, 3*time.Second, cfg.Schedules[3].RemoteTimeout)
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv("EPOCHCLOCK_HTTP__LISTEN_ADDRESS", "127.0.0.1:7000")
	t.Setenv("EPOCHCLOCK_WATCHER__POLL_INTERVAL", "250ms")
	t.Setenv("EPOCHCLOCK_REDIS__URL", "redis://localhost:6379/0")

	cfg, err := config.LoadFrom(rawbytes.Provider([]byte(testYaml)))
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7000", cfg.HTTP.ListenAddress)
	require.Equal(t, 250*time.Millisecond, cfg.Watcher.PollInterval)
	require.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := map[string]string{
		"no schedules": `http: {listen_address: ":1"}`,
		"zero duration": `
schedules:
  - {network: flare, kind: reward, first_epoch_start_time: 0, epoch_duration_millis: 0}`,
		"bad kind": `
schedules:
  - {network: flare, kind: delegation, epoch_duration_millis: 10}`,
		"duplicate": `
schedules:
  - {network: flare, kind: reward, epoch_duration_millis: 10}
  - {network: flare, kind: reward, epoch_duration_millis: 20}`,
		"beacon without url": `
schedules:
  - {network: mainnet, kind: reward, source: beacon, beacon_epochs: 1}`,
		"remote without url": `
schedules:
  - {network: coston, kind: price, source: remote}`,
		"range cap too large": `
http: {max_range_epochs: 1000000000}
schedules:
  - {network: flare, kind: reward, epoch_duration_millis: 10}`,
		"unknown source": `
schedules:
  - {network: coston, kind: price, source: chain}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.LoadFrom(rawbytes.Provider([]byte(doc)))
			require.Error(t, err)
		})
	}
}

func TestLoad_ReadsFileFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "epochclock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testYaml), 0o600))
	t.Setenv("EPOCHCLOCK_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.ListenAddress)

	t.Setenv("EPOCHCLOCK_CONFIG", filepath.Join(dir, "missing.yaml"))
	_, err = config.Load()
	require.Error(t, err)
}
