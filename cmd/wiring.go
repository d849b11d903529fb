package main

import (
	"fmt"
	"time"

	"github.com/Marketen/epoch-clock/internal/adapters"
	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/Marketen/epoch-clock/internal/application/ports"
	"github.com/Marketen/epoch-clock/internal/config"
	"github.com/Marketen/epoch-clock/internal/logger"
)

const defaultRemoteTimeout = 10 * time.Second

// beaconConnector is swapped in tests; it dials the beacon node only when a schedule needs it.
var beaconConnector = adapters.NewBeaconHTTPAdapter

// buildRouter registers every configured schedule with the adapter for its source.
func buildRouter(cfg *config.Config) (*adapters.SettingsRouter, error) {
	static := make(map[domain.ScheduleKey]domain.EpochSchedule)
	beaconPeriods := make(map[domain.ScheduleKey]uint64)
	remoteKeys := make(map[string][]domain.ScheduleKey)
	remoteTimeouts := make(map[string]time.Duration)

	for _, s := range cfg.Schedules {
		key, err := s.Key()
		if err != nil {
			return nil, err
		}
		switch s.Source {
		case config.SourceBeacon:
			beaconPeriods[key] = s.BeaconEpochs
		case config.SourceRemote:
			remoteKeys[s.RemoteURL] = append(remoteKeys[s.RemoteURL], key)
			timeout := s.RemoteTimeout
			if timeout <= 0 {
				timeout = defaultRemoteTimeout
			}
			remoteTimeouts[s.RemoteURL] = timeout
		default:
			static[key] = s.Static()
		}
	}

	router := adapters.NewSettingsRouter()
	register := func(provider ports.ScheduleProvider, keys ...domain.ScheduleKey) error {
		for _, key := range keys {
			if err := router.Register(key, provider); err != nil {
				return err
			}
		}
		return nil
	}

	staticAdapter := adapters.NewStaticSettingsAdapter(static)
	for key := range static {
		if err := register(staticAdapter, key); err != nil {
			return nil, err
		}
	}

	if len(beaconPeriods) > 0 {
		logger.Info("Beacon node URL: %s", cfg.Beacon.URL)
		beacon, err := beaconConnector(cfg.Beacon.URL, beaconPeriods)
		if err != nil {
			return nil, fmt.Errorf("create beacon adapter: %w", err)
		}
		for key := range beaconPeriods {
			if err := register(beacon, key); err != nil {
				return nil, err
			}
		}
	}

	for url, keys := range remoteKeys {
		logger.Info("Remote settings source %s serves %d schedules", url, len(keys))
		if err := register(adapters.NewRemoteSettingsAdapter(url, remoteTimeouts[url]), keys...); err != nil {
			return nil, err
		}
	}
	return router, nil
}
