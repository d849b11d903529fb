package main

import (
	"context"
	"testing"

	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/Marketen/epoch-clock/internal/application/ports"
	"github.com/Marketen/epoch-clock/internal/config"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	schedule domain.EpochSchedule
}

func (s stubProvider) GetSchedule(context.Context, domain.ScheduleKey) (domain.EpochSchedule, error) {
	return s.schedule, nil
}

func TestBuildRouter(t *testing.T) {
	orig := beaconConnector
	t.Cleanup(func() { beaconConnector = orig })

	var gotURL string
	var gotPeriods map[domain.ScheduleKey]uint64
	beaconConnector = func(url string, periods map[domain.ScheduleKey]uint64) (ports.ScheduleProvider, error) {
		gotURL, gotPeriods = url, periods
		return stubProvider{schedule: domain.EpochSchedule{FirstEpochStartTime: 1606824023000, EpochDurationMillis: 6_912_000}}, nil
	}

	cfg := &config.Config{
		Beacon: config.BeaconConfig{URL: "http://beacon:5052"},
		Schedules: []config.ScheduleConfig{
			{Network: "flare", Kind: "reward", Source: config.SourceStatic, FirstEpochStartTime: 1658430000000, EpochDurationMillis: 302400000},
			{Network: "flare", Kind: "price", FirstEpochStartTime: 1658429955000, EpochDurationMillis: 180000},
			{Network: "mainnet", Kind: "reward", Source: config.SourceBeacon, BeaconEpochs: 18},
			{Network: "coston", Kind: "reward", Source: config.SourceRemote, RemoteURL: "http://upstream:8080"},
		},
	}

	router, err := buildRouter(cfg)
	require.NoError(t, err)
	require.Len(t, router.Keys(), 4)
	require.Equal(t, "http://beacon:5052", gotURL)
	require.Equal(t, map[domain.ScheduleKey]uint64{{Kind: domain.RewardEpoch, Network: "mainnet"}: 18}, gotPeriods)

	s, err := router.GetSchedule(context.Background(), domain.ScheduleKey{Kind: domain.PriceEpoch, Network: domain.Flare})
	require.NoError(t, err)
	require.Equal(t, int64(180000), s.EpochDurationMillis)

	s, err = router.GetSchedule(context.Background(), domain.ScheduleKey{Kind: domain.RewardEpoch, Network: "mainnet"})
	require.NoError(t, err)
	require.Equal(t, int64(6_912_000), s.EpochDurationMillis)
}

func TestBuildRouter_NoBeaconWithoutBeaconSchedules(t *testing.T) {
	orig := beaconConnector
	t.Cleanup(func() { beaconConnector = orig })

	beaconConnector = func(string, map[domain.ScheduleKey]uint64) (ports.ScheduleProvider, error) {
		t.Fatal("beacon node must not be dialed")
		return nil, nil
	}

	_, err := buildRouter(&config.Config{Schedules: []config.ScheduleConfig{
		{Network: "songbird", Kind: "reward", FirstEpochStartTime: 1631824801000, EpochDurationMillis: 604800000},
	}})
	require.NoError(t, err)
}
