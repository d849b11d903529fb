package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/stretchr/testify/require"
)

var (
	flareReward = domain.ScheduleKey{Kind: domain.RewardEpoch, Network: domain.Flare}
	flarePrice  = domain.ScheduleKey{Kind: domain.PriceEpoch, Network: domain.Flare}
)

type countingProvider struct {
	mu        sync.Mutex
	schedules map[domain.ScheduleKey]domain.EpochSchedule
	calls     int
}

func (p *countingProvider) GetSchedule(_ context.Context, key domain.ScheduleKey) (domain.EpochSchedule, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	s, ok := p.schedules[key]
	if !ok {
		return domain.EpochSchedule{}, fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, key)
	}
	return s, nil
}

type mapCache struct {
	entries map[domain.ScheduleKey]domain.EpochSchedule
	getErr  error
	puts    int
}

func (c *mapCache) Get(_ context.Context, key domain.ScheduleKey) (domain.EpochSchedule, bool, error) {
	if c.getErr != nil {
		return domain.EpochSchedule{}, false, c.getErr
	}
	s, ok := c.entries[key]
	return s, ok, nil
}

func (c *mapCache) Put(_ context.Context, key domain.ScheduleKey, s domain.EpochSchedule) error {
	c.puts++
	c.entries[key] = s
	return nil
}

type originRecorder struct {
	origins []string
}

func (r *originRecorder) RecordLookup(_ domain.ScheduleKey, origin string) {
	r.origins = append(r.origins, origin)
}

func TestScheduleService_MemoizesClock(t *testing.T) {
	provider := &countingProvider{schedules: map[domain.ScheduleKey]domain.EpochSchedule{
		flareReward: {FirstEpochStartTime: 1658430000000, EpochDurationMillis: 302400000},
	}}
	recorder := &originRecorder{}
	svc := NewScheduleService(provider, nil, []domain.ScheduleKey{flareReward})
	svc.Recorder = recorder

	c1, err := svc.Clock(context.Background(), flareReward)
	require.NoError(t, err)
	c2, err := svc.Clock(context.Background(), flareReward)
	require.NoError(t, err)

	require.Same(t, c1, c2)
	require.Equal(t, 1, provider.calls)
	require.Equal(t, []string{OriginProvider, OriginMemory}, recorder.origins)

	schedule, err := svc.Schedule(context.Background(), flareReward)
	require.NoError(t, err)
	require.Equal(t, int64(302400000), schedule.EpochDurationMillis)
}

func TestScheduleService_UsesCache(t *testing.T) {
	provider := &countingProvider{schedules: map[domain.ScheduleKey]domain.EpochSchedule{
		flarePrice: {FirstEpochStartTime: 1658429955000, EpochDurationMillis: 180000},
	}}
	cache := &mapCache{entries: map[domain.ScheduleKey]domain.EpochSchedule{
		flareReward: {FirstEpochStartTime: 1658430000000, EpochDurationMillis: 302400000},
	}}
	svc := NewScheduleService(provider, cache, []domain.ScheduleKey{flareReward, flarePrice})

	_, err := svc.Clock(context.Background(), flareReward)
	require.NoError(t, err)
	require.Equal(t, 0, provider.calls)

	_, err = svc.Clock(context.Background(), flarePrice)
	require.NoError(t, err)
	require.Equal(t, 1, provider.calls)
	require.Equal(t, 1, cache.puts)
	require.Contains(t, cache.entries, flarePrice)
}

func TestScheduleService_CacheErrorFallsBackToProvider(t *testing.T) {
	provider := &countingProvider{schedules: map[domain.ScheduleKey]domain.EpochSchedule{
		flareReward: {FirstEpochStartTime: 0, EpochDurationMillis: 1000},
	}}
	cache := &mapCache{entries: map[domain.ScheduleKey]domain.EpochSchedule{}, getErr: errors.New("redis down")}
	svc := NewScheduleService(provider, cache, nil)

	_, err := svc.Clock(context.Background(), flareReward)
	require.NoError(t, err)
	require.Equal(t, 1, provider.calls)
}

func TestScheduleService_Errors(t *testing.T) {
	provider := &countingProvider{schedules: map[domain.ScheduleKey]domain.EpochSchedule{
		flareReward: {FirstEpochStartTime: 0, EpochDurationMillis: 0},
	}}
	svc := NewScheduleService(provider, nil, nil)

	_, err := svc.Clock(context.Background(), flareReward)
	require.ErrorIs(t, err, domain.ErrInvalidSchedule)

	_, err = svc.Clock(context.Background(), flarePrice)
	require.ErrorIs(t, err, domain.ErrScheduleNotFound)
}

func TestScheduleService_ConcurrentLookups(t *testing.T) {
	provider := &countingProvider{schedules: map[domain.ScheduleKey]domain.EpochSchedule{
		flareReward: {FirstEpochStartTime: 0, EpochDurationMillis: 1000},
	}}
	svc := NewScheduleService(provider, nil, nil)

	var wg sync.WaitGroup
	clocks := make([]*domain.EpochClock, 16)
	for i := range clocks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := svc.Clock(context.Background(), flareReward)
			if err == nil {
				clocks[i] = c
			}
		}(i)
	}
	wg.Wait()

	for _, c := range clocks {
		require.Same(t, clocks[0], c)
	}
}
