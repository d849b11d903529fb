package services

import (
	"context"
	"sync"

	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/Marketen/epoch-clock/internal/application/ports"
	"github.com/Marketen/epoch-clock/internal/logger"
)

// Lookup origins reported to the LookupRecorder.
const (
	OriginMemory   = "memory"
	OriginCache    = "cache"
	OriginProvider = "provider"
)

// ScheduleService resolves each configured schedule once and keeps the resulting clock
// for the lifetime of the service. The memo belongs to the instance; there is no global state.
type ScheduleService struct {
	Provider ports.ScheduleProvider

	// Cache and Recorder are optional.
	Cache    ports.ScheduleCache
	Recorder ports.LookupRecorder

	keys      []domain.ScheduleKey
	clockOpts []domain.ClockOption

	mu     sync.RWMutex
	clocks map[domain.ScheduleKey]*domain.EpochClock
}

// NewScheduleService constructs a ScheduleService with dependencies injected. keys are the
// schedules the service advertises and watches; clockOpts are applied to every clock it builds.
func NewScheduleService(
	provider ports.ScheduleProvider,
	cache ports.ScheduleCache,
	keys []domain.ScheduleKey,
	clockOpts ...domain.ClockOption,
) *ScheduleService {
	return &ScheduleService{
		Provider:  provider,
		Cache:     cache,
		keys:      append([]domain.ScheduleKey(nil), keys...),
		clockOpts: clockOpts,
		clocks:    make(map[domain.ScheduleKey]*domain.EpochClock),
	}
}

func (s *ScheduleService) Keys() []domain.ScheduleKey {
	return append([]domain.ScheduleKey(nil), s.keys...)
}

// Schedule returns the resolved schedule for key.
func (s *ScheduleService) Schedule(ctx context.Context, key domain.ScheduleKey) (domain.EpochSchedule, error) {
	c, err := s.Clock(ctx, key)
	if err != nil {
		return domain.EpochSchedule{}, err
	}
	return c.Schedule(), nil
}

// Clock returns the clock for key, resolving it through the cache and provider on first use.
func (s *ScheduleService) Clock(ctx context.Context, key domain.ScheduleKey) (*domain.EpochClock, error) {
	s.mu.RLock()
	c, ok := s.clocks[key]
	s.mu.RUnlock()
	if ok {
		s.record(key, OriginMemory)
		return c, nil
	}

	c, origin, err := s.resolve(ctx, key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.clocks[key]; ok {
		// lost a race with a concurrent lookup; both resolved the same schedule
		return existing, nil
	}
	s.clocks[key] = c
	s.record(key, origin)
	logger.Info("Resolved %s schedule from %s: first epoch at %d, %d ms per epoch",
		key, origin, c.Schedule().FirstEpochStartTime, c.Schedule().EpochDurationMillis)
	return c, nil
}

func (s *ScheduleService) resolve(ctx context.Context, key domain.ScheduleKey) (*domain.EpochClock, string, error) {
	if s.Cache != nil {
		schedule, found, err := s.Cache.Get(ctx, key)
		switch {
		case err != nil:
			logger.Warn("Schedule cache lookup for %s failed, falling back to provider: %v", key, err)
		case found:
			c, err := domain.NewEpochClock(schedule, s.clockOpts...)
			if err == nil {
				return c, OriginCache, nil
			}
			logger.Warn("Ignoring invalid cached schedule for %s: %v", key, err)
		}
	}

	schedule, err := s.Provider.GetSchedule(ctx, key)
	if err != nil {
		return nil, "", err
	}
	c, err := domain.NewEpochClock(schedule, s.clockOpts...)
	if err != nil {
		return nil, "", err
	}

	if s.Cache != nil {
		if err := s.Cache.Put(ctx, key, schedule); err != nil {
			logger.Warn("Failed to cache schedule for %s: %v", key, err)
		}
	}
	return c, OriginProvider, nil
}

func (s *ScheduleService) record(key domain.ScheduleKey, origin string) {
	if s.Recorder != nil {
		s.Recorder.RecordLookup(key, origin)
	}
}
