package adapters

import (
	"context"
	"fmt"

	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/Marketen/epoch-clock/internal/application/ports"
)

// staticSettingsAdapter serves schedules fixed in configuration.
type staticSettingsAdapter struct {
	schedules map[domain.ScheduleKey]domain.EpochSchedule
}

func NewStaticSettingsAdapter(schedules map[domain.ScheduleKey]domain.EpochSchedule) ports.ScheduleProvider {
	copied := make(map[domain.ScheduleKey]domain.EpochSchedule, len(schedules))
	for k, s := range schedules {
		copied[k] = s
	}
	return &staticSettingsAdapter{schedules: copied}
}

func (s *staticSettingsAdapter) GetSchedule(_ context.Context, key domain.ScheduleKey) (domain.EpochSchedule, error) {
	schedule, ok := s.schedules[key]
	if !ok {
		return domain.EpochSchedule{}, fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, key)
	}
	return schedule, nil
}
