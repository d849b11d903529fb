package ports

import (
	"context"

	"github.com/Marketen/epoch-clock/internal/application/domain"
)

// ScheduleProvider is the hexagonal port for looking up epoch schedules.
// The schedule service depends only on this interface, not on where schedules come from.
type ScheduleProvider interface {
	// GetSchedule returns the schedule for key, or domain.ErrScheduleNotFound.
	GetSchedule(ctx context.Context, key domain.ScheduleKey) (domain.EpochSchedule, error)
}

// ScheduleCache is an optional shared cache of resolved schedules.
type ScheduleCache interface {
	// Get returns (schedule, true, nil) on a hit and (zero, false, nil) on a miss.
	Get(ctx context.Context, key domain.ScheduleKey) (domain.EpochSchedule, bool, error)

	Put(ctx context.Context, key domain.ScheduleKey, schedule domain.EpochSchedule) error
}

// EpochPublisher receives epoch transitions detected by the watcher.
type EpochPublisher interface {
	Publish(event domain.EpochEvent)
}

// LookupRecorder observes where a schedule lookup was answered from.
type LookupRecorder interface {
	RecordLookup(key domain.ScheduleKey, origin string)
}

// EpochObserver is optionally implemented by publishers that also want the first epoch
// the watcher sees for each schedule, which is not a transition.
type EpochObserver interface {
	ObserveEpoch(key domain.ScheduleKey, id domain.EpochID)
}
