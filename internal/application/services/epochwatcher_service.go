package services

import (
	"context"
	"time"

	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/Marketen/epoch-clock/internal/application/ports"
	"github.com/Marketen/epoch-clock/internal/logger"
)

// ClockSource is what the watcher needs from the schedule service.
type ClockSource interface {
	Keys() []domain.ScheduleKey
	Clock(ctx context.Context, key domain.ScheduleKey) (*domain.EpochClock, error)
}

type EpochWatcher struct {
	Schedules    ClockSource
	PollInterval time.Duration
	Publishers   []ports.EpochPublisher

	lastEpochs map[domain.ScheduleKey]domain.EpochInfo // latest epoch observed for each schedule
}

// NewEpochWatcher constructs an EpochWatcher with dependencies injected.
func NewEpochWatcher(
	schedules ClockSource,
	pollInterval time.Duration,
	publishers ...ports.EpochPublisher,
) *EpochWatcher {
	return &EpochWatcher{
		Schedules:    schedules,
		PollInterval: pollInterval,
		Publishers:   publishers,
		lastEpochs:   make(map[domain.ScheduleKey]domain.EpochInfo),
	}
}

// Run records the current epochs, then checks for transitions on every tick until ctx is done.
// If the ticker ticks while a check is still running, that tick is dropped.
func (w *EpochWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	w.checkEpochTransitions(ctx)
	for {
		select {
		case <-ticker.C:
			w.checkEpochTransitions(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *EpochWatcher) checkEpochTransitions(ctx context.Context) {
	keys := w.Schedules.Keys()
	if len(keys) == 0 {
		logger.Warn("No schedules configured; nothing to watch.")
		return
	}

	for _, key := range keys {
		clock, err := w.Schedules.Clock(ctx, key)
		if err != nil {
			logger.Error("Error resolving %s schedule: %v", key, err)
			continue
		}
		w.checkSchedule(key, clock.Snapshot().Current)
	}
}

func (w *EpochWatcher) checkSchedule(key domain.ScheduleKey, current domain.EpochInfo) {
	if w.lastEpochs == nil {
		w.lastEpochs = make(map[domain.ScheduleKey]domain.EpochInfo)
	}

	previous, seen := w.lastEpochs[key]
	if seen && previous.ID == current.ID {
		logger.Debug("%s epoch %d unchanged, skipping.", key, current.ID)
		return
	}
	w.lastEpochs[key] = current

	if !seen {
		logger.Info("Watching %s, current epoch %d ends at %d", key, current.ID, current.EndTime)
		for _, p := range w.Publishers {
			if o, ok := p.(ports.EpochObserver); ok {
				o.ObserveEpoch(key, current.ID)
			}
		}
		return
	}

	if current.ID != previous.ID+1 {
		logger.Warn("%s jumped from epoch %d to %d; intermediate epochs were not observed",
			key, previous.ID, current.ID)
	}
	logger.Info("New %s epoch %d detected.", key, current.ID)

	event := domain.EpochEvent{Key: key, Previous: previous, Current: current}
	for _, p := range w.Publishers {
		p.Publish(event)
	}
}
