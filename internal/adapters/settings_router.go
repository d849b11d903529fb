package adapters

import (
	"context"
	"fmt"
	"sort"

	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/Marketen/epoch-clock/internal/application/ports"
)

// SettingsRouter dispatches each schedule key to the provider configured for it.
type SettingsRouter struct {
	routes map[domain.ScheduleKey]ports.ScheduleProvider
}

func NewSettingsRouter() *SettingsRouter {
	return &SettingsRouter{routes: make(map[domain.ScheduleKey]ports.ScheduleProvider)}
}

// Register routes key to provider. A key can only be registered once.
func (r *SettingsRouter) Register(key domain.ScheduleKey, provider ports.ScheduleProvider) error {
	if _, exists := r.routes[key]; exists {
		return fmt.Errorf("schedule %s registered twice", key)
	}
	r.routes[key] = provider
	return nil
}

func (r *SettingsRouter) GetSchedule(ctx context.Context, key domain.ScheduleKey) (domain.EpochSchedule, error) {
	provider, ok := r.routes[key]
	if !ok {
		return domain.EpochSchedule{}, fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, key)
	}
	return provider.GetSchedule(ctx, key)
}

// Keys lists registered keys ordered by network, then kind.
func (r *SettingsRouter) Keys() []domain.ScheduleKey {
	keys := make([]domain.ScheduleKey, 0, len(r.routes))
	for k := range r.routes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Network != keys[j].Network {
			return keys[i].Network < keys[j].Network
		}
		return keys[i].Kind < keys[j].Kind
	})
	return keys
}
