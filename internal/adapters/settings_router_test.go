package adapters

import (
	"context"
	"testing"

	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/stretchr/testify/require"
)

func TestSettingsRouter(t *testing.T) {
	flareReward := domain.ScheduleKey{Kind: domain.RewardEpoch, Network: domain.Flare}
	flarePrice := domain.ScheduleKey{Kind: domain.PriceEpoch, Network: domain.Flare}
	coston := domain.ScheduleKey{Kind: domain.RewardEpoch, Network: domain.Coston}

	static := NewStaticSettingsAdapter(map[domain.ScheduleKey]domain.EpochSchedule{
		flareReward: {FirstEpochStartTime: 1658430000000, EpochDurationMillis: 302400000},
		flarePrice:  {FirstEpochStartTime: 1658429955000, EpochDurationMillis: 180000},
		coston:      {FirstEpochStartTime: 1, EpochDurationMillis: 2},
	})

	router := NewSettingsRouter()
	require.NoError(t, router.Register(flarePrice, static))
	require.NoError(t, router.Register(flareReward, static))
	require.Error(t, router.Register(flareReward, static))

	require.Equal(t, []domain.ScheduleKey{flarePrice, flareReward}, router.Keys())

	schedule, err := router.GetSchedule(context.Background(), flarePrice)
	require.NoError(t, err)
	require.Equal(t, int64(180000), schedule.EpochDurationMillis)

	// configured in the static source but not routed
	_, err = router.GetSchedule(context.Background(), coston)
	require.ErrorIs(t, err, domain.ErrScheduleNotFound)
}
