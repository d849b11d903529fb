package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Marketen/epoch-clock/internal/application/domain"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheAdapter(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := newRedisCacheAdapter(db, time.Hour)
	ctx := context.Background()
	key := domain.ScheduleKey{Kind: domain.RewardEpoch, Network: domain.Songbird}
	payload := `{"firstEpochStartTime":1631824801000,"epochDurationMillis":604800000}`

	mock.ExpectGet("epochclock:schedule:reward:songbird").RedisNil()
	_, found, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, found)

	mock.ExpectSet("epochclock:schedule:reward:songbird", payload, time.Hour).SetVal("OK")
	err = cache.Put(ctx, key, domain.EpochSchedule{FirstEpochStartTime: 1631824801000, EpochDurationMillis: 604800000})
	require.NoError(t, err)

	mock.ExpectGet("epochclock:schedule:reward:songbird").SetVal(payload)
	schedule, found, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(604800000), schedule.EpochDurationMillis)

	mock.ExpectGet("epochclock:schedule:reward:songbird").SetErr(errors.New("connection reset"))
	_, _, err = cache.Get(ctx, key)
	require.ErrorContains(t, err, "connection reset")

	require.NoError(t, mock.ExpectationsWereMet())
}
