package server

import (
	"testing"

	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/stretchr/testify/require"
)

type countingGauge struct{ n int }

func (g *countingGauge) SubscriberAdded()   { g.n++ }
func (g *countingGauge) SubscriberRemoved() { g.n-- }

func TestHub_DeliversByKey(t *testing.T) {
	gauge := &countingGauge{}
	hub := NewHub(gauge)

	reward := hub.Subscribe(rewardKey)
	price := hub.Subscribe(priceKey)
	require.Equal(t, 2, gauge.n)

	hub.Publish(domain.EpochEvent{Key: rewardKey, Current: domain.EpochInfo{ID: 8}})
	require.Equal(t, domain.EpochID(8), (<-reward.Events()).Current.ID)
	require.Empty(t, price.Events())

	hub.Unsubscribe(price)
	hub.Unsubscribe(price)
	require.Equal(t, 1, gauge.n)
	_, open := <-price.Events()
	require.False(t, open)
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	hub := NewHub(nil)
	sub := hub.Subscribe(rewardKey)

	for i := 0; i <= subscriberBuffer; i++ {
		hub.Publish(domain.EpochEvent{Key: rewardKey, Current: domain.EpochInfo{ID: domain.EpochID(i)}})
	}
	require.Equal(t, 0, hub.Len())

	received := 0
	for range sub.Events() {
		received++
	}
	require.Equal(t, subscriberBuffer, received)
}

func TestHub_Close(t *testing.T) {
	gauge := &countingGauge{}
	hub := NewHub(gauge)
	sub := hub.Subscribe(priceKey)

	hub.Close()
	_, open := <-sub.Events()
	require.False(t, open)
	require.Nil(t, hub.Subscribe(priceKey))
	require.Equal(t, 0, gauge.n)
}
