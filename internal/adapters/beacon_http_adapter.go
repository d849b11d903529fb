package adapters

import (
	"context"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/Marketen/epoch-clock/internal/application/ports"

	eth2client "github.com/attestantio/go-eth2-client"
	"github.com/attestantio/go-eth2-client/api"
	eth2http "github.com/attestantio/go-eth2-client/http"
	"github.com/rs/zerolog"
)

// beaconSpecSource is the subset of go-eth2-client the adapter needs.
type beaconSpecSource interface {
	eth2client.GenesisProvider
	eth2client.SpecProvider
}

// beaconSettingsAdapter implements ports.ScheduleProvider by deriving schedules from a
// beacon node: an epoch of the schedule spans a fixed number of beacon epochs starting at genesis.
type beaconSettingsAdapter struct {
	client          beaconSpecSource
	epochsPerPeriod map[domain.ScheduleKey]uint64
}

// NewBeaconHTTPAdapter connects to the beacon node at endpoint. periods maps each
// served key to the number of beacon epochs in one of its epochs.
func NewBeaconHTTPAdapter(endpoint string, periods map[domain.ScheduleKey]uint64) (ports.ScheduleProvider, error) {
	customHTTPClient := &nethttp.Client{
		Timeout: 60 * time.Second, // global upper bound; per-request timeout below
	}

	client, err := eth2http.New(
		context.Background(),
		eth2http.WithAddress(endpoint),
		eth2http.WithHTTPClient(customHTTPClient),
		// Silence go-eth2-client logs unless they are warnings+.
		eth2http.WithLogLevel(zerolog.WarnLevel),
		// This is the per-request timeout used by go-eth2-client.
		eth2http.WithTimeout(20*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to beacon node %s: %w", endpoint, err)
	}

	return newBeaconSettingsAdapter(client.(*eth2http.Service), periods), nil
}

func newBeaconSettingsAdapter(client beaconSpecSource, periods map[domain.ScheduleKey]uint64) *beaconSettingsAdapter {
	return &beaconSettingsAdapter{client: client, epochsPerPeriod: periods}
}

// GetSchedule returns genesis-anchored schedule for key.
func (b *beaconSettingsAdapter) GetSchedule(ctx context.Context, key domain.ScheduleKey) (domain.EpochSchedule, error) {
	period, ok := b.epochsPerPeriod[key]
	if !ok {
		return domain.EpochSchedule{}, fmt.Errorf("%w: %s", domain.ErrScheduleNotFound, key)
	}

	genesis, err := b.client.Genesis(ctx, &api.GenesisOpts{})
	if err != nil {
		return domain.EpochSchedule{}, fmt.Errorf("fetch genesis: %w", err)
	}
	if genesis == nil || genesis.Data == nil {
		return domain.EpochSchedule{}, fmt.Errorf("fetch genesis: empty response")
	}

	spec, err := b.client.Spec(ctx, &api.SpecOpts{})
	if err != nil {
		return domain.EpochSchedule{}, fmt.Errorf("fetch spec: %w", err)
	}
	if spec == nil {
		return domain.EpochSchedule{}, fmt.Errorf("fetch spec: empty response")
	}

	secondsPerSlot, ok := spec.Data["SECONDS_PER_SLOT"].(time.Duration)
	if !ok {
		return domain.EpochSchedule{}, fmt.Errorf("SECONDS_PER_SLOT missing from beacon spec")
	}
	slotsPerEpoch, ok := spec.Data["SLOTS_PER_EPOCH"].(uint64)
	if !ok {
		return domain.EpochSchedule{}, fmt.Errorf("SLOTS_PER_EPOCH missing from beacon spec")
	}

	return beaconSchedule(genesis.Data.GenesisTime, secondsPerSlot, slotsPerEpoch, period), nil
}

func beaconSchedule(genesis time.Time, secondsPerSlot time.Duration, slotsPerEpoch, epochsPerPeriod uint64) domain.EpochSchedule {
	duration := secondsPerSlot * time.Duration(slotsPerEpoch*epochsPerPeriod)
	return domain.EpochSchedule{
		FirstEpochStartTime: domain.TimestampOf(genesis),
		EpochDurationMillis: duration.Milliseconds(),
	}
}
