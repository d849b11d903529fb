package domain

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Basic epoch types
type EpochID int64
type Timestamp int64 // milliseconds since Unix epoch

// ScheduleKind distinguishes long reward epochs from short price epochs.
type ScheduleKind string

const (
	RewardEpoch ScheduleKind = "reward"
	PriceEpoch  ScheduleKind = "price"
)

// ParseScheduleKind accepts "reward" or "price" (case-insensitive).
func ParseScheduleKind(s string) (ScheduleKind, error) {
	switch ScheduleKind(strings.ToLower(strings.TrimSpace(s))) {
	case RewardEpoch:
		return RewardEpoch, nil
	case PriceEpoch:
		return PriceEpoch, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Network identifies the chain a schedule belongs to.
type Network string

const (
	Flare    Network = "flare"
	Songbird Network = "songbird"
	Coston   Network = "coston"
	Coston2  Network = "coston2"
)

var networkPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

func ParseNetwork(s string) (Network, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	if !networkPattern.MatchString(n) {
		return "", fmt.Errorf("%w: %q", ErrInvalidNetwork, s)
	}
	return Network(n), nil
}

// ScheduleKey addresses one schedule: a kind on a network.
type ScheduleKey struct {
	Kind    ScheduleKind `json:"kind"`
	Network Network      `json:"network"`
}

func ParseScheduleKey(kind, network string) (ScheduleKey, error) {
	k, err := ParseScheduleKind(kind)
	if err != nil {
		return ScheduleKey{}, err
	}
	n, err := ParseNetwork(network)
	if err != nil {
		return ScheduleKey{}, err
	}
	return ScheduleKey{Kind: k, Network: n}, nil
}

func (k ScheduleKey) String() string {
	return string(k.Kind) + "/" + string(k.Network)
}

// EpochSchedule is the immutable configuration of a fixed-duration epoch sequence.
type EpochSchedule struct {
	FirstEpochStartTime Timestamp `json:"firstEpochStartTime"`
	EpochDurationMillis int64     `json:"epochDurationMillis"`
}

// Validate reports ErrInvalidSchedule for a negative start or a non-positive duration.
func (s EpochSchedule) Validate() error {
	if s.EpochDurationMillis <= 0 {
		return fmt.Errorf("%w: epoch duration must be positive, got %d", ErrInvalidSchedule, s.EpochDurationMillis)
	}
	if s.FirstEpochStartTime < 0 {
		return fmt.Errorf("%w: first epoch start time must be non-negative, got %d", ErrInvalidSchedule, s.FirstEpochStartTime)
	}
	return nil
}

// EpochInfo holds the bounds of a single epoch: [StartTime, EndTime).
type EpochInfo struct {
	ID        EpochID   `json:"id"`
	StartTime Timestamp `json:"startTime"`
	EndTime   Timestamp `json:"endTime"`
}

// Contains reports whether t falls in the half-open interval of the epoch.
func (e EpochInfo) Contains(t Timestamp) bool {
	return e.StartTime <= t && t < e.EndTime
}

// EpochSnapshot is the result of a single wall-clock read.
type EpochSnapshot struct {
	Now             Timestamp `json:"now"`
	Current         EpochInfo `json:"current"`
	NextEpochID     EpochID   `json:"nextEpochId"`
	RemainingMillis int64     `json:"remainingMillis"`
}

// MaxListedEpochs bounds how many epochs a single call materializes.
const MaxListedEpochs = 1 << 20

// EpochRange is an inclusive span of epoch ids. It is empty when Last < First.
type EpochRange struct {
	First EpochID `json:"first"`
	Last  EpochID `json:"last"`
}

func (r EpochRange) Empty() bool {
	return r.Last < r.First
}

// Len returns the number of ids in the range, saturating at math.MaxInt64.
func (r EpochRange) Len() int64 {
	if r.Empty() {
		return 0
	}
	n := int64(r.Last) - int64(r.First)
	if n < 0 || n == math.MaxInt64 {
		return math.MaxInt64
	}
	return n + 1
}

// IDs materializes the range in ascending order. Ranges longer than MaxListedEpochs
// fail with ErrRangeTooLarge.
func (r EpochRange) IDs() ([]EpochID, error) {
	if n := r.Len(); n > MaxListedEpochs {
		return nil, fmt.Errorf("%w: %d epochs, limit %d", ErrRangeTooLarge, n, MaxListedEpochs)
	}
	ids := make([]EpochID, 0, r.Len())
	for id := r.First; id <= r.Last; id++ {
		ids = append(ids, id)
	}
	return ids, nil
}

// EpochEvent is published when a schedule moves into a new epoch.
type EpochEvent struct {
	Key      ScheduleKey `json:"schedule"`
	Previous EpochInfo   `json:"previous"`
	Current  EpochInfo   `json:"current"`
}
