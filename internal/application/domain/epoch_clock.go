package domain

import (
	"fmt"
	"math"
	"math/bits"
	"time"
)

// EpochClock converts between millisecond timestamps and epoch ids of a fixed-duration
// schedule. It never mutates after construction and is safe for concurrent use.
type EpochClock struct {
	schedule EpochSchedule
	now      func() time.Time

	// ids whose start and end times fit in a Timestamp
	minID, maxID EpochID
}

type ClockOption func(*EpochClock)

// WithNow replaces the wall-clock source used by the current/next epoch queries.
func WithNow(now func() time.Time) ClockOption {
	return func(c *EpochClock) {
		c.now = now
	}
}

// NewEpochClock validates the schedule and returns a clock for it.
func NewEpochClock(schedule EpochSchedule, opts ...ClockOption) (*EpochClock, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	d := schedule.EpochDurationMillis
	c := &EpochClock{
		schedule: schedule,
		now:      time.Now,
		minID:    EpochID(-(math.MaxInt64 / d)),
		maxID:    EpochID((math.MaxInt64-int64(schedule.FirstEpochStartTime))/d - 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Schedule returns the schedule the clock was built from.
func (c *EpochClock) Schedule() EpochSchedule {
	return c.schedule
}

// Now returns the clock's current time in milliseconds.
func (c *EpochClock) Now() Timestamp {
	return TimestampOf(c.now())
}

// EpochIDForTime returns floor((t - firstEpochStartTime) / epochDuration).
// Timestamps before the first epoch yield negative ids. The result is exact for
// every t accepted by CheckTime.
func (c *EpochClock) EpochIDForTime(t Timestamp) EpochID {
	return EpochID(floorDiv(int64(t-c.schedule.FirstEpochStartTime), c.schedule.EpochDurationMillis))
}

// CurrentEpochID returns the id of the epoch containing the clock's current time.
func (c *EpochClock) CurrentEpochID() EpochID {
	return c.EpochIDForTime(c.Now())
}

// NextEpochID returns CurrentEpochID() + 1.
func (c *EpochClock) NextEpochID() EpochID {
	return c.CurrentEpochID() + 1
}

// StartTimeForEpochID returns firstEpochStartTime + n*epochDuration, the first millisecond
// of epoch n. It is exact for every n accepted by CheckEpochID.
func (c *EpochClock) StartTimeForEpochID(n EpochID) Timestamp {
	return c.schedule.FirstEpochStartTime + Timestamp(int64(n)*c.schedule.EpochDurationMillis)
}

// EndTimeForEpochID returns the exclusive end of epoch n, which is the start of n+1.
func (c *EpochClock) EndTimeForEpochID(n EpochID) Timestamp {
	return c.StartTimeForEpochID(n) + Timestamp(c.schedule.EpochDurationMillis)
}

// Bounds returns the ids whose start and end times are representable.
func (c *EpochClock) Bounds() EpochRange {
	return EpochRange{First: c.minID, Last: c.maxID}
}

// CheckEpochID reports ErrEpochOutOfRange when the bounds of epoch n do not fit in a Timestamp.
func (c *EpochClock) CheckEpochID(n EpochID) error {
	if n < c.minID || n > c.maxID {
		return fmt.Errorf("%w: epoch %d not in [%d, %d]", ErrEpochOutOfRange, n, c.minID, c.maxID)
	}
	return nil
}

// CheckTime reports ErrEpochOutOfRange when t falls outside the epochs accepted by CheckEpochID.
func (c *EpochClock) CheckTime(t Timestamp) error {
	lo, hi := c.StartTimeForEpochID(c.minID), c.EndTimeForEpochID(c.maxID)-1
	if t < lo || t > hi {
		return fmt.Errorf("%w: time %d not in [%d, %d]", ErrEpochOutOfRange, t, lo, hi)
	}
	return nil
}

// Epoch returns the bounds of epoch n.
func (c *EpochClock) Epoch(n EpochID) EpochInfo {
	return EpochInfo{
		ID:        n,
		StartTime: c.StartTimeForEpochID(n),
		EndTime:   c.EndTimeForEpochID(n),
	}
}

// EpochAt returns the epoch containing t.
func (c *EpochClock) EpochAt(t Timestamp) EpochInfo {
	return c.Epoch(c.EpochIDForTime(t))
}

// RemainingMillis returns the time left from t until the end of the epoch containing t.
func (c *EpochClock) RemainingMillis(t Timestamp) int64 {
	return int64(c.EpochAt(t).EndTime - t)
}

// Snapshot reads the wall clock once and derives every "current" value from that read.
func (c *EpochClock) Snapshot() EpochSnapshot {
	now := c.Now()
	current := c.EpochAt(now)
	return EpochSnapshot{
		Now:             now,
		Current:         current,
		NextEpochID:     current.ID + 1,
		RemainingMillis: int64(current.EndTime - now),
	}
}

// OverlappingRange returns the inclusive bounds of every epoch whose interval overlaps
// [startTime, endTime). An instant window (startTime == endTime) on an epoch boundary
// overlaps nothing.
func (c *EpochClock) OverlappingRange(startTime, endTime Timestamp) (EpochRange, error) {
	if startTime > endTime {
		return EpochRange{}, fmt.Errorf("%w: start %d is after end %d", ErrInvalidRange, startTime, endTime)
	}
	if err := c.CheckTime(startTime); err != nil {
		return EpochRange{}, err
	}
	if endTime > startTime {
		if err := c.CheckTime(endTime - 1); err != nil {
			return EpochRange{}, err
		}
	}
	return EpochRange{
		First: c.EpochIDForTime(startTime),
		Last:  c.EpochIDForTime(endTime - 1),
	}, nil
}

// EpochIDsOverlappingRange lists, in ascending order, the ids of OverlappingRange.
func (c *EpochClock) EpochIDsOverlappingRange(startTime, endTime Timestamp) ([]EpochID, error) {
	r, err := c.OverlappingRange(startTime, endTime)
	if err != nil {
		return nil, err
	}
	return r.IDs()
}

// RecentEpochs returns page `page` (zero based) of epochs in descending order, starting at from.
// Pages that run past the oldest representable epoch are cut short.
func (c *EpochClock) RecentEpochs(from EpochID, page, pageSize int) ([]EpochInfo, error) {
	if page < 0 || pageSize <= 0 {
		return nil, fmt.Errorf("%w: page %d of size %d", ErrInvalidPage, page, pageSize)
	}
	if pageSize > MaxListedEpochs {
		return nil, fmt.Errorf("%w: page size %d, limit %d", ErrRangeTooLarge, pageSize, MaxListedEpochs)
	}
	if err := c.CheckEpochID(from); err != nil {
		return nil, err
	}

	// epochs older than from; exact in uint64 even when the int64 difference wraps
	older := uint64(int64(from) - int64(c.minID))
	hi, skip := bits.Mul64(uint64(page), uint64(pageSize))
	if hi != 0 || skip > older {
		return []EpochInfo{}, nil
	}
	top := from - EpochID(skip) // wraps back into [minID, from]
	count := min(uint64(pageSize), older-skip+1)

	out := make([]EpochInfo, 0, count)
	for i := uint64(0); i < count; i++ {
		out = append(out, c.Epoch(top-EpochID(i)))
	}
	return out, nil
}

// TimestampOf converts a time.Time to milliseconds since Unix epoch.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
