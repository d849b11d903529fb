package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/Marketen/epoch-clock/internal/logger"

	"github.com/labstack/echo/v4"
)

const defaultPageSize = 10

// RangeResponse lists the epochs overlapping a time window. First and Last are
// omitted when no epoch overlaps it.
type RangeResponse struct {
	First    *domain.EpochID  `json:"first,omitempty"`
	Last     *domain.EpochID  `json:"last,omitempty"`
	EpochIDs []domain.EpochID `json:"epochIds"`
}

func NewRangeResponse(r domain.EpochRange, ids []domain.EpochID) RangeResponse {
	if r.Empty() {
		return RangeResponse{EpochIDs: ids}
	}
	return RangeResponse{First: &r.First, Last: &r.Last, EpochIDs: ids}
}

type RecentEpochsResponse struct {
	From     domain.EpochID     `json:"from"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
	Epochs   []domain.EpochInfo `json:"epochs"`
}

// clockFor resolves the :kind/:network path parameters to a clock.
func (s *Server) clockFor(ctx echo.Context) (*domain.EpochClock, domain.ScheduleKey, error) {
	key, err := domain.ParseScheduleKey(ctx.Param("kind"), ctx.Param("network"))
	switch {
	case errors.Is(err, domain.ErrInvalidKind):
		return nil, key, ErrInvalidKind
	case err != nil:
		return nil, key, ErrInvalidNetwork
	}

	clock, err := s.schedules.Clock(ctx.Request().Context(), key)
	switch {
	case errors.Is(err, domain.ErrScheduleNotFound):
		return nil, key, ErrScheduleNotFound
	case err != nil:
		logger.Error("Failed to resolve %s schedule: %v", key, err)
		return nil, key, ErrScheduleUnavailable
	}
	return clock, key, nil
}

func (s *Server) getSchedules(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.schedules.Keys())
}

func (s *Server) getSettings(ctx echo.Context) error {
	clock, _, err := s.clockFor(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, clock.Schedule())
}

func (s *Server) getCurrentEpoch(ctx echo.Context) error {
	clock, _, err := s.clockFor(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, clock.Snapshot())
}

func (s *Server) getEpochAtTime(ctx echo.Context) error {
	clock, _, err := s.clockFor(ctx)
	if err != nil {
		return err
	}
	if ctx.QueryParam("time") == "" {
		return ErrTimeRequired
	}
	t, err := int64Param(ctx.QueryParam("time"), "time")
	if err != nil {
		return err
	}
	if err := clock.CheckTime(domain.Timestamp(t)); err != nil {
		return ErrEpochOutOfRange
	}
	return ctx.JSON(http.StatusOK, clock.EpochAt(domain.Timestamp(t)))
}

func (s *Server) getEpochByID(ctx echo.Context) error {
	clock, _, err := s.clockFor(ctx)
	if err != nil {
		return err
	}
	id, err := int64Param(ctx.Param("id"), "id")
	if err != nil {
		return err
	}
	if err := clock.CheckEpochID(domain.EpochID(id)); err != nil {
		return ErrEpochOutOfRange
	}
	return ctx.JSON(http.StatusOK, clock.Epoch(domain.EpochID(id)))
}

func (s *Server) getEpochRange(ctx echo.Context) error {
	clock, _, err := s.clockFor(ctx)
	if err != nil {
		return err
	}
	start, err := int64Param(ctx.QueryParam("startTime"), "startTime")
	if err != nil {
		return err
	}
	end, err := int64Param(ctx.QueryParam("endTime"), "endTime")
	if err != nil {
		return err
	}

	r, err := clock.OverlappingRange(domain.Timestamp(start), domain.Timestamp(end))
	switch {
	case errors.Is(err, domain.ErrEpochOutOfRange):
		return ErrEpochOutOfRange
	case err != nil:
		return ErrWrongTimeRange
	}
	if r.Len() > s.opts.MaxRangeEpochs {
		return ErrRangeTooLarge
	}
	ids, err := r.IDs()
	if err != nil {
		return ErrRangeTooLarge
	}
	return ctx.JSON(http.StatusOK, NewRangeResponse(r, ids))
}

// getRecentEpochs pages backwards through epochs, starting at ?from (default: the current epoch).
func (s *Server) getRecentEpochs(ctx echo.Context) error {
	clock, _, err := s.clockFor(ctx)
	if err != nil {
		return err
	}

	from := clock.CurrentEpochID()
	if v := ctx.QueryParam("from"); v != "" {
		n, err := int64Param(v, "from")
		if err != nil {
			return err
		}
		from = domain.EpochID(n)
	}

	page, pageSize := 0, defaultPageSize
	if v := ctx.QueryParam("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil || page < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid page: "+v)
		}
	}
	if v := ctx.QueryParam("pageSize"); v != "" {
		if pageSize, err = strconv.Atoi(v); err != nil || pageSize <= 0 || pageSize > s.opts.MaxPageSize {
			return echo.NewHTTPError(http.StatusBadRequest,
				"pageSize must be between 1 and "+strconv.Itoa(s.opts.MaxPageSize))
		}
	}

	epochs, err := clock.RecentEpochs(from, page, pageSize)
	switch {
	case errors.Is(err, domain.ErrEpochOutOfRange):
		return ErrEpochOutOfRange
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return ctx.JSON(http.StatusOK, RecentEpochsResponse{
		From:     from,
		Page:     page,
		PageSize: pageSize,
		Epochs:   epochs,
	})
}

func int64Param(v, name string) (int64, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name+": "+strconv.Quote(v))
	}
	return n, nil
}
