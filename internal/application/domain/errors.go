package domain

import "errors"

var (
	ErrInvalidSchedule  = errors.New("invalid epoch schedule")
	ErrInvalidRange     = errors.New("wrong time range")
	ErrEpochOutOfRange  = errors.New("outside the representable epoch range")
	ErrRangeTooLarge    = errors.New("range spans too many epochs")
	ErrInvalidPage      = errors.New("invalid page")
	ErrScheduleNotFound = errors.New("epoch schedule not found")
	ErrInvalidKind      = errors.New("invalid schedule kind")
	ErrInvalidNetwork   = errors.New("invalid network")
)
