package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	ErrInvalidKind         = echo.NewHTTPError(http.StatusBadRequest, "Schedule kind must be \"reward\" or \"price\"")
	ErrInvalidNetwork      = echo.NewHTTPError(http.StatusBadRequest, "Invalid network")
	ErrScheduleNotFound    = echo.NewHTTPError(http.StatusNotFound, "Epoch schedule not found")
	ErrScheduleUnavailable = echo.NewHTTPError(http.StatusBadGateway, "Epoch schedule unavailable")

	ErrWrongTimeRange  = echo.NewHTTPError(http.StatusBadRequest, "Wrong time range")
	ErrRangeTooLarge   = echo.NewHTTPError(http.StatusBadRequest, "Time range spans too many epochs")
	ErrTimeRequired    = echo.NewHTTPError(http.StatusBadRequest, "Query parameter time is required")
	ErrEpochOutOfRange = echo.NewHTTPError(http.StatusBadRequest, "Epoch or time outside the supported range")
)
