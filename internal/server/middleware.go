package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Marketen/epoch-clock/internal/logger"

	"github.com/labstack/echo/v4"
)

// requestRecorder receives one observation per handled request.
type requestRecorder interface {
	RecordRequest(method, route, code string)
}

func loggingMiddleware(recorder requestRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			code := c.Response().Status
			if err != nil {
				code = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					code = he.Code
				}
			}

			req := c.Request()
			logger.Debug("%s %s -> %d (%s)", req.Method, req.URL.RequestURI(), code, time.Since(start))
			if recorder != nil {
				recorder.RecordRequest(req.Method, c.Path(), strconv.Itoa(code))
			}
			return err
		}
	}
}
