package server

import (
	"context"
	"net/http"

	"github.com/Marketen/epoch-clock/internal/application/services"
	"github.com/Marketen/epoch-clock/internal/metrics"

	"github.com/labstack/echo/v4"
)

// Options bound what a single request may ask for.
type Options struct {
	MaxRangeEpochs int64
	MaxPageSize    int
}

type Server struct {
	e         *echo.Echo
	schedules services.ClockSource
	hub       *Hub
	metrics   *metrics.Metrics
	opts      Options
}

func NewServer(
	schedules services.ClockSource,
	hub *Hub,
	m *metrics.Metrics,
	opts Options,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		e:         e,
		schedules: schedules,
		hub:       hub,
		metrics:   m,
		opts:      opts,
	}

	e.Use(loggingMiddleware(m))

	e.GET("/status", s.getStatus)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	g := e.Group("/epochs")
	g.GET("/schedules", s.getSchedules)
	g.GET("/settings/:kind/:network", s.getSettings)
	g.GET("/:kind/:network", s.getRecentEpochs)
	g.GET("/:kind/:network/current", s.getCurrentEpoch)
	g.GET("/:kind/:network/at", s.getEpochAtTime)
	g.GET("/:kind/:network/id/:id", s.getEpochByID)
	g.GET("/:kind/:network/range", s.getEpochRange)
	g.GET("/:kind/:network/stream", s.streamEpochs)

	return s
}

// Start blocks serving on addr until Shutdown; it then returns http.ErrServerClosed.
func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// Shutdown ends open streams and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.e.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) getStatus(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "ok"})
}
