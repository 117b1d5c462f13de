package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/logger"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/models"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/services/refresh"
)

type Refresher interface {
	Refresh(ctx context.Context) (refresh.Result, error)
}

type CountryRepository interface {
	List(ctx context.Context, filter models.CountryFilter) ([]models.Country, error)
	FindByName(ctx context.Context, name string) (*models.Country, error)
	Update(ctx context.Context, name string, fields map[string]interface{}) (*models.Country, error)
	Delete(ctx context.Context, name string) error
	Count(ctx context.Context) (int64, error)
}

type StatusReader interface {
	Get(ctx context.Context) (*models.RefreshStatus, error)
}

type Deps struct {
	Refresher Refresher
	Countries CountryRepository
	Status    StatusReader
	ImagePath string
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
}

type Server struct{ e *echo.Echo }

func NewServer(deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpErrorHandler

	e.Use(
		echoMid.Recover(),
		echoMid.RequestIDWithConfig(echoMid.RequestIDConfig{Generator: uuid.NewString}),
		requestLogger(),
	)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	h := &handlers{deps: deps}

	// routes
	e.GET("/status", h.status)

	countries := e.Group("/countries")
	countries.POST("/refresh", h.refresh)
	countries.GET("", h.list)
	countries.GET("/", h.list)
	countries.GET("/image", h.image)
	countries.GET("/:name", h.get)
	countries.PUT("/:name", h.replace)
	countries.PATCH("/:name", h.patch)
	countries.DELETE("/:name", h.delete)

	return &Server{e: e}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	logger.Info("http: listening on %s", addr)
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

func requestLogger() echo.MiddlewareFunc {
	return echoMid.RequestLoggerWithConfig(echoMid.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echoMid.RequestLoggerValues) error {
			entry := logger.WithFields(map[string]interface{}{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Round(time.Millisecond).Milliseconds(),
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry.WithField("error", v.Error.Error()).Warn("request failed")
				return nil
			}
			entry.Info("request")
			return nil
		},
	})
}
