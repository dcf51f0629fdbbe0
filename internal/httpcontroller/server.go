// Package httpcontroller exposes the HTTP and WebSocket surface of the
// audio service: the per-session streaming protocol, the recording catalog
// REST endpoints and the telemetry endpoint.
package httpcontroller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soundlab/acoustics-go/internal/conf"
	"github.com/soundlab/acoustics-go/internal/datastore"
	"github.com/soundlab/acoustics-go/internal/logging"
	"github.com/soundlab/acoustics-go/internal/observability"
)

// Server manages the routes and handlers of the audio service.
type Server struct {
	Echo     *echo.Echo
	Settings *conf.Settings
	DS       datastore.Interface

	metrics     *observability.Metrics
	registry    *prometheus.Registry
	upgrader    websocket.Upgrader
	logger      *slog.Logger
	closeWebLog func() error
}

// New creates a Server with all routes registered. It does not start
// listening; call Start for that.
func New(settings *conf.Settings, ds datastore.Interface) *Server {
	registry := prometheus.NewRegistry()

	s := &Server{
		Echo:     echo.New(),
		Settings: settings,
		DS:       ds,
		metrics:  observability.NewMetrics(registry),
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // cross-origin policy is handled by the CORS middleware
			},
		},
		logger: logging.ForService("httpcontroller"),
	}

	s.Echo.HideBanner = true
	s.Echo.Use(middleware.Recover())
	s.initAccessLog()
	s.Echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{settings.Server.CORSOrigin},
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s.initRoutes()
	return s
}

// initAccessLog attaches request logging backed by a rotating file. File
// logging failures are not fatal; the server runs without an access log.
func (s *Server) initAccessLog() {
	if s.Settings.Log.Path == "" {
		return
	}

	webLogger, closer, err := logging.NewFileLogger(s.Settings.Log.Path, "web", slog.LevelInfo)
	if err != nil {
		s.logger.Warn("failed to initialize access log", "path", s.Settings.Log.Path, "error", err)
		return
	}
	s.closeWebLog = closer

	s.Echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			webLogger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds())
			return nil
		},
	}))
}

// initRoutes registers all handlers.
func (s *Server) initRoutes() {
	s.Echo.GET("/health", s.handleHealth)
	s.Echo.GET("/recordings", s.handleGetRecordings)
	s.Echo.GET("/recordings/:filename", s.handleDownloadRecording)
	s.Echo.DELETE("/recordings/:filename", s.handleDeleteRecording)
	s.Echo.GET("/ws/audio", s.handleAudioWebSocket)
	s.Echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
}

// Start begins listening on the configured address and blocks until the
// server shuts down.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.Settings.Server.Host, s.Settings.Server.Port)
	s.logger.Info("starting server", "address", addr)
	return s.Echo.Start(addr)
}

// Shutdown gracefully stops the server and closes the access log.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Echo.Shutdown(ctx)
	if s.closeWebLog != nil {
		if cerr := s.closeWebLog(); cerr != nil {
			s.logger.Error("failed to close access log", "error", cerr)
		}
	}
	return err
}
