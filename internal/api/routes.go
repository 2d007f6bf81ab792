// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/style-studio/backend/internal/config"
	"github.com/style-studio/backend/internal/logging"
	"github.com/style-studio/backend/internal/storage"
	"github.com/style-studio/backend/internal/style"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Config  *config.AppConfig
	Store   storage.Store
	Jobs    JobRunner
	Catalog *style.Catalog
	History HistoryReader
	Metrics MetricsRecorder
	FFmpeg  FFmpegProber
	Version string
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Upload    UploadHandler
	Results   ResultHandler
	Jobs      JobHandler
	Styles    StyleHandler
	JobStream JobStreamHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	cfg := deps.Config
	return &Handlers{
		Health: NewHealthHandler(deps.Version, deps.FFmpeg),
		Upload: NewUploadHandler(deps.Store, deps.Jobs, deps.Catalog,
			cfg.Security.AllowedFileTypes, cfg.Processing.DefaultStyle, deps.Metrics),
		Results:   NewResultHandler(deps.Store, cfg.Security.AllowManualCleanup, deps.Metrics),
		Jobs:      NewJobHandler(deps.Jobs, deps.History),
		Styles:    NewStyleHandler(deps.Catalog, cfg.Processing.DefaultStyle),
		JobStream: NewWebSocketHandler(deps.Jobs),
	}
}

// RegisterRoutes registers all API routes with the Echo instance.
// uploadMiddleware wraps POST /upload only (rate limiting).
func RegisterRoutes(e *echo.Echo, handlers *Handlers, uploadMiddleware ...echo.MiddlewareFunc) {
	// Style transfer
	e.POST("/upload", handlers.Upload.HandleUpload, uploadMiddleware...)

	// Results
	e.GET("/static/results/:filename", handlers.Results.HandleResult)
	e.GET("/download/:filename", handlers.Results.HandleDownload)
	e.GET("/cleanup", handlers.Results.HandleCleanup)

	apiGroup := e.Group("/api")
	apiGroup.GET("/health", handlers.Health.HandleHealth)
	apiGroup.GET("/styles", handlers.Styles.HandleStyles)
	apiGroup.GET("/stats", handlers.Jobs.HandleStats)
	apiGroup.GET("/jobs/:id", handlers.Jobs.HandleGetJob)
	apiGroup.GET("/jobs/:id/msgpack", handlers.Jobs.HandleGetJobMsgpack)

	// WebSocket endpoint
	apiGroup.GET("/ws/jobs", handlers.JobStream.HandleJobStream)
}

// NewUploadRateLimiter limits uploads per client IP.
func NewUploadRateLimiter(perSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return &APIError{Status: http.StatusForbidden, Code: CodeForbidden, Message: "Unable to identify client"}
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return &APIError{Status: http.StatusTooManyRequests, Code: CodeRateLimited, Message: "Too many uploads, please wait a moment"}
		},
	})
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg *config.AppConfig) {
	e.HTTPErrorHandler = ErrorHandler

	if cfg.Advanced.EnableRequestLogging {
		logger := logging.WithPrefix("http")
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return path == "/api/health" || path == "/metrics"
			},
			LogMethod:   true,
			LogURI:      true,
			LogStatus:   true,
			LogLatency:  true,
			LogRemoteIP: true,
			LogError:    true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				if v.Error != nil {
					logger.Warn("request", "method", v.Method, "uri", v.URI, "status", v.Status,
						"latency", v.Latency, "ip", v.RemoteIP, "err", v.Error)
					return nil
				}
				logger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status,
					"latency", v.Latency, "ip", v.RemoteIP)
				return nil
			},
		}))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	// Compression middleware
	if cfg.Processing.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Processing.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				// media is already compressed and websockets cannot be gzipped
				return strings.HasPrefix(path, "/static/results/") ||
					strings.HasPrefix(path, "/download/") ||
					strings.HasPrefix(path, "/api/ws/")
			},
		}))
	}

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.BodyLimit()))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}
