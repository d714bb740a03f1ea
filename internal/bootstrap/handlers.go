package bootstrap

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/pulsehq/analytics-backend/internal/analytics"
	"github.com/pulsehq/analytics-backend/internal/auth"
	"github.com/pulsehq/analytics-backend/internal/event"
	"github.com/pulsehq/analytics-backend/internal/export"
	"github.com/pulsehq/analytics-backend/internal/feed"
	"github.com/pulsehq/analytics-backend/internal/ingest"
	"github.com/pulsehq/analytics-backend/internal/live"
	"github.com/pulsehq/analytics-backend/internal/timewindow"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/fx"
)

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideJWTValidator(cfg *Config) *auth.JWTValidator {
	return auth.NewJWTValidator(cfg.HMACKey)
}

func ProvideJWTMiddleware(validator *auth.JWTValidator) *auth.Middleware {
	return auth.NewMiddleware(validator)
}

// ProvideResolver builds the window resolver. Falling back on unknown period
// tokens happens only when the operator configured a default; otherwise the
// request fails validation.
func ProvideResolver(cfg *Config) *timewindow.Resolver {
	var opts []timewindow.Option
	if cfg.DefaultPeriod != "" {
		opts = append(opts, timewindow.WithDefault(timewindow.Period(cfg.DefaultPeriod)))
	}
	return timewindow.NewResolver(opts...)
}

func ProvideAnalyticsService(events *event.Store, resolver *timewindow.Resolver, logger *slog.Logger) *analytics.Service {
	return analytics.NewService(events, resolver, logger)
}

func ProvideDashboard(svc *analytics.Service, logger *slog.Logger) *analytics.Dashboard {
	return analytics.NewDashboard(svc, logger)
}

// ProvideFeedHub ties the hub's delivery loops to the fx lifecycle so shutdown
// waits for every subscriber loop to drain.
func ProvideFeedHub(lc fx.Lifecycle, liveStore *live.Store, cfg *Config, logger *slog.Logger) *feed.Hub {
	hub := feed.NewHub(liveStore, logger, feed.Config{
		Interval:     cfg.FeedInterval,
		MaxRetries:   cfg.FeedMaxRetries,
		RetryBackoff: cfg.FeedRetryBackoff,
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			hub.Close()
			return nil
		},
	})
	return hub
}

func ProvideAnalyticsHandler(dashboard *analytics.Dashboard, svc *analytics.Service, logger *slog.Logger) *analytics.Handler {
	return analytics.NewHandler(dashboard, svc, logger.With("handler", "analytics"))
}

func ProvideExportHandler(dashboard *analytics.Dashboard, logger *slog.Logger) *export.Handler {
	return export.NewHandler(dashboard, logger)
}

func ProvideIngestHandler(events *event.Store, liveStore *live.Store, logger *slog.Logger) *ingest.Handler {
	return ingest.NewHandler(events, liveStore, logger)
}

func ProvideFeedHandler(hub *feed.Hub, logger *slog.Logger) *feed.Handler {
	return feed.NewHandler(hub, logger)
}

type HandlerParams struct {
	fx.In

	AnalyticsHandler *analytics.Handler
	ExportHandler    *export.Handler
	IngestHandler    *ingest.Handler
	FeedHandler      *feed.Handler
	JWTMiddleware    *auth.Middleware
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	api := e.Group("/v1")

	analyticsGroup := api.Group("/analytics")
	analyticsGroup.Use(params.JWTMiddleware.Authenticate)
	params.AnalyticsHandler.RegisterRoutes(analyticsGroup)
	params.ExportHandler.RegisterRoutes(analyticsGroup)
	params.FeedHandler.RegisterRoutes(analyticsGroup)

	eventsGroup := api.Group("/events")
	eventsGroup.Use(params.JWTMiddleware.Authenticate)
	params.IngestHandler.RegisterRoutes(eventsGroup)

	e.GET("/swagger/*", echoSwagger.EchoWrapHandler())
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideJWTValidator,
		ProvideJWTMiddleware,
		ProvideResolver,
		ProvideAnalyticsService,
		ProvideDashboard,
		ProvideFeedHub,
		ProvideAnalyticsHandler,
		ProvideExportHandler,
		ProvideIngestHandler,
		ProvideFeedHandler,
	),
	fx.Invoke(RegisterRoutes),
)
