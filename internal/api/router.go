package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/sorria/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/sorria/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/sorria/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/sorria/internal/captcha"
	"github.com/saturnino-fabrica-de-software/sorria/internal/extractor"
	"github.com/saturnino-fabrica-de-software/sorria/internal/metrics"
	"github.com/saturnino-fabrica-de-software/sorria/internal/service"
	"github.com/saturnino-fabrica-de-software/sorria/internal/ws"
)

const Version = "0.1.0"

type Dependencies struct {
	Tokens       *service.TokenService
	Applications *service.ApplicationService
	Capture      *service.CaptureService
	Extractor    extractor.Extractor
	Captcha      captcha.Verifier
	Limiter      middleware.Limiter
	DB           handler.Pinger

	// Metrics and Gatherer are optional; /metrics is mounted when Gatherer is set
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	ExchangeRateLimit int
	CaptureConfig     ws.HandlerConfig
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
	hub    *ws.Hub
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(logger),
		AppName:               "Sorria API",
		DisableStartupMessage: true,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
		hub:    ws.NewHub(),
	}
}

func (r *Router) Setup() {
	var requestObserver middleware.RequestObserver
	var exchangeObserver handler.ExchangeObserver
	var captureObserver ws.Observer
	if r.deps != nil && r.deps.Metrics != nil {
		requestObserver = r.deps.Metrics
		exchangeObserver = r.deps.Metrics
		captureObserver = r.deps.Metrics
	}

	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger, requestObserver))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var db handler.Pinger
	if r.deps != nil {
		db = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(db, r.hub, Version, r.logger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	if r.deps.Gatherer != nil {
		r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(r.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.app.Group("/v1")

	// OAuth routes used by relying applications
	oauthHandler := handler.NewOAuthHandler(r.deps.Tokens, exchangeObserver, r.logger)
	oauth := v1.Group("/oauth")
	oauth.Post("/token", middleware.RateLimit(r.deps.Limiter, middleware.RateLimiterConfig{
		Max:          r.deps.ExchangeRateLimit,
		KeyGenerator: middleware.ByClientIP,
		Logger:       r.logger,
	}), oauthHandler.Token)
	oauth.Get("/profile", middleware.BearerAuth(), oauthHandler.Profile)
	oauth.Post("/revoke", middleware.BearerAuth(), oauthHandler.Revoke)

	// Application credential check; limited per application inside the service
	applicationHandler := handler.NewApplicationHandler(r.deps.Applications, r.logger)
	v1.Post("/applications/validate", applicationHandler.Validate)

	// Capture WebSockets
	captureHandler := ws.NewCaptureHandler(
		r.deps.Capture,
		r.deps.Applications,
		r.deps.Extractor,
		r.deps.Captcha,
		r.hub,
		captureObserver,
		r.logger,
		r.deps.CaptureConfig,
	)
	capture := v1.Group("/capture", ws.UpgradeMiddleware())
	capture.Get("/login", captureHandler.PrepareLogin, captureHandler.Login())
	capture.Get("/register", captureHandler.PrepareRegistration, captureHandler.Register())
}

func (r *Router) App() *fiber.App {
	return r.app
}

// Hub exposes the live capture sessions
func (r *Router) Hub() *ws.Hub {
	return r.hub
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

// Shutdown interrupts capture sessions, then drains HTTP connections
func (r *Router) Shutdown(ctx context.Context) error {
	r.hub.Shutdown()
	return r.app.ShutdownWithContext(ctx)
}
