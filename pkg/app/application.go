package app

import (
	"agendabot/internal/health"
	"agendabot/pkg/config"
	"agendabot/pkg/contracts"
	"agendabot/pkg/metrics"
	"agendabot/pkg/middleware"
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"
)

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore middleware.IdempotencyStore
	rateLimiter      *middleware.SenderRateLimiter
	healthHandler    http.Handler
	webhookHandler   http.Handler
	apiHandler       http.Handler
	metricsHandler   http.Handler
	onShutdown       []func()
}

// NewApplication keeps idempotency records in Redis when the process is
// connected to it, in memory otherwise.
func NewApplication(cfg *config.Config) *Application {
	a := &Application{cfg: cfg}
	if cfg.Client.Redis != nil {
		a.idempotencyStore = middleware.NewRedisIdempotencyStore(cfg.Client.Redis, cfg.IdempotencyTTL)
	} else {
		a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(cfg.IdempotencyTTL)
	}
	return a
}

// IdempotencyStore is shared with the inbound pipeline for message dedup.
func (a *Application) IdempotencyStore() middleware.IdempotencyStore {
	return a.idempotencyStore
}

// SetApp mounts the webhook under /webhook/ and every api handler under /.
// sender identifies the customer a webhook request is rate limited by.
func (a *Application) SetApp(webhook contracts.Handler, sender middleware.SenderExtractor, m *metrics.Metrics, api ...contracts.Handler) {
	a.setHealthHandler()
	a.setWebhookHandler(webhook, sender)
	a.setAPIHandler(api)
	a.metricsHandler = m.Handler()
	a.setAppServer()
}

// OnShutdown registers fn to run after the HTTP server has drained.
func (a *Application) OnShutdown(fn func()) {
	a.onShutdown = append(a.onShutdown, fn)
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	healthHandler := health.NewHealthHandler(a.cfg.Client.Mongo, a.cfg.Client.Redis, a.cfg.Log)
	healthHandler.RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

// Middleware order: Recovery → Logging → MaxSize → ContentType → Signature → RateLimit → Timeout → Router
func (a *Application) setWebhookHandler(webhook contracts.Handler, sender middleware.SenderExtractor) {
	webhookRouter := httprouter.New()
	webhook.RegisterRoutes(webhookRouter)

	a.rateLimiter = middleware.NewSenderRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		sender,
		a.cfg.Log,
	)

	var webhookHTTPHandler http.Handler = webhookRouter
	webhookHTTPHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(webhookHTTPHandler)
	webhookHTTPHandler = middleware.SenderRateLimit(a.rateLimiter)(webhookHTTPHandler)
	if a.cfg.WhatsAppAppSecret != "" {
		webhookHTTPHandler = middleware.WhatsAppSignatureVerification(a.cfg.WhatsAppAppSecret, a.cfg.Log)(webhookHTTPHandler)
		a.cfg.Log.Info("WhatsApp signature verification enabled")
	}
	webhookHTTPHandler = middleware.ContentTypeValidation(a.cfg.Log)(webhookHTTPHandler)
	webhookHTTPHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(webhookHTTPHandler)
	webhookHTTPHandler = middleware.RequestLogging(a.cfg.Log)(webhookHTTPHandler)
	webhookHTTPHandler = middleware.Recovery(a.cfg.Log)(webhookHTTPHandler)
	a.webhookHandler = webhookHTTPHandler
	a.cfg.Log.Info("Webhook endpoints configured with full security middleware stack")
}

// Middleware order: Recovery → Logging → MaxSize → ContentType → Timeout → Idempotency → Router
func (a *Application) setAPIHandler(api []contracts.Handler) {
	apiRouter := httprouter.New()
	for _, h := range api {
		h.RegisterRoutes(apiRouter)
	}

	var apiHTTPHandler http.Handler = apiRouter
	apiHTTPHandler = middleware.Idempotency(a.idempotencyStore, middleware.HeaderKey("Idempotency-Key"))(apiHTTPHandler)
	apiHTTPHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(apiHTTPHandler)
	apiHTTPHandler = middleware.ContentTypeValidation(a.cfg.Log)(apiHTTPHandler)
	apiHTTPHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(apiHTTPHandler)
	apiHTTPHandler = middleware.RequestLogging(a.cfg.Log)(apiHTTPHandler)
	apiHTTPHandler = middleware.Recovery(a.cfg.Log)(apiHTTPHandler)
	a.apiHandler = apiHTTPHandler
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/metrics", a.metricsHandler)
	mux.Handle("/webhook/", a.webhookHandler)
	mux.Handle("/", a.apiHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()
	for _, fn := range a.onShutdown {
		fn()
	}
	a.cfg.Log.Info("Server stopped gracefully")
}
