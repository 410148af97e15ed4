package main

import (
	"agendabot/internal/delivery"
	"agendabot/pkg/config"
	"agendabot/pkg/kafka"
	kafka_config "agendabot/pkg/kafka/config"
	kafkamiddleware "agendabot/pkg/kafka/middleware"
	"agendabot/pkg/metrics"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ServiceName   = "dispatcher"
	ConsumerGroup = "agendabot-dispatcher"
)

func main() {
	cfg := config.Load(ServiceName)
	kafkaCfg := kafka_config.Load(cfg.Log)
	kafkaCfg.Brokers = cfg.KafkaBrokers
	m := metrics.New(prometheus.DefaultRegisterer)

	dispatcher := delivery.NewDispatcher(
		delivery.NewWhatsAppSender(cfg.WhatsAppAPIBaseURL, cfg.WhatsAppAccessToken, m),
		cfg.Log,
	)
	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.Log, cfg.OutboundTopic, ConsumerGroup, cfg.OutboundTopic+".dlq", dispatcher.Handle)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "topic", cfg.OutboundTopic, "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(kafkamiddleware.MetricsConsumerMiddleware(m))
	}

	server := metricsServer(cfg, m)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cfg.Log.Error("Metrics server failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting outbound dispatcher", "topic", cfg.OutboundTopic, "group", ConsumerGroup)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		cfg.Log.Error("Metrics server shutdown failed", "error", err)
	}
	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Dispatcher stopped")
}

func metricsServer(cfg *config.Config, m *metrics.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
