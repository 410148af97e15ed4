package main

import (
	appointmenthandler "agendabot/internal/appointments/handler"
	appointmentrepo "agendabot/internal/appointments/repository"
	appointmentservice "agendabot/internal/appointments/service"
	appointmentvalidator "agendabot/internal/appointments/validator"
	"agendabot/internal/conversation"
	customerhandler "agendabot/internal/customers/handler"
	customerrepo "agendabot/internal/customers/repository"
	customerservice "agendabot/internal/customers/service"
	"agendabot/internal/delivery"
	"agendabot/internal/intent"
	"agendabot/internal/scheduling"
	"agendabot/internal/sessions"
	tenantrepo "agendabot/internal/tenants/repository"
	tenantservice "agendabot/internal/tenants/service"
	tenantvalidator "agendabot/internal/tenants/validator"
	"agendabot/internal/webhook"
	"agendabot/pkg/app"
	"agendabot/pkg/config"
	"agendabot/pkg/kafka"
	kafka_config "agendabot/pkg/kafka/config"
	kafkamiddleware "agendabot/pkg/kafka/middleware"
	"agendabot/pkg/metrics"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
)

const ServiceName = "agent"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	if cfg.NeedsRedis() {
		cfg.SetRedis()
	}
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting conversation agent")
	m := metrics.New(prometheus.DefaultRegisterer)
	serverApp := app.NewApplication(cfg)

	var kafkaCfg *kafka_config.Config
	if cfg.DeliveryMode == config.DeliveryKafka {
		kafkaCfg = kafka_config.Load(cfg.Log)
		kafkaCfg.Brokers = cfg.KafkaBrokers
	}

	ledger := initLedger(cfg, kafkaCfg, m, serverApp)
	tenants := initTenants(cfg)
	customers := customerservice.NewCustomerService(customerrepo.NewMongoCustomerRepository(cfg), cfg)
	sessionManager := sessions.NewManager(initSessionStore(cfg), cfg.SessionTTL, cfg.Log)

	orchestrator := conversation.NewOrchestrator(conversation.Dependencies{
		Catalog:  tenants,
		Calendar: scheduling.NewCalculator(ledger),
		Ledger:   ledger,
		Support:  customers,
		Sessions: sessionManager,
		Metrics:  m,
		Log:      cfg.Log,
	})

	inbound := webhook.NewService(webhook.Dependencies{
		Tenants:    tenants,
		Customers:  customers,
		Sessions:   sessionManager,
		Classifier: intent.NewKeywordClassifier(),
		Processor:  orchestrator,
		Sender:     initSender(cfg, kafkaCfg, m, serverApp),
		Seen:       serverApp.IdempotencyStore(),
		Metrics:    m,
		Log:        cfg.Log,
	})

	serverApp.SetApp(
		webhook.NewWebhookHandler(inbound, cfg.WhatsAppVerifyToken, cfg.Log),
		webhook.SenderFromBody,
		m,
		appointmenthandler.NewAppointmentHandler(ledger, cfg.Log),
		customerhandler.NewCustomerHandler(customers, cfg.Log),
	)
	serverApp.Run()
}

func initLedger(cfg *config.Config, kafkaCfg *kafka_config.Config, m *metrics.Metrics, serverApp *app.Application) appointmentservice.LedgerService {
	var locks appointmentrepo.SlotLockRepository
	if cfg.LockBackend == config.BackendRedis {
		locks = appointmentrepo.NewRedisSlotLockRepository(cfg.Client.Redis)
	} else {
		locks = appointmentrepo.NewMongoSlotLockRepository(cfg)
	}

	var events appointmentservice.EventPublisher
	if kafkaCfg != nil {
		events = newProducer(cfg, kafkaCfg, m, cfg.BookingEventsTopic, serverApp)
	}

	ledger := appointmentservice.NewLedgerService(
		appointmentrepo.NewMongoAppointmentRepository(cfg),
		locks,
		appointmentvalidator.NewAppointmentValidator(cfg.Log),
		events,
		m,
		cfg,
	)
	cfg.Log.Info("Booking ledger initialized", "lock_backend", cfg.LockBackend, "events", events != nil)
	return ledger
}

func initTenants(cfg *config.Config) tenantservice.TenantService {
	return tenantservice.NewTenantService(
		tenantrepo.NewMongoTenantRepository(cfg),
		tenantrepo.NewMongoServiceRepository(cfg),
		tenantvalidator.NewTenantValidator(cfg.Log),
		cfg,
	)
}

func initSessionStore(cfg *config.Config) sessions.Store {
	if cfg.SessionBackend == config.BackendRedis {
		return sessions.NewRedisStore(cfg.Client.Redis)
	}
	return sessions.NewMongoStore(cfg)
}

func initSender(cfg *config.Config, kafkaCfg *kafka_config.Config, m *metrics.Metrics, serverApp *app.Application) delivery.Sender {
	if kafkaCfg == nil {
		cfg.Log.Info("Delivering replies directly through the WhatsApp Cloud API")
		return delivery.NewWhatsAppSender(cfg.WhatsAppAPIBaseURL, cfg.WhatsAppAccessToken, m)
	}
	cfg.Log.Info("Queueing replies on Kafka", "topic", cfg.OutboundTopic)
	return delivery.NewKafkaSender(newProducer(cfg, kafkaCfg, m, cfg.OutboundTopic, serverApp), m)
}

func newProducer(cfg *config.Config, kafkaCfg *kafka_config.Config, m *metrics.Metrics, topic string, serverApp *app.Application) *kafka.Producer {
	producer, err := kafka.NewProducer(kafkaCfg, cfg.Log, topic, "")
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "topic", topic, "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafkamiddleware.MetricsProducerMiddleware(m))
	}
	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "topic", topic, "error", err)
		}
	})
	return producer
}
