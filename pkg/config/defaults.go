package config

import "time"

const (
	BackendRedis = "redis"
	BackendMongo = "mongo"

	DeliveryKafka  = "kafka"
	DeliveryDirect = "direct"
)

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "agendabot"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultSessionBackend = BackendRedis
	DefaultLockBackend    = BackendMongo
	DefaultSessionTTL     = 24 * time.Hour
	DefaultSlotLockTTL    = 30 * time.Second
	DefaultTenantCacheTTL = 5 * time.Minute

	DefaultDeliveryMode       = DeliveryKafka
	DefaultKafkaBrokers       = "localhost:9092"
	DefaultOutboundTopic      = "whatsapp.outbound"
	DefaultBookingEventsTopic = "appointments.events"

	DefaultWhatsAppAPIBaseURL = "https://graph.facebook.com/v20.0"

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
)
