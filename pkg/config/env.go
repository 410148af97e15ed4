package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvSessionBackend = "SESSION_BACKEND"
	EnvLockBackend    = "LOCK_BACKEND"
	EnvSessionTTL     = "SESSION_TTL"
	EnvSlotLockTTL    = "SLOT_LOCK_TTL"
	EnvTenantCacheTTL = "TENANT_CACHE_TTL"
	EnvDefaultTenant  = "DEFAULT_TENANT_ID"

	EnvDeliveryMode       = "DELIVERY_MODE"
	EnvKafkaBrokers       = "KAFKA_BROKERS"
	EnvOutboundTopic      = "OUTBOUND_TOPIC"
	EnvBookingEventsTopic = "BOOKING_EVENTS_TOPIC"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvWhatsAppAppSecret   = "WHATSAPP_APP_SECRET"
	EnvWhatsAppVerifyToken = "WHATSAPP_VERIFY_TOKEN"
	EnvWhatsAppAccessToken = "WHATSAPP_ACCESS_TOKEN"
	EnvWhatsAppAPIBaseURL  = "WHATSAPP_API_BASE_URL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
