package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"agendabot/pkg/client"
	"agendabot/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionBackend  string
	LockBackend     string
	SessionTTL      time.Duration
	SlotLockTTL     time.Duration
	TenantCacheTTL  time.Duration
	DefaultTenantID string

	DeliveryMode       string
	KafkaBrokers       []string
	OutboundTopic      string
	BookingEventsTopic string

	Port string

	WhatsAppAppSecret   string
	WhatsAppVerifyToken string
	WhatsAppAccessToken string
	WhatsAppAPIBaseURL  string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads .env from the working directory when present; variables
// already set in the environment win.
func Load(serviceName string) *Config {
	dotenvErr := godotenv.Load()
	cfg := FromEnv(serviceName)
	if dotenvErr != nil && !errors.Is(dotenvErr, fs.ErrNotExist) {
		cfg.Log.Warn("Failed to read .env file", "error", dotenvErr)
	}
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv reads the environment without validating it.
func FromEnv(serviceName string) *Config {
	return &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		SessionBackend:  strings.ToLower(getEnvStr(EnvSessionBackend, DefaultSessionBackend)),
		LockBackend:     strings.ToLower(getEnvStr(EnvLockBackend, DefaultLockBackend)),
		SessionTTL:      getEnvDuration(EnvSessionTTL, DefaultSessionTTL),
		SlotLockTTL:     getEnvDuration(EnvSlotLockTTL, DefaultSlotLockTTL),
		TenantCacheTTL:  getEnvDuration(EnvTenantCacheTTL, DefaultTenantCacheTTL),
		DefaultTenantID: getEnvStr(EnvDefaultTenant, ""),

		DeliveryMode:       strings.ToLower(getEnvStr(EnvDeliveryMode, DefaultDeliveryMode)),
		KafkaBrokers:       getEnvList(EnvKafkaBrokers, DefaultKafkaBrokers),
		OutboundTopic:      getEnvStr(EnvOutboundTopic, DefaultOutboundTopic),
		BookingEventsTopic: getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),

		Port: getEnvStr(EnvPort, DefaultPort),

		WhatsAppAppSecret:   getEnvStr(EnvWhatsAppAppSecret, ""),
		WhatsAppVerifyToken: getEnvStr(EnvWhatsAppVerifyToken, ""),
		WhatsAppAccessToken: getEnvStr(EnvWhatsAppAccessToken, ""),
		WhatsAppAPIBaseURL:  getEnvStr(EnvWhatsAppAPIBaseURL, DefaultWhatsAppAPIBaseURL),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

// NeedsRedis reports whether any configured backend is Redis.
func (cfg *Config) NeedsRedis() bool {
	return cfg.SessionBackend == BackendRedis || cfg.LockBackend == BackendRedis
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.SessionBackend != BackendRedis && cfg.SessionBackend != BackendMongo {
		errors = append(errors, fmt.Sprintf("SessionBackend must be 'redis' or 'mongo', got: %s", cfg.SessionBackend))
	}
	if cfg.LockBackend != BackendRedis && cfg.LockBackend != BackendMongo {
		errors = append(errors, fmt.Sprintf("LockBackend must be 'redis' or 'mongo', got: %s", cfg.LockBackend))
	}
	if cfg.NeedsRedis() && cfg.RedisAddr == "" {
		errors = append(errors, "RedisAddr cannot be empty when a Redis backend is selected")
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}
	if cfg.SessionTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SessionTTL must be positive, got: %s", cfg.SessionTTL))
	}
	if cfg.SlotLockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SlotLockTTL must be positive, got: %s", cfg.SlotLockTTL))
	}
	if cfg.TenantCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("TenantCacheTTL cannot be negative, got: %s", cfg.TenantCacheTTL))
	}

	if cfg.DeliveryMode != DeliveryKafka && cfg.DeliveryMode != DeliveryDirect {
		errors = append(errors, fmt.Sprintf("DeliveryMode must be 'kafka' or 'direct', got: %s", cfg.DeliveryMode))
	}
	if len(cfg.KafkaBrokers) == 0 {
		errors = append(errors, "KafkaBrokers cannot be empty")
	}
	if cfg.OutboundTopic == "" {
		errors = append(errors, "OutboundTopic cannot be empty")
	}
	if cfg.BookingEventsTopic == "" {
		errors = append(errors, "BookingEventsTopic cannot be empty")
	}
	if !strings.HasPrefix(cfg.WhatsAppAPIBaseURL, "http://") && !strings.HasPrefix(cfg.WhatsAppAPIBaseURL, "https://") {
		errors = append(errors, fmt.Sprintf("WhatsAppAPIBaseURL must be an http(s) URL, got: %s", cfg.WhatsAppAPIBaseURL))
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"redis_db", cfg.RedisDB,
		"session_backend", cfg.SessionBackend,
		"lock_backend", cfg.LockBackend,
		"session_ttl", cfg.SessionTTL,
		"slot_lock_ttl", cfg.SlotLockTTL,
		"tenant_cache_ttl", cfg.TenantCacheTTL,
		"default_tenant_id", cfg.DefaultTenantID,
		"delivery_mode", cfg.DeliveryMode,
		"kafka_brokers", cfg.KafkaBrokers,
		"outbound_topic", cfg.OutboundTopic,
		"booking_events_topic", cfg.BookingEventsTopic,
		"port", cfg.Port,
		"whatsapp_secret_set", cfg.WhatsAppAppSecret != "",
		"whatsapp_verify_token_set", cfg.WhatsAppVerifyToken != "",
		"whatsapp_access_token_set", cfg.WhatsAppAccessToken != "",
		"whatsapp_api_base_url", cfg.WhatsAppAPIBaseURL,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getEnvStr(key, fallback), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
