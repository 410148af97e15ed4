package kafka_config

import (
	"agendabot/pkg/logger"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Compressions lists the codec names ProducerConfig.Compression accepts.
var Compressions = []string{"none", "gzip", "snappy", "lz4", "zstd"}

// Config is shared by the agent's producers and the dispatcher's consumer.
type Config struct {
	Brokers          []string
	ClientID         string
	Producer         ProducerConfig
	Consumer         ConsumerConfig
	EnableMiddleware bool
}

type ProducerConfig struct {
	MaxAttempts  int
	BatchTimeout time.Duration
	RequireAcks  int // -1 all replicas, 0 none, 1 leader
	Compression  string
	Async        bool
}

type ConsumerConfig struct {
	StartOffset       int64 // -1 newest, -2 oldest
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	CommitInterval    time.Duration // 0 commits synchronously
	HeartbeatInterval time.Duration
	SessionTimeout    time.Duration
	RebalanceTimeout  time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration // first retry delay, doubled per attempt
}

// Load reads the process environment. Invalid settings are fatal.
func Load(log *logger.Logger) *Config {
	cfg := FromEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid kafka configuration", "error", err)
	}
	cfg.LogConfiguration(log)
	return cfg
}

// FromEnv builds a Config from lookup without validating it. Unparseable
// values fall back to their defaults.
func FromEnv(lookup func(string) (string, bool)) *Config {
	env := envReader{lookup: lookup}

	return &Config{
		Brokers:  splitBrokers(env.str(EnvKafkaBrokers, DefaultKafkaBrokers)),
		ClientID: env.str(EnvKafkaClientID, DefaultKafkaClientID),
		Producer: ProducerConfig{
			MaxAttempts:  env.integer(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts),
			BatchTimeout: env.duration(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout),
			RequireAcks:  env.integer(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks),
			Compression:  strings.ToLower(env.str(EnvKafkaProducerCompression, DefaultProducerCompression)),
			Async:        env.boolean(EnvKafkaProducerAsync, DefaultProducerAsync),
		},
		Consumer: ConsumerConfig{
			StartOffset:       int64(env.integer(EnvKafkaConsumerStartOffset, DefaultConsumerStartOffset)),
			MinBytes:          env.integer(EnvKafkaConsumerMinBytes, DefaultConsumerMinBytes),
			MaxBytes:          env.integer(EnvKafkaConsumerMaxBytes, DefaultConsumerMaxBytes),
			MaxWait:           env.duration(EnvKafkaConsumerMaxWait, DefaultConsumerMaxWait),
			CommitInterval:    env.duration(EnvKafkaConsumerCommitInterval, DefaultConsumerCommitInterval),
			HeartbeatInterval: env.duration(EnvKafkaConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval),
			SessionTimeout:    env.duration(EnvKafkaConsumerSessionTimeout, DefaultConsumerSessionTimeout),
			RebalanceTimeout:  env.duration(EnvKafkaConsumerRebalanceTimeout, DefaultConsumerRebalanceTimeout),
			MaxRetries:        env.integer(EnvKafkaConsumerMaxRetries, DefaultConsumerMaxRetries),
			RetryBackoff:      env.duration(EnvKafkaConsumerRetryBackoff, DefaultConsumerRetryBackoff),
		},
		EnableMiddleware: env.boolean(EnvKafkaEnableMiddleware, DefaultEnableMiddleware),
	}
}

// Validate reports every invalid setting at once.
func (cfg *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(len(cfg.Brokers) > 0, "at least one broker is required")
	check(cfg.ClientID != "", "client id cannot be empty")

	p := cfg.Producer
	check(p.MaxAttempts > 0, "producer max attempts must be positive, got %d", p.MaxAttempts)
	check(p.BatchTimeout > 0, "producer batch timeout must be positive, got %s", p.BatchTimeout)
	check(p.RequireAcks >= -1 && p.RequireAcks <= 1, "producer require acks must be -1, 0 or 1, got %d", p.RequireAcks)
	check(slices.Contains(Compressions, p.Compression), "producer compression must be one of %v, got %q", Compressions, p.Compression)

	c := cfg.Consumer
	check(c.StartOffset >= -2, "consumer start offset must be -1, -2 or a real offset, got %d", c.StartOffset)
	check(c.MinBytes > 0 && c.MaxBytes >= c.MinBytes, "consumer byte bounds are invalid: min %d, max %d", c.MinBytes, c.MaxBytes)
	check(c.MaxWait > 0, "consumer max wait must be positive, got %s", c.MaxWait)
	check(c.CommitInterval >= 0, "consumer commit interval cannot be negative, got %s", c.CommitInterval)
	check(c.HeartbeatInterval > 0 && c.HeartbeatInterval < c.SessionTimeout,
		"consumer heartbeat interval must be positive and shorter than the session timeout, got %s / %s", c.HeartbeatInterval, c.SessionTimeout)
	check(c.RebalanceTimeout > 0, "consumer rebalance timeout must be positive, got %s", c.RebalanceTimeout)
	check(c.MaxRetries >= 0, "consumer max retries cannot be negative, got %d", c.MaxRetries)
	check(c.RetryBackoff >= 0, "consumer retry backoff cannot be negative, got %s", c.RetryBackoff)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded",
		"brokers", cfg.Brokers,
		"client_id", cfg.ClientID,
		"producer_max_attempts", cfg.Producer.MaxAttempts,
		"producer_batch_timeout", cfg.Producer.BatchTimeout,
		"producer_require_acks", cfg.Producer.RequireAcks,
		"producer_compression", cfg.Producer.Compression,
		"producer_async", cfg.Producer.Async,
		"consumer_start_offset", cfg.Consumer.StartOffset,
		"consumer_max_wait", cfg.Consumer.MaxWait,
		"consumer_commit_interval", cfg.Consumer.CommitInterval,
		"consumer_session_timeout", cfg.Consumer.SessionTimeout,
		"consumer_max_retries", cfg.Consumer.MaxRetries,
		"consumer_retry_backoff", cfg.Consumer.RetryBackoff,
		"enable_middleware", cfg.EnableMiddleware,
	)
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, broker := range strings.Split(raw, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

type envReader struct {
	lookup func(string) (string, bool)
}

func (e envReader) str(key, def string) string {
	if value, ok := e.lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return def
}

func (e envReader) integer(key string, def int) int {
	if n, err := strconv.Atoi(e.str(key, "")); err == nil {
		return n
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	if b, err := strconv.ParseBool(e.str(key, "")); err == nil {
		return b
	}
	return def
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(e.str(key, "")); err == nil {
		return d
	}
	return def
}
