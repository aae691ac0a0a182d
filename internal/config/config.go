package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	QR       QRConfig
	Scanner  ScannerConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	// Driver is "sqlite" for single-node deployments or "postgres" for
	// shared ones.
	Driver       string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers  []string
	GroupID  string
	Topics   TopicConfig
	MockMode bool
	Enabled  bool
}

type TopicConfig struct {
	TicketIssued   string
	TicketRedeemed string
}

type QRConfig struct {
	Size          int
	RecoveryLevel string // low, medium, high, highest
}

type ScannerConfig struct {
	// Store selects the consumed-set backend: memory, redis or db.
	Store string
	// EventEnd, when set (RFC 3339), makes the scan pipeline reject
	// tickets presented after the event has ended. Empty disables the
	// expiry check.
	EventEnd string
	// RequireAuth gates /checkin behind a bearer token carrying the
	// operator's identity.
	RequireAuth bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "sqlite"),
			DSN:          getEnv("DB_DSN", "file:evoke.db?cache=shared"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers:  []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			GroupID:  getEnv("KAFKA_GROUP_ID", "evoke-ticketing-group"),
			Enabled:  getEnvBool("KAFKA_ENABLED", true),
			MockMode: getEnvBool("KAFKA_MOCK_MODE", false),
			Topics: TopicConfig{
				TicketIssued:   getEnv("KAFKA_TOPIC_TICKET_ISSUED", "ticket-issued"),
				TicketRedeemed: getEnv("KAFKA_TOPIC_TICKET_REDEEMED", "ticket-redeemed"),
			},
		},
		QR: QRConfig{
			Size:          getEnvInt("QR_SIZE", 256),
			RecoveryLevel: getEnv("QR_RECOVERY_LEVEL", "medium"),
		},
		Scanner: ScannerConfig{
			Store:       getEnv("GUARD_STORE", "memory"),
			EventEnd:    getEnv("EVENT_END_TIME", ""),
			RequireAuth: getEnvBool("SCANNER_REQUIRE_AUTH", true),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
