package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Database DatabaseConfig
	Seed     SeedConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port            string
	BasePath        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
	QRKey      string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

type KafkaConfig struct {
	Brokers  []string
	GroupID  string
	Topics   TopicConfig
	MockMode bool
	Enabled  bool
}

type TopicConfig struct {
	ZoneUpdated      string
	AdminUpdated     string
	TicketCheckedIn  string
	TicketCheckedOut string
}

// All lists every topic in a stable order.
func (t TopicConfig) All() []string {
	return []string{t.ZoneUpdated, t.AdminUpdated, t.TicketCheckedIn, t.TicketCheckedOut}
}

type DatabaseConfig struct {
	Enabled      bool
	Driver       string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type SeedConfig struct {
	Path string
}

type LogConfig struct {
	Dir   string
	Level string
}

func Load() *Config {
	kafkaEnabled := getEnvBool("KAFKA_ENABLED", false)
	mockMode := getEnvBool("KAFKA_MOCK_MODE", false)

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", ":3000"),
			BasePath:        getEnv("API_BASE_PATH", "/api/v1"),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
			AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", "dev-parking-secret"),
			TokenTTL:   getEnvDuration("JWT_TTL", 12*time.Hour),
			BcryptCost: getEnvInt("BCRYPT_COST", 10),
			QRKey:      getEnv("QR_SECRET_KEY", "parking-qr-dev-key-32-bytes!!!!!"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Enabled:  getEnvBool("REDIS_ENABLED", false),
		},
		Kafka: KafkaConfig{
			Brokers:  getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			GroupID:  getEnv("KAFKA_GROUP_ID", "parking-audit-group"),
			Enabled:  kafkaEnabled,
			MockMode: mockMode,
			Topics: TopicConfig{
				ZoneUpdated:      getEnv("KAFKA_TOPIC_ZONE_UPDATED", "parking.zone.updated"),
				AdminUpdated:     getEnv("KAFKA_TOPIC_ADMIN_UPDATED", "parking.admin.updated"),
				TicketCheckedIn:  getEnv("KAFKA_TOPIC_CHECKED_IN", "parking.ticket.checked-in"),
				TicketCheckedOut: getEnv("KAFKA_TOPIC_CHECKED_OUT", "parking.ticket.checked-out"),
			},
		},
		Database: DatabaseConfig{
			Enabled:      getEnvBool("DB_ENABLED", true),
			Driver:       getEnv("DB_DRIVER", "sqlite"),
			DSN:          getEnv("DB_DSN", "file:parking.db?cache=shared"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Seed: SeedConfig{
			Path: getEnv("SEED_PATH", "seed.json"),
		},
		Log: LogConfig{
			Dir:   getEnv("LOG_DIR", "logs"),
			Level: getEnv("LOG_LEVEL", "info"),
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
