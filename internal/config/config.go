package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Server   ServerConfig
	Storage  string
	Postgres PostgresConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
	Auth     AuthConfig
	Ledger   LedgerConfig
	Booking  BookingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
	MaxConns int32
}

// DSN renders the connection string understood by pgx.
func (c PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// AMQPConfig is optional; an empty URL disables the publisher.
type AMQPConfig struct {
	URL      string
	Exchange string
}

type AuthConfig struct {
	Secret string
	Issuer string
}

type LedgerConfig struct {
	ExistentialDeposit uint64
}

type BookingConfig struct {
	CreateRateLimit  int
	CreateRateWindow time.Duration
	IdempotencyTTL   time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: stringEnv("SERVER_HOST", "localhost"),
		Port: serverPort,
	}

	storage := stringEnv("STORAGE_DRIVER", StoragePostgres)
	if storage != StoragePostgres && storage != StorageMemory {
		return nil, fmt.Errorf("%s: invalid STORAGE_DRIVER %q", op, storage)
	}

	var postgresCfg PostgresConfig
	if storage == StoragePostgres {
		postgresCfg, err = postgresFromEnv()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	redisEnabled, err := boolEnv("REDIS_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Enabled:  redisEnabled,
		Addr:     stringEnv("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	amqpCfg := AMQPConfig{
		URL:      os.Getenv("AMQP_URL"),
		Exchange: stringEnv("AMQP_EXCHANGE", "stayledger.bookings"),
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("%s: missing JWT_SECRET", op)
	}

	authCfg := AuthConfig{
		Secret: jwtSecret,
		Issuer: stringEnv("JWT_ISSUER", "stayledger"),
	}

	ed, err := uintEnv("EXISTENTIAL_DEPOSIT", 1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rateLimit, err := intEnv("CREATE_RATE_LIMIT", 10)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rateWindow, err := durationEnv("CREATE_RATE_WINDOW", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	idemTTL, err := durationEnv("IDEMPOTENCY_TTL", 2*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Config{
		Server:   serverCfg,
		Storage:  storage,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		AMQP:     amqpCfg,
		Auth:     authCfg,
		Ledger:   LedgerConfig{ExistentialDeposit: ed},
		Booking: BookingConfig{
			CreateRateLimit:  rateLimit,
			CreateRateWindow: rateWindow,
			IdempotencyTTL:   idemTTL,
		},
	}, nil
}

func postgresFromEnv() (PostgresConfig, error) {
	port, err := intEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return PostgresConfig{}, err
	}

	maxConns, err := intEnv("POSTGRES_MAX_CONNS", 0)
	if err != nil {
		return PostgresConfig{}, err
	}

	cfg := PostgresConfig{
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Name:     os.Getenv("POSTGRES_DB"),
		Host:     stringEnv("POSTGRES_HOST", "localhost"),
		Port:     port,
		SSLMode:  stringEnv("POSTGRES_SSLMODE", "disable"),
		MaxConns: int32(maxConns),
	}

	switch {
	case cfg.User == "":
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_USER")
	case cfg.Password == "":
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_PASSWORD")
	case cfg.Name == "":
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_DB")
	}

	return cfg, nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func uintEnv(key string, def uint64) (uint64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func boolEnv(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}
