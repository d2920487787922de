package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	authConfig "github.com/iurnickita/clarsix/internal/auth/config"
	eventsConfig "github.com/iurnickita/clarsix/internal/events/config"
	handlerConfig "github.com/iurnickita/clarsix/internal/handler/config"
	loggerConfig "github.com/iurnickita/clarsix/internal/logger/config"
	serviceConfig "github.com/iurnickita/clarsix/internal/service/config"
	storeConfig "github.com/iurnickita/clarsix/internal/store/config"
)

type Config struct {
	Handler handlerConfig.Config
	Auth    authConfig.Config
	Service serviceConfig.Config
	Store   storeConfig.Config
	Events  eventsConfig.Config
	Logger  loggerConfig.Config
}

// GetConfig собирает конфигурацию: переменные окружения важнее флагов,
// флаги важнее значений по умолчанию. Файл .env подхватывается, если есть.
func GetConfig() (Config, error) {
	_ = godotenv.Load()
	return parse(os.Args[0], os.Args[1:], os.Getenv)
}

func parse(name string, args []string, getenv func(string) string) (Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	serverAddr := fs.String("a", ":8080", "server address")
	apiAddr := fs.String("r", "http://0.0.0.0:8000", "remote API address")
	apiTimeout := fs.Duration("t", 10*time.Second, "remote API timeout")
	dbDsn := fs.String("d", "", "PostgreSQL DSN for sessions")
	redisAddr := fs.String("redis", "", "Redis address for sessions")
	sessionTTL := fs.Duration("session-ttl", 24*time.Hour, "session lifetime")
	kafkaBrokers := fs.String("kafka", "", "comma separated Kafka brokers")
	kafkaTopic := fs.String("kafka-topic", "order-transitions", "Kafka topic for order transitions")
	logLevel := fs.String("l", "info", "log level")
	cookieSecure := fs.Bool("cookie-secure", false, "set Secure on the session cookie")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// переменные окружения
	env := func(key string, dst *string) {
		if value := getenv(key); value != "" {
			*dst = value
		}
	}
	env("RUN_ADDRESS", serverAddr)
	env("API_ADDRESS", apiAddr)
	env("DATABASE_URI", dbDsn)
	env("REDIS_ADDRESS", redisAddr)
	env("KAFKA_BROKERS", kafkaBrokers)
	env("KAFKA_TOPIC", kafkaTopic)
	env("LOG_LEVEL", logLevel)

	var err error
	if value := getenv("API_TIMEOUT"); value != "" {
		if *apiTimeout, err = time.ParseDuration(value); err != nil {
			return Config{}, fmt.Errorf("API_TIMEOUT: %w", err)
		}
	}
	if value := getenv("SESSION_TTL"); value != "" {
		if *sessionTTL, err = time.ParseDuration(value); err != nil {
			return Config{}, fmt.Errorf("SESSION_TTL: %w", err)
		}
	}
	if value := getenv("COOKIE_SECURE"); value != "" {
		if *cookieSecure, err = strconv.ParseBool(value); err != nil {
			return Config{}, fmt.Errorf("COOKIE_SECURE: %w", err)
		}
	}

	return Config{
		Handler: handlerConfig.Config{ServerAddr: *serverAddr},
		Auth: authConfig.Config{
			CookieSecure: *cookieSecure,
			CookieMaxAge: *sessionTTL,
		},
		Service: serviceConfig.Config{
			APIAddr:    strings.TrimRight(*apiAddr, "/"),
			APITimeout: *apiTimeout,
		},
		Store: storeConfig.Config{
			DBDsn:      *dbDsn,
			RedisAddr:  *redisAddr,
			SessionTTL: *sessionTTL,
		},
		Events: eventsConfig.Config{
			KafkaBrokers: splitList(*kafkaBrokers),
			KafkaTopic:   *kafkaTopic,
		},
		Logger: loggerConfig.Config{LogLevel: *logLevel},
	}, nil
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
