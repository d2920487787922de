package config

import "time"

type Config struct {
	DBDsn      string
	RedisAddr  string
	SessionTTL time.Duration
}
