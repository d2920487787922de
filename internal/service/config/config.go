package config

import "time"

type Config struct {
	APIAddr    string
	APITimeout time.Duration
}
