package config

import "time"

type Config struct {
	CookieSecure bool
	CookieMaxAge time.Duration
}
