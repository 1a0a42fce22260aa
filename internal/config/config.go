package config

import (
	"errors"
	"strings"

	"github.com/caarlos0/env/v10"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"5000"`
	DatabaseURL string `env:"DATABASE_URL"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"10080"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	AllowedOrigins   []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	WSSendRate       float64  `env:"WS_SEND_RATE" envDefault:"10"`
	WSSendBurst      int      `env:"WS_SEND_BURST" envDefault:"20"`
	WSOutboundBuffer int      `env:"WS_OUTBOUND_BUFFER" envDefault:"64"`

	LoginAttemptsPerWindow   int `env:"LOGIN_ATTEMPTS_PER_WINDOW" envDefault:"5"`
	LoginIPAttemptsPerWindow int `env:"LOGIN_IP_ATTEMPTS_PER_WINDOW" envDefault:"20"`
	LoginWindowMinutes       int `env:"LOGIN_WINDOW_MINUTES" envDefault:"10"`

	DisplayNameCacheTTLSeconds int `env:"DISPLAY_NAME_CACHE_TTL_SECONDS" envDefault:"300"`
	ShutdownTimeoutSeconds     int `env:"SHUTDOWN_TIMEOUT_SECONDS" envDefault:"10"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case StoreDriverMemory:
	default:
		return errors.New("STORE_DRIVER must be postgres or memory")
	}
	if c.WSOutboundBuffer <= 0 {
		c.WSOutboundBuffer = 64
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		c.ShutdownTimeoutSeconds = 10
	}
	return nil
}
