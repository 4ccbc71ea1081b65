package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	APIServerURL      string        `env:"API_SERVER_URL" envDefault:"http://localhost:8000"`
	SocketURL         string        `env:"SOCKET_URL" envDefault:"ws://localhost:8000/ws"`
	UIPort            string        `env:"UI_PORT" envDefault:"8080"`
	Environment       string        `env:"ENVIRONMENT" envDefault:"development"`
	LocalDBPath       string        `env:"LOCAL_DB_PATH" envDefault:"dongnezip.db"`
	ChatPageSize      int           `env:"CHAT_PAGE_SIZE" envDefault:"30"`
	HTTPTimeout       time.Duration `env:"HTTP_TIMEOUT" envDefault:"0s"` // 0 disables the client timeout
	SendRatePerMinute int           `env:"SEND_RATE_PER_MINUTE" envDefault:"20"`
}

func Load() (*Config, error) {
	// A missing .env is fine; the process environment still applies.
	godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.ChatPageSize <= 0 {
		cfg.ChatPageSize = 30
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
