package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	TelegramBot TelegramBot
	RefereeAPI  RefereeAPI
	SleeperAPI  SleeperAPI
	Storage     Storage
	Sessions    Sessions
	Scheduler   Scheduler
	Billing     Billing
	Server      Server
}

type TelegramBot struct {
	Token string `envconfig:"TELEGRAM_TOKEN" required:"true"`
}

type RefereeAPI struct {
	BaseURL           string        `envconfig:"REFEREE_API_BASE" default:"http://localhost:3000"`
	AssetsURL         string        `envconfig:"REFEREE_ASSETS_BASE"`
	RequestsPerSecond float64       `envconfig:"REFEREE_RPS" default:"5"`
	Timeout           time.Duration `envconfig:"REFEREE_TIMEOUT" default:"30s"`
}

type SleeperAPI struct {
	BaseURL string `envconfig:"SLEEPER_API_BASE" default:"https://api.sleeper.app/v1"`
}

type Storage struct {
	TokenDBPath string `envconfig:"TOKEN_DB_PATH" default:"tradereferee.db"`
}

type Sessions struct {
	IdleTTL time.Duration `envconfig:"SESSION_IDLE_TTL" default:"24h"`
}

type Scheduler struct {
	Timezone        string `envconfig:"SCHEDULER_TZ" default:"America/Chicago"`
	InjuryWatchHour uint   `envconfig:"INJURY_WATCH_HOUR" default:"9"`
}

type Billing struct {
	PaymentLink string `envconfig:"STRIPE_PAYMENT_LINK"`
}

type Server struct {
	HealthAddr string `envconfig:"HEALTH_ADDR" default:":80"`
}

func New() (*Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
