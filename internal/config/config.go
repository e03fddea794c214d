package config

import "time"

type Config struct {
	Environment Environment
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Static bearer token expected on API calls. Empty disables the check.
	APIToken string `env:"API_TOKEN"`

	SeedProducts bool `env:"SEED_PRODUCTS" envDefault:"false"`

	Erp    Erp    `envPrefix:"ERP_"`
	Outbox Outbox `envPrefix:"OUTBOX_"`
}

// Erp holds the address and credentials of the upstream inventory system.
// Services receive this struct at construction and never read the environment
// themselves.
type Erp struct {
	BaseURL string `env:"BASE_URL"`
	APIKey  string `env:"API_KEY"`
}

type Outbox struct {
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	BatchSize    int           `env:"BATCH_SIZE" envDefault:"10"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8001"`
}

// Terminal configures the POS terminal sync agent.
type Terminal struct {
	APIBaseURL string `env:"POS_API_URL" envDefault:"http://localhost:8001"`
	APIToken   string `env:"POS_API_TOKEN"`
	LocalDB    string `env:"POS_LOCAL_DB" envDefault:"pos.db"`

	ProbeURL      string        `env:"POS_PROBE_URL"`
	ProbeInterval time.Duration `env:"POS_PROBE_INTERVAL" envDefault:"10s"`
}
