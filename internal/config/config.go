package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort       string `env:"HTTP_PORT" envDefault:"8080"`
	AppBaseURL     string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	DatabaseURL    string `env:"DATABASE_URL,required"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	// LLMAPIKey vacio activa el generador de explicaciones por plantilla.
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMAPIKey   string `env:"LLM_API_KEY"`
	LLMBaseURL  string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel    string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`

	VPICBaseURL        string `env:"VPIC_BASE_URL" envDefault:"https://vpic.nhtsa.dot.gov/api"`
	VPICTimeoutSeconds int    `env:"VPIC_TIMEOUT_SECONDS" envDefault:"10"`
	VINCacheTTLHours   int    `env:"VIN_CACHE_TTL_HOURS" envDefault:"720"`

	DecodeRateLimitPerMinute int `env:"DECODE_RATE_LIMIT_PER_MINUTE" envDefault:"30"`

	ReferenceCacheVersion  string `env:"REFERENCE_CACHE_VERSION" envDefault:"v1"`
	ReferenceCacheTTLHours int    `env:"REFERENCE_CACHE_TTL_HOURS" envDefault:"24"`

	ValuationBasePrice float64 `env:"VALUATION_BASE_PRICE" envDefault:"15000"`

	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	ResendAPIKey  string `env:"RESEND_API_KEY"`
	EmailFrom     string `env:"EMAIL_FROM" envDefault:"valuations@autovalue.app"`
	EmailFromName string `env:"EMAIL_FROM_NAME" envDefault:"AutoValue"`
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser      string `env:"SMTP_USER"`
	SMTPPass      string `env:"SMTP_PASS"`
	SMTPUseTLS    bool   `env:"SMTP_USE_TLS" envDefault:"false"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
