package main

import (
	"time"

	"github.com/legacyvault/billing/pkg/httpserver"
	"github.com/legacyvault/billing/pkg/mongo"
	"github.com/legacyvault/billing/pkg/redis"
	"github.com/legacyvault/billing/pkg/subscription"
)

// Config is the complete service configuration, read from the environment
// (and ./.env in development) once at startup.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	AppName  string `env:"APP_NAME" envDefault:"legacy-billing"`
	LogLevel string `env:"LOG_LEVEL"`

	// ClientURL is the web client base used for checkout redirects.
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:3000"`

	JWTSecret          string        `env:"JWT_SECRET,required"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	WebhookEventTTL    time.Duration `env:"WEBHOOK_EVENT_TTL" envDefault:"72h"`
	ReadinessTimeout   time.Duration `env:"READINESS_TIMEOUT" envDefault:"2s"`

	HTTP   httpserver.Config
	Mongo  mongo.Config
	Redis  redis.Config
	Stripe subscription.StripeConfig
}
