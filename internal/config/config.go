package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"

	ProviderStripe = "stripe"
	ProviderOmise  = "omise"
)

type Config struct {
	Port string `envconfig:"PORT" default:"5000"`

	StoreDriver   string `envconfig:"STORE_DRIVER" default:"sqlite"`
	DBDSN         string `envconfig:"DB_DSN" default:"mobileplanet.db"`
	MongoURI      string `envconfig:"MONGO_URI"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"mobilePlanet"`

	TokenSecret string        `envconfig:"ACCESS_TOKEN_SECRET" required:"true"`
	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"1h"`

	PaymentProvider string `envconfig:"PAYMENT_PROVIDER" default:"stripe"`
	PaymentCurrency string `envconfig:"PAYMENT_CURRENCY" default:"usd"`
	StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY"`
	OmisePublicKey  string `envconfig:"OMISE_PUBLIC_KEY"`
	OmiseSecretKey  string `envconfig:"OMISE_SECRET_KEY"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"marketplace.events"`

	AdminEmail  string `envconfig:"ADMIN_EMAIL"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`
	BodyLimit   int    `envconfig:"BODY_LIMIT" default:"1048576"`

	RateLimit      int           `envconfig:"RATE_LIMIT" default:"120"`
	RateWindow     time.Duration `envconfig:"RATE_WINDOW" default:"1m"`
	TokenRateLimit int           `envconfig:"TOKEN_RATE_LIMIT" default:"20"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`

	SettlementRetryInterval time.Duration `envconfig:"SETTLEMENT_RETRY_INTERVAL" default:"1m"`
}

// Load reads an optional .env file (ENV_FILE overrides the path) and then the process environment.
func Load() (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrapf(err, "load %s", envFile)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "process env")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	log.Printf("[config] PORT=%s STORE_DRIVER=%s PAYMENT_PROVIDER=%s TOKEN_TTL=%s AMQP=%t",
		cfg.Port, cfg.StoreDriver, cfg.PaymentProvider, cfg.TokenTTL, cfg.AMQPURL != "")
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite:
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required for the sqlite store")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo store")
		}
	default:
		return errors.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.PaymentProvider {
	case ProviderStripe:
		if c.StripeSecretKey == "" {
			return errors.New("STRIPE_SECRET_KEY is required for the stripe provider")
		}
	case ProviderOmise:
		if c.OmisePublicKey == "" || c.OmiseSecretKey == "" {
			return errors.New("OMISE_PUBLIC_KEY and OMISE_SECRET_KEY are required for the omise provider")
		}
		// PromptPay sources settle in baht only
		if !strings.EqualFold(c.PaymentCurrency, "thb") {
			return errors.Errorf("PAYMENT_CURRENCY must be thb for the omise provider, got %q", c.PaymentCurrency)
		}
	default:
		return errors.Errorf("unknown PAYMENT_PROVIDER %q", c.PaymentProvider)
	}

	if c.TokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET is required")
	}
	if c.TokenTTL < 0 {
		return errors.New("TOKEN_TTL must not be negative")
	}
	if c.RateLimit <= 0 || c.TokenRateLimit <= 0 || c.RateWindow <= 0 {
		return errors.New("RATE_LIMIT, TOKEN_RATE_LIMIT and RATE_WINDOW must be positive")
	}
	if c.SettlementRetryInterval <= 0 {
		return errors.New("SETTLEMENT_RETRY_INTERVAL must be positive")
	}
	return nil
}
