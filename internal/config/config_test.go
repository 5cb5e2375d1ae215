package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test; t.Setenv restores them afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

var configKeys = []string{
	"PORT", "STORE_DRIVER", "DB_DSN", "TOKEN_TTL", "PAYMENT_PROVIDER", "PAYMENT_CURRENCY",
	"ACCESS_TOKEN_SECRET", "STRIPE_SECRET_KEY", "SETTLEMENT_RETRY_INTERVAL", "BODY_LIMIT",
	"RATE_LIMIT", "RATE_WINDOW", "TOKEN_RATE_LIMIT",
}

func setBaseEnv(t *testing.T) {
	t.Helper()
	unsetEnv(t, configKeys...)
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("ACCESS_TOKEN_SECRET", "s3cret")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, ProviderStripe, cfg.PaymentProvider)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, "usd", cfg.PaymentCurrency)
	assert.Equal(t, time.Minute, cfg.SettlementRetryInterval)
	assert.Equal(t, 120, cfg.RateLimit)
	assert.Equal(t, 20, cfg.TokenRateLimit)
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("ACCESS_TOKEN_SECRET=from-file\nSTRIPE_SECRET_KEY=sk\nTOKEN_TTL=0s\nPORT=9090\n"), 0o600))
	unsetEnv(t, configKeys...)
	t.Setenv("ENV_FILE", envFile)
	// process env wins over the file
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.TokenSecret)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, time.Duration(0), cfg.TokenTTL)
}

func TestLoadRequiresSecret(t *testing.T) {
	unsetEnv(t, configKeys...)
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		StoreDriver:             DriverSQLite,
		DBDSN:                   "x.db",
		TokenSecret:             "s",
		TokenTTL:                time.Hour,
		PaymentProvider:         ProviderStripe,
		StripeSecretKey:         "sk",
		SettlementRetryInterval: time.Minute,
		RateLimit:               10,
		RateWindow:              time.Minute,
		TokenRateLimit:          5,
	}
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"unknown driver":      func(c *Config) { c.StoreDriver = "redis" },
		"mongo without uri":   func(c *Config) { c.StoreDriver = DriverMongo },
		"omise without keys":  func(c *Config) { c.PaymentProvider = ProviderOmise },
		"omise without baht":  func(c *Config) { c.PaymentProvider, c.OmisePublicKey, c.OmiseSecretKey = ProviderOmise, "pk", "sk" },
		"unknown provider":    func(c *Config) { c.PaymentProvider = "paypal" },
		"negative ttl":        func(c *Config) { c.TokenTTL = -time.Second },
		"zero retry interval": func(c *Config) { c.SettlementRetryInterval = 0 },
		"zero rate limit":     func(c *Config) { c.RateLimit = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	omise := base
	omise.PaymentProvider, omise.OmisePublicKey, omise.OmiseSecretKey = ProviderOmise, "pk", "sk"
	omise.PaymentCurrency = "THB"
	assert.NoError(t, omise.Validate())
}
