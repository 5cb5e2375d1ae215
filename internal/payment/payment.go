// Package payment adapts external payment processors to the intent call the checkout needs.
package payment

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"mobileplanet/internal/config"
)

// Intent is what the client needs to confirm a payment with the processor.
type Intent struct {
	ID           string
	ClientSecret string
}

type Processor interface {
	// CreateIntent asks the processor for a payment of amount minor units. A non-empty
	// idempotencyKey is forwarded so a retried request does not create a second intent.
	CreateIntent(ctx context.Context, amount int64, currency, idempotencyKey string) (Intent, error)
	Name() string
}

// MinorUnits converts a decimal price to the processor's smallest currency unit.
func MinorUnits(price float64) (int64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, errors.Errorf("payment: invalid amount %v", price)
	}
	return int64(math.Round(price * 100)), nil
}

// New builds the processor selected by PAYMENT_PROVIDER.
func New(cfg config.Config) (Processor, error) {
	switch cfg.PaymentProvider {
	case config.ProviderStripe:
		return NewStripe(cfg.StripeSecretKey), nil
	case config.ProviderOmise:
		return NewOmise(cfg.OmisePublicKey, cfg.OmiseSecretKey)
	default:
		return nil, errors.Errorf("payment: unknown provider %q", cfg.PaymentProvider)
	}
}
