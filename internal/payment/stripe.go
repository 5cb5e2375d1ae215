package payment

import (
	"context"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type Stripe struct {
	api *client.API
}

func NewStripe(secretKey string) *Stripe {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Stripe{api: sc}
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) CreateIntent(ctx context.Context, amount int64, currency, idempotencyKey string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, errors.Wrap(err, "stripe: create payment intent")
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
