package payment

import (
	"context"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"github.com/pkg/errors"
)

// Omise creates PromptPay sources; the source id is what the client confirms against.
type Omise struct {
	client *omise.Client
}

func NewOmise(publicKey, secretKey string) (*Omise, error) {
	c, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, errors.Wrap(err, "omise: new client")
	}
	c.SetDebug(false)
	return &Omise{client: c}, nil
}

func (o *Omise) Name() string { return "omise" }

// CreateIntent ignores idempotencyKey; the Omise client has no per-request key.
func (o *Omise) CreateIntent(ctx context.Context, amount int64, currency, _ string) (Intent, error) {
	if err := ctx.Err(); err != nil {
		return Intent{}, err
	}
	src := &omise.Source{}
	err := o.client.Do(src, &operations.CreateSource{
		Type:     "promptpay",
		Amount:   amount,
		Currency: currency,
	})
	if err != nil {
		return Intent{}, errors.Wrap(err, "omise: create source")
	}
	return Intent{ID: src.ID, ClientSecret: src.ID}, nil
}
