package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
)

// StripeAdapter reads the status of a card payment from its PaymentIntent.
// The transaction id of a card payment is the PaymentIntent id.
type StripeAdapter struct {
	client *paymentintent.Client
}

// NewStripeAdapter creates an adapter using the given secret key.
func NewStripeAdapter(secretKey string) *StripeAdapter {
	return NewStripeAdapterWithBackend(secretKey, stripe.GetBackend(stripe.APIBackend))
}

// NewStripeAdapterWithBackend creates an adapter that talks to a specific backend.
func NewStripeAdapterWithBackend(secretKey string, backend stripe.Backend) *StripeAdapter {
	return &StripeAdapter{
		client: &paymentintent.Client{B: backend, Key: secretKey},
	}
}

// Name returns "stripe".
func (a *StripeAdapter) Name() string {
	return "stripe"
}

// QueryStatus returns the PaymentIntent status, e.g. "succeeded".
func (a *StripeAdapter) QueryStatus(ctx context.Context, tranID string) (Status, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := a.client.Get(tranID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return "", ErrUnknownTransaction
		}
		return "", err
	}
	return Status(pi.Status), nil
}
