// Package billing keeps the payment provider's customer record in step with
// the study group profile.
package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// Fields are the customer attributes mirrored from the study group. Empty
// fields are left unchanged at the provider.
type Fields struct {
	Name  string
	Email string
}

// Provider updates customers at the payment provider.
type Provider interface {
	UpdateCustomer(ctx context.Context, customerID string, f Fields) error
}

// Stripe is a Provider backed by the Stripe customers API.
type Stripe struct {
	api *client.API
	log *zap.Logger
}

// NewStripe returns a Stripe provider using secretKey.
func NewStripe(secretKey string, logger *zap.Logger) *Stripe {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Stripe{api: api, log: logger}
}

func (s *Stripe) UpdateCustomer(ctx context.Context, customerID string, f Fields) error {
	if customerID == "" {
		return fmt.Errorf("billing: empty customer id")
	}
	params := &stripe.CustomerParams{}
	params.Context = ctx
	if f.Name != "" {
		params.Name = stripe.String(f.Name)
	}
	if f.Email != "" {
		params.Email = stripe.String(f.Email)
	}

	if _, err := s.api.Customers.Update(customerID, params); err != nil {
		return fmt.Errorf("billing: update customer %s: %w", customerID, err)
	}
	s.log.Info("billing customer updated", zap.String("customer_id", customerID))
	return nil
}

// Noop is used when no payment provider is configured.
type Noop struct{}

func (Noop) UpdateCustomer(context.Context, string, Fields) error { return nil }
