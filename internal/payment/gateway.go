package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Intent is the part of a gateway payment intent the service looks at.
type Intent struct {
	ID         string
	CustomerID string
	Status     string
}

type Gateway interface {
	CreateCustomer(ctx context.Context, userID uuid.UUID) (string, error)
	CreateEphemeralKey(ctx context.Context, customerID string) (string, error)
	// CreatePaymentIntent returns the intent's client secret.
	CreatePaymentIntent(ctx context.Context, customerID string, amount int64, currency string) (string, error)
	GetPaymentIntent(ctx context.Context, id string) (Intent, error)
}

type StripeGateway struct {
	api *client.API
	cb  *gobreaker.CircuitBreaker[any]
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{
		api: client.New(secretKey, nil),
		cb:  newBreaker(),
	}
}

func newBreaker() *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: healthyResponse,
	})
}

// healthyResponse treats stripe client errors (4xx) as a working upstream.
func healthyResponse(err error) bool {
	if err == nil {
		return true
	}
	var se *stripe.Error
	return errors.As(err, &se) && se.HTTPStatusCode > 0 && se.HTTPStatusCode < 500
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, userID uuid.UUID) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	params.AddMetadata("uid", userID.String())

	res, err := g.cb.Execute(func() (any, error) {
		return g.api.Customers.New(params)
	})
	if err != nil {
		return "", err
	}
	return res.(*stripe.Customer).ID, nil
}

func (g *StripeGateway) CreateEphemeralKey(ctx context.Context, customerID string) (string, error) {
	params := &stripe.EphemeralKeyParams{
		Customer:      stripe.String(customerID),
		StripeVersion: stripe.String(stripe.APIVersion),
	}
	params.Context = ctx

	res, err := g.cb.Execute(func() (any, error) {
		return g.api.EphemeralKeys.New(params)
	})
	if err != nil {
		return "", err
	}
	return res.(*stripe.EphemeralKey).Secret, nil
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, customerID string, amount int64, currency string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		Customer: stripe.String(customerID),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	res, err := g.cb.Execute(func() (any, error) {
		return g.api.PaymentIntents.New(params)
	})
	if err != nil {
		return "", err
	}
	return res.(*stripe.PaymentIntent).ClientSecret, nil
}

func (g *StripeGateway) GetPaymentIntent(ctx context.Context, id string) (Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	res, err := g.cb.Execute(func() (any, error) {
		return g.api.PaymentIntents.Get(id, params)
	})
	if err != nil {
		return Intent{}, err
	}

	pi := res.(*stripe.PaymentIntent)
	out := Intent{ID: pi.ID, Status: string(pi.Status)}
	if pi.Customer != nil {
		out.CustomerID = pi.Customer.ID
	}
	return out, nil
}
