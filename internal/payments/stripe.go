package payments

import (
	"context"
	"math"
	"strings"

	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

type StripeConfig struct {
	APIKey string
}

// StripeGateway wraps the official Stripe SDK. Following the Stripe error
// convention the adapter reports provider-side failures as failure-status
// results instead of errors, so a declined card never aborts dispatch.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(config StripeConfig) *StripeGateway {
	api := &client.API{}
	api.Init(config.APIKey, nil)
	return &StripeGateway{api: api}
}

func stripeFailure(err error, fallback string) *Result {
	message := fallback
	if err != nil {
		message = err.Error()
	}
	return &Result{
		Gateway: GatewayStripe,
		Status:  StatusFailure,
		Params:  map[string]any{"error": message},
		Message: message,
	}
}

// Pay creates a PaymentIntent. Stripe expects the smallest currency unit.
func (g *StripeGateway) Pay(ctx context.Context, params PaymentParams) (*Result, error) {
	piParams := &stripe.PaymentIntentParams{
		Params:             stripe.Params{Context: ctx},
		Amount:             stripe.Int64(int64(math.Round(params.Amount * 100))),
		Currency:           stripe.String(strings.ToLower(params.Currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	if email := params.Extra["email"]; email != "" {
		piParams.ReceiptEmail = stripe.String(email)
	}
	if desc := params.Extra["description"]; desc != "" {
		piParams.Description = stripe.String(desc)
	}

	pi, err := g.api.PaymentIntents.New(piParams)
	if err != nil {
		return stripeFailure(err, "stripe payment failed"), nil
	}

	return &Result{
		Gateway: GatewayStripe,
		Status:  StatusSuccess,
		Params:  map[string]any{"id": pi.ID, "status": string(pi.Status), "client_secret": pi.ClientSecret},
		Message: "stripe payment initiated",
	}, nil
}

func (g *StripeGateway) Verify(ctx context.Context, params VerifyParams) (*Result, error) {
	pi, err := g.api.PaymentIntents.Get(params.TransactionID, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return stripeFailure(err, "stripe verification failed"), nil
	}

	status := StatusFailure
	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		status = StatusSuccess
	}

	return &Result{
		Gateway: GatewayStripe,
		Status:  status,
		Params:  map[string]any{"id": pi.ID, "status": string(pi.Status)},
		Message: "stripe payment verification",
	}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, params RefundParams) (*Result, error) {
	refund, err := g.api.Refunds.New(&stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(params.TransactionID),
		Amount:        stripe.Int64(int64(math.Round(params.Amount * 100))),
	})
	if err != nil {
		return stripeFailure(err, "stripe refund failed"), nil
	}

	return &Result{
		Gateway: GatewayStripe,
		Status:  StatusSuccess,
		Params:  map[string]any{"id": refund.ID, "status": string(refund.Status)},
		Message: "stripe refund processed",
	}, nil
}

// Subscribe creates a subscription against an existing price.
func (g *StripeGateway) Subscribe(ctx context.Context, params SubscriptionParams) (*SubscriptionResult, error) {
	sub, err := g.api.Subscriptions.New(&stripe.SubscriptionParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(params.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(params.PlanID)},
		},
	})
	if err != nil {
		return &SubscriptionResult{
			Gateway: GatewayStripe,
			Status:  SubscriptionInactive,
			Params:  map[string]any{"error": err.Error()},
			Message: err.Error(),
		}, nil
	}

	status := SubscriptionInactive
	switch sub.Status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		status = SubscriptionActive
	case stripe.SubscriptionStatusCanceled:
		status = SubscriptionCancelled
	}

	return &SubscriptionResult{
		Gateway: GatewayStripe,
		Status:  status,
		Params:  map[string]any{"id": sub.ID, "status": string(sub.Status)},
		Message: "stripe subscription created",
	}, nil
}

func (g *StripeGateway) CreateInvoice(ctx context.Context, params InvoiceParams) (*InvoiceResult, error) {
	inv, err := g.api.Invoices.New(&stripe.InvoiceParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(params.CustomerID),
	})
	if err != nil {
		return &InvoiceResult{
			Gateway: GatewayStripe,
			Status:  InvoiceCancelled,
			Params:  map[string]any{"error": err.Error()},
			Message: err.Error(),
		}, nil
	}

	status := InvoiceCreated
	switch inv.Status {
	case stripe.InvoiceStatusPaid:
		status = InvoicePaid
	case stripe.InvoiceStatusVoid, stripe.InvoiceStatusUncollectible:
		status = InvoiceCancelled
	}

	return &InvoiceResult{
		Gateway: GatewayStripe,
		Status:  status,
		Params:  map[string]any{"id": inv.ID, "status": string(inv.Status)},
		Message: "stripe invoice created",
	}, nil
}

// Wallet reports unsupported as a failure-status result; Stripe has no
// wallet balance API comparable to the Nepali wallets.
func (g *StripeGateway) Wallet(ctx context.Context, params WalletParams) (*WalletResult, error) {
	return &WalletResult{
		Gateway: GatewayStripe,
		Status:  StatusFailure,
		Params:  map[string]any{},
		Message: "stripe does not support wallet operations",
	}, nil
}
