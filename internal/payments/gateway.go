package payments

import "context"

// Gateway defines the common interface for all payment providers. Provider
// failures come back as a failure-status Result; only *PaymentError values
// are returned as errors.
type Gateway interface {
	Pay(ctx context.Context, params PaymentParams) (*Result, error)
	Verify(ctx context.Context, params VerifyParams) (*Result, error)
	Refund(ctx context.Context, params RefundParams) (*Result, error)
}

// Subscriber is implemented by gateways that support recurring billing.
type Subscriber interface {
	Subscribe(ctx context.Context, params SubscriptionParams) (*SubscriptionResult, error)
}

// InvoiceCreator is implemented by gateways that support invoicing.
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, params InvoiceParams) (*InvoiceResult, error)
}

// WalletOperator is implemented by gateways that support wallet operations.
type WalletOperator interface {
	Wallet(ctx context.Context, params WalletParams) (*WalletResult, error)
}

// Capabilities records which optional operations a gateway supports. It is
// computed once when the gateway is registered so dispatch never has to
// type-assert per call.
type Capabilities struct {
	Subscribe     bool
	CreateInvoice bool
	Wallet        bool
}

func detectCapabilities(gw Gateway) Capabilities {
	_, canSubscribe := gw.(Subscriber)
	_, canInvoice := gw.(InvoiceCreator)
	_, canWallet := gw.(WalletOperator)
	return Capabilities{
		Subscribe:     canSubscribe,
		CreateInvoice: canInvoice,
		Wallet:        canWallet,
	}
}
