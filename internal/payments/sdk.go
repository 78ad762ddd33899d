package payments

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type Mode string

const (
	ModeSandbox    Mode = "sandbox"
	ModeProduction Mode = "production"
)

// Built-in gateway keys. Keys are case-sensitive and unique per registry.
const (
	GatewayEsewa         = "esewa"
	GatewayKhalti        = "khalti"
	GatewayConnectIPS    = "connectips"
	GatewayIMEPay        = "imepay"
	GatewayMobileBanking = "mobilebanking"
	GatewayStripe        = "stripe"
)

// Event names emitted once per successful dispatch.
const (
	EventPay           = "pay"
	EventVerify        = "verify"
	EventRefund        = "refund"
	EventSubscribe     = "subscribe"
	EventCreateInvoice = "createInvoice"
	EventWallet        = "wallet"
	EventWebhook       = "webhook"
)

// Config lists credentials for the built-in gateways plus already-built
// custom providers merged into the registry at construction. A nil gateway
// config means that gateway is simply not registered.
type Config struct {
	Mode          Mode
	Esewa         *EsewaConfig
	Khalti        *KhaltiConfig
	ConnectIPS    *ConnectIPSConfig
	IMEPay        *IMEPayConfig
	MobileBanking *MobileBankingConfig
	Stripe        *StripeConfig

	// CustomProviders lets application code plug in gateways the SDK does
	// not ship, keyed by whatever name callers will dispatch on.
	CustomProviders map[string]Gateway

	// Logger is optional; dispatch is silent without one.
	Logger *zap.SugaredLogger
}

type registryEntry struct {
	gateway Gateway
	caps    Capabilities
}

// SDK is the facade: it owns the gateway registry, validates requests,
// resolves the adapter, invokes it and emits one event per operation. The
// transaction store is deliberately not written to on dispatch; recording
// outcomes is an explicit caller action.
type SDK struct {
	mu       sync.RWMutex
	gateways map[string]registryEntry

	events       *EventBus
	transactions *TransactionStore
	logger       *zap.SugaredLogger
}

func New(cfg Config) *SDK {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	sdk := &SDK{
		gateways:     make(map[string]registryEntry),
		events:       NewEventBus(),
		transactions: NewTransactionStore(),
		logger:       logger,
	}

	production := cfg.Mode == ModeProduction

	if cfg.Esewa != nil {
		sdk.register(GatewayEsewa, NewEsewaGateway(*cfg.Esewa, production))
	}
	if cfg.Khalti != nil {
		sdk.register(GatewayKhalti, NewKhaltiGateway(*cfg.Khalti, production))
	}
	if cfg.ConnectIPS != nil {
		sdk.register(GatewayConnectIPS, NewConnectIPSGateway(*cfg.ConnectIPS, production))
	}
	if cfg.IMEPay != nil {
		sdk.register(GatewayIMEPay, NewIMEPayGateway(*cfg.IMEPay, production))
	}
	if cfg.MobileBanking != nil {
		sdk.register(GatewayMobileBanking, NewMobileBankingGateway(*cfg.MobileBanking))
	}
	if cfg.Stripe != nil {
		sdk.register(GatewayStripe, NewStripeGateway(*cfg.Stripe))
	}
	for key, gw := range cfg.CustomProviders {
		if gw == nil {
			continue
		}
		sdk.register(key, gw)
	}

	return sdk
}

func (s *SDK) register(key string, gw Gateway) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gateways[key] = registryEntry{gateway: gw, caps: detectCapabilities(gw)}
}

// RegisterProvider inserts or replaces the gateway registered under key.
// Re-registration silently replaces the prior entry. Capabilities are
// detected here, once, not probed per call.
func (s *SDK) RegisterProvider(key string, gw Gateway) error {
	if key == "" {
		return newValidationError(ErrCodeInvalidParams, "missing provider key")
	}
	if gw == nil {
		return newValidationError(ErrCodeInvalidParams, "nil gateway for provider "+key)
	}
	s.register(key, gw)
	s.logger.Infow("provider registered", "gateway", key)
	return nil
}

// Events exposes the notifier so callers can observe dispatch outcomes.
func (s *SDK) Events() *EventBus {
	return s.events
}

func (s *SDK) lookup(key string) (registryEntry, error) {
	s.mu.RLock()
	entry, ok := s.gateways[key]
	s.mu.RUnlock()
	if !ok {
		return registryEntry{}, newValidationError(ErrCodeGatewayNotConfigured,
			fmt.Sprintf("gateway not configured: %s", key))
	}
	return entry, nil
}

// Pay validates params, resolves the gateway and initiates a payment.
// Validation failures surface before any network call; the first violated
// precondition wins.
func (s *SDK) Pay(ctx context.Context, params PaymentParams) (*Result, error) {
	if params.Gateway == "" {
		return nil, newValidationError(ErrCodeMissingGateway, "missing gateway in payment parameters")
	}
	if params.Amount <= 0 {
		return nil, newValidationError(ErrCodeInvalidAmount, "invalid or missing amount")
	}
	if params.Currency == "" {
		return nil, newValidationError(ErrCodeMissingCurrency, "missing currency")
	}
	if params.ReturnURL == "" {
		return nil, newValidationError(ErrCodeMissingReturnURL, "missing return URL")
	}

	entry, err := s.lookup(params.Gateway)
	if err != nil {
		return nil, err
	}

	result, err := entry.gateway.Pay(ctx, params)
	if err != nil {
		return nil, wrapInternal(err)
	}

	s.logger.Infow("payment initiated", "gateway", params.Gateway, "amount", params.Amount, "status", result.Status)
	s.events.Emit(EventPay, Event{Operation: EventPay, Gateway: params.Gateway, Params: params, Result: result})
	return result, nil
}

// Verify checks the state of an existing transaction with the provider.
func (s *SDK) Verify(ctx context.Context, params VerifyParams) (*Result, error) {
	if params.Gateway == "" {
		return nil, newValidationError(ErrCodeMissingGateway, "missing gateway in verify parameters")
	}
	if params.TransactionID == "" {
		return nil, newValidationError(ErrCodeInvalidParams, "missing transaction id")
	}
	if params.Amount <= 0 {
		return nil, newValidationError(ErrCodeInvalidAmount, "invalid or missing amount")
	}

	entry, err := s.lookup(params.Gateway)
	if err != nil {
		return nil, err
	}

	result, err := entry.gateway.Verify(ctx, params)
	if err != nil {
		return nil, wrapInternal(err)
	}

	s.logger.Infow("payment verified", "gateway", params.Gateway, "transaction_id", params.TransactionID, "status", result.Status)
	s.events.Emit(EventVerify, Event{Operation: EventVerify, Gateway: params.Gateway, Params: params, Result: result})
	return result, nil
}

// Refund reverses an existing transaction with the provider.
func (s *SDK) Refund(ctx context.Context, params RefundParams) (*Result, error) {
	if params.Gateway == "" {
		return nil, newValidationError(ErrCodeMissingGateway, "missing gateway in refund parameters")
	}
	if params.TransactionID == "" {
		return nil, newValidationError(ErrCodeInvalidParams, "missing transaction id")
	}
	if params.Amount <= 0 {
		return nil, newValidationError(ErrCodeInvalidAmount, "invalid or missing amount")
	}

	entry, err := s.lookup(params.Gateway)
	if err != nil {
		return nil, err
	}

	result, err := entry.gateway.Refund(ctx, params)
	if err != nil {
		return nil, wrapInternal(err)
	}

	s.logger.Infow("payment refunded", "gateway", params.Gateway, "transaction_id", params.TransactionID, "status", result.Status)
	s.events.Emit(EventRefund, Event{Operation: EventRefund, Gateway: params.Gateway, Params: params, Result: result})
	return result, nil
}

// Subscribe creates a subscription on gateways that support it. Capability
// absence is a normal condition callers branch on, not a crash.
func (s *SDK) Subscribe(ctx context.Context, params SubscriptionParams) (*SubscriptionResult, error) {
	if params.Gateway == "" {
		return nil, newValidationError(ErrCodeMissingGateway, "missing gateway in subscription parameters")
	}

	entry, err := s.lookup(params.Gateway)
	if err != nil {
		return nil, err
	}
	if !entry.caps.Subscribe {
		return nil, newValidationError(ErrCodeSubscriptionNotSupported,
			fmt.Sprintf("gateway %s does not support subscriptions", params.Gateway))
	}

	result, err := entry.gateway.(Subscriber).Subscribe(ctx, params)
	if err != nil {
		return nil, wrapInternal(err)
	}

	s.events.Emit(EventSubscribe, Event{Operation: EventSubscribe, Gateway: params.Gateway, Params: params, Result: result})
	return result, nil
}

// CreateInvoice creates an invoice on gateways that support it.
func (s *SDK) CreateInvoice(ctx context.Context, params InvoiceParams) (*InvoiceResult, error) {
	if params.Gateway == "" {
		return nil, newValidationError(ErrCodeMissingGateway, "missing gateway in invoice parameters")
	}

	entry, err := s.lookup(params.Gateway)
	if err != nil {
		return nil, err
	}
	if !entry.caps.CreateInvoice {
		return nil, newValidationError(ErrCodeInvoiceNotSupported,
			fmt.Sprintf("gateway %s does not support invoices", params.Gateway))
	}

	result, err := entry.gateway.(InvoiceCreator).CreateInvoice(ctx, params)
	if err != nil {
		return nil, wrapInternal(err)
	}

	s.events.Emit(EventCreateInvoice, Event{Operation: EventCreateInvoice, Gateway: params.Gateway, Params: params, Result: result})
	return result, nil
}

// Wallet performs a wallet operation on gateways that support it.
func (s *SDK) Wallet(ctx context.Context, params WalletParams) (*WalletResult, error) {
	if params.Gateway == "" {
		return nil, newValidationError(ErrCodeMissingGateway, "missing gateway in wallet parameters")
	}

	entry, err := s.lookup(params.Gateway)
	if err != nil {
		return nil, err
	}
	if !entry.caps.Wallet {
		return nil, newValidationError(ErrCodeWalletNotSupported,
			fmt.Sprintf("gateway %s does not support wallet operations", params.Gateway))
	}

	result, err := entry.gateway.(WalletOperator).Wallet(ctx, params)
	if err != nil {
		return nil, wrapInternal(err)
	}

	s.events.Emit(EventWallet, Event{Operation: EventWallet, Gateway: params.Gateway, Params: params, Result: result})
	return result, nil
}

// Transaction ledger passthroughs. Dispatch never writes here on its own.

func (s *SDK) AddTransaction(record TransactionRecord) {
	s.transactions.Add(record)
}

func (s *SDK) UpdateTransaction(transactionID string, patch TransactionPatch) {
	s.transactions.Update(transactionID, patch)
}

func (s *SDK) GetTransaction(transactionID string) (TransactionRecord, bool) {
	return s.transactions.Get(transactionID)
}

func (s *SDK) ListTransactions() []TransactionRecord {
	return s.transactions.List()
}
