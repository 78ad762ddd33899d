package payments

import (
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// WebhookEvent is the normalized form a provider callback is forwarded as.
// Payload stays gateway-specific; consumers subscribe to the "webhook"
// event and branch on Gateway.
type WebhookEvent struct {
	Gateway string         `json:"gateway"`
	Payload map[string]any `json:"payload"`
}

// WebhookAck is the acknowledgement body returned on success.
type WebhookAck struct {
	Received bool `json:"received"`
}

// SignatureVerifier authenticates an inbound callback for one gateway.
// Verification schemes differ per provider (eSewa signs form fields, Stripe
// signs a header), so each gateway plugs in its own strategy.
type SignatureVerifier interface {
	Verify(payload map[string]any, headers http.Header) bool
}

type SignatureVerifierFunc func(payload map[string]any, headers http.Header) bool

func (f SignatureVerifierFunc) Verify(payload map[string]any, headers http.Header) bool {
	return f(payload, headers)
}

// acceptAllVerifier is the fallback for gateways without a registered
// strategy. Deployments handling real callbacks should register a verifier
// per gateway rather than rely on this.
var acceptAllVerifier = SignatureVerifierFunc(func(map[string]any, http.Header) bool {
	return true
})

// WebhookProcessor authenticates, parses and forwards provider callbacks.
// It accepts only gateways present in the SDK registry and emits one
// "webhook" event per accepted callback.
type WebhookProcessor struct {
	sdk    *SDK
	logger *zap.SugaredLogger

	mu        sync.RWMutex
	verifiers map[string]SignatureVerifier
}

func NewWebhookProcessor(sdk *SDK) *WebhookProcessor {
	p := &WebhookProcessor{
		sdk:       sdk,
		verifiers: make(map[string]SignatureVerifier),
		logger:    sdk.logger,
	}

	// eSewa callbacks repeat the signed form fields, so its gateway can
	// verify them out of the box when configured.
	if entry, err := sdk.lookup(GatewayEsewa); err == nil {
		if esewa, ok := entry.gateway.(*EsewaGateway); ok {
			p.verifiers[GatewayEsewa] = SignatureVerifierFunc(func(payload map[string]any, _ http.Header) bool {
				fields := make(map[string]string, len(payload))
				for k, v := range payload {
					if s, ok := v.(string); ok {
						fields[k] = s
					}
				}
				return esewa.VerifyWebhookSignature(fields)
			})
		}
	}

	return p
}

// RegisterVerifier installs or replaces the signature strategy for gateway.
func (p *WebhookProcessor) RegisterVerifier(gateway string, verifier SignatureVerifier) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verifiers[gateway] = verifier
}

func (p *WebhookProcessor) verifier(gateway string) SignatureVerifier {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.verifiers[gateway]; ok {
		return v
	}
	return acceptAllVerifier
}

// Process handles one callback. The returned *PaymentError carries the HTTP
// status the caller should respond with: 400 for a missing or unsupported
// gateway, 401 for a failed signature check.
func (p *WebhookProcessor) Process(gateway string, payload map[string]any, headers http.Header) (*WebhookAck, error) {
	if gateway == "" {
		return nil, newValidationError(ErrCodeInvalidParams, "missing gateway parameter")
	}

	p.sdk.mu.RLock()
	_, known := p.sdk.gateways[gateway]
	p.sdk.mu.RUnlock()
	if !known {
		return nil, newValidationError(ErrCodeUnsupportedGateway,
			fmt.Sprintf("unsupported gateway in webhook: %s", gateway))
	}

	if !p.verifier(gateway).Verify(payload, headers) {
		return nil, &PaymentError{
			Code:    ErrCodeInvalidSignature,
			Message: "webhook signature verification failed for " + gateway,
			Status:  http.StatusUnauthorized,
		}
	}

	// Per-gateway parsing is currently a pass-through; the raw payload goes
	// out on the bus for consumers to interpret.
	evt := WebhookEvent{Gateway: gateway, Payload: payload}
	p.logger.Infow("payment webhook received", "gateway", gateway)
	p.sdk.events.Emit(EventWebhook, Event{Operation: EventWebhook, Gateway: gateway, Params: evt, Result: nil})

	return &WebhookAck{Received: true}, nil
}
