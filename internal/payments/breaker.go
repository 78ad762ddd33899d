package payments

import (
	"context"

	"github.com/sony/gobreaker"
)

// BreakerGateway decorates another gateway with a circuit breaker so a
// provider outage fails fast instead of tying up callers on timeouts. It
// performs no retries. Register it in place of the raw gateway:
//
//	sdk.RegisterProvider("khalti", payments.NewBreakerGateway("khalti", khaltiGW))
type BreakerGateway struct {
	inner   Gateway
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerGateway(name string, inner Gateway) *BreakerGateway {
	return &BreakerGateway{
		inner: inner,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: name,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (b *BreakerGateway) execute(fn func() (*Result, error)) (*Result, error) {
	res, err := b.breaker.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, NewPaymentError(ErrCodeInternal, "provider circuit open: "+b.breaker.Name())
		}
		return nil, err
	}
	return res.(*Result), nil
}

func (b *BreakerGateway) Pay(ctx context.Context, params PaymentParams) (*Result, error) {
	return b.execute(func() (*Result, error) { return b.inner.Pay(ctx, params) })
}

func (b *BreakerGateway) Verify(ctx context.Context, params VerifyParams) (*Result, error) {
	return b.execute(func() (*Result, error) { return b.inner.Verify(ctx, params) })
}

func (b *BreakerGateway) Refund(ctx context.Context, params RefundParams) (*Result, error) {
	return b.execute(func() (*Result, error) { return b.inner.Refund(ctx, params) })
}
