package payments

import (
	"fmt"
	"net/http"
)

// Stable error codes callers can switch on. Adapters may define their own
// codes (e.g. KHALTI_REFUND_UNSUPPORTED); those pass through dispatch
// unchanged.
const (
	ErrCodeInvalidParams            = "INVALID_PARAMS"
	ErrCodeMissingGateway           = "MISSING_GATEWAY"
	ErrCodeInvalidAmount            = "INVALID_AMOUNT"
	ErrCodeMissingCurrency          = "MISSING_CURRENCY"
	ErrCodeMissingReturnURL         = "MISSING_RETURN_URL"
	ErrCodeGatewayNotConfigured     = "GATEWAY_NOT_CONFIGURED"
	ErrCodeSubscriptionNotSupported = "SUBSCRIPTION_NOT_SUPPORTED"
	ErrCodeInvoiceNotSupported      = "INVOICE_NOT_SUPPORTED"
	ErrCodeWalletNotSupported       = "WALLET_NOT_SUPPORTED"
	ErrCodeUnsupportedGateway       = "UNSUPPORTED_GATEWAY"
	ErrCodeInvalidSignature         = "INVALID_SIGNATURE"
	ErrCodeInternal                 = "INTERNAL_ERROR"
)

// PaymentError is the single typed error that crosses the SDK boundary.
// Status drives the HTTP response code at the webhook/API edge and
// defaults to 500 when unset.
type PaymentError struct {
	Code    string
	Message string
	Status  int
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus returns the status the error responder should answer with.
func (e *PaymentError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// NewPaymentError builds a typed error with the default 500 status.
func NewPaymentError(code, message string) *PaymentError {
	return &PaymentError{Code: code, Message: message}
}

func newValidationError(code, message string) *PaymentError {
	return &PaymentError{Code: code, Message: message, Status: http.StatusBadRequest}
}

// wrapInternal keeps typed errors intact and wraps anything else as
// INTERNAL_ERROR carrying the original message.
func wrapInternal(err error) *PaymentError {
	if perr, ok := err.(*PaymentError); ok {
		return perr
	}
	return &PaymentError{Code: ErrCodeInternal, Message: err.Error()}
}
