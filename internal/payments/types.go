package payments

const (
	StatusSuccess = "success"
	StatusFailure = "failure"

	SubscriptionActive    = "active"
	SubscriptionInactive  = "inactive"
	SubscriptionCancelled = "cancelled"

	InvoiceCreated   = "created"
	InvoicePaid      = "paid"
	InvoiceCancelled = "cancelled"
)

// PaymentParams carries everything needed to initiate a payment. Extra holds
// provider-specific fields (purchase order name, customer info, fail URL ...)
// as a validated key/value bag so adapters can pull what they need without
// an untyped escape hatch.
type PaymentParams struct {
	Gateway       string            `json:"gateway"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	ReturnURL     string            `json:"return_url"`
	TransactionID string            `json:"transaction_id,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// VerifyParams targets an existing transaction, so no currency/return URL.
type VerifyParams struct {
	Gateway       string            `json:"gateway"`
	TransactionID string            `json:"transaction_id"`
	Amount        float64           `json:"amount"`
	Extra         map[string]string `json:"extra,omitempty"`
}

type RefundParams struct {
	Gateway       string            `json:"gateway"`
	TransactionID string            `json:"transaction_id"`
	Amount        float64           `json:"amount"`
	Extra         map[string]string `json:"extra,omitempty"`
}

type SubscriptionParams struct {
	Gateway    string            `json:"gateway"`
	PlanID     string            `json:"plan_id"`
	CustomerID string            `json:"customer_id"`
	Extra      map[string]string `json:"extra,omitempty"`
}

type InvoiceParams struct {
	Gateway    string            `json:"gateway"`
	Amount     float64           `json:"amount"`
	Currency   string            `json:"currency"`
	CustomerID string            `json:"customer_id"`
	Extra      map[string]string `json:"extra,omitempty"`
}

type WalletParams struct {
	Gateway    string            `json:"gateway"`
	CustomerID string            `json:"customer_id"`
	Amount     float64           `json:"amount"`
	Currency   string            `json:"currency"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Result is the one response shape every gateway produces. Params is the
// opaque provider payload (form fields for eSewa, the initiate response for
// Khalti, ...) and is never rewritten by the dispatcher.
type Result struct {
	Gateway string         `json:"gateway"`
	Status  string         `json:"status"`
	Params  map[string]any `json:"params"`
	Message string         `json:"message,omitempty"`
}

// SubscriptionResult uses the richer active/inactive/cancelled status set.
type SubscriptionResult struct {
	Gateway string         `json:"gateway"`
	Status  string         `json:"status"`
	Params  map[string]any `json:"params"`
	Message string         `json:"message,omitempty"`
}

// InvoiceResult uses created/paid/cancelled.
type InvoiceResult struct {
	Gateway string         `json:"gateway"`
	Status  string         `json:"status"`
	Params  map[string]any `json:"params"`
	Message string         `json:"message,omitempty"`
}

type WalletResult struct {
	Gateway string         `json:"gateway"`
	Status  string         `json:"status"`
	Params  map[string]any `json:"params"`
	Message string         `json:"message,omitempty"`
}
