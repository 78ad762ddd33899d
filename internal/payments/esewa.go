package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type EsewaConfig struct {
	MerchantCode string
	SecretKey    string
	// BaseURL overrides the sandbox/production host, mainly for tests.
	BaseURL string
}

// EsewaGateway integrates the eSewa ePay v2 form flow: payment is initiated
// by posting signed form fields from the client, verification goes through
// the transaction status API.
type EsewaGateway struct {
	config     EsewaConfig
	baseURL    string
	httpClient *http.Client
}

func NewEsewaGateway(config EsewaConfig, production bool) *EsewaGateway {
	baseURL := config.BaseURL
	if baseURL == "" {
		if production {
			baseURL = "https://epay.esewa.com.np"
		} else {
			baseURL = "https://rc-epay.esewa.com.np"
		}
	}
	return &EsewaGateway{
		config:     config,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// signature computes the HMAC-SHA256 eSewa requires over the signed field
// list. raw is formatted as per esewa docs.
func (e *EsewaGateway) signature(totalAmount, transactionUUID string) string {
	raw := fmt.Sprintf("total_amount=%s,transaction_uuid=%s,product_code=%s",
		totalAmount, transactionUUID, e.config.MerchantCode)
	mac := hmac.New(sha256.New, []byte(e.config.SecretKey))
	mac.Write([]byte(raw))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature recomputes the form signature over the callback
// fields. eSewa success callbacks carry the same signed field list.
func (e *EsewaGateway) VerifyWebhookSignature(fields map[string]string) bool {
	expected := e.signature(fields["total_amount"], fields["transaction_uuid"])
	return hmac.Equal([]byte(expected), []byte(fields["signature"]))
}

func (e *EsewaGateway) Pay(ctx context.Context, params PaymentParams) (*Result, error) {
	transactionUUID := params.TransactionID
	if transactionUUID == "" {
		return nil, NewPaymentError("ESEWA_PAYMENT_ERROR", "esewa requires a transaction id")
	}

	total := fmt.Sprintf("%.2f", params.Amount)
	failureURL := params.Extra["fail_url"]
	if failureURL == "" {
		failureURL = params.ReturnURL
	}

	formFields := map[string]any{
		"amount":                  total,
		"tax_amount":              "0",
		"product_service_charge":  "0",
		"product_delivery_charge": "0",
		"total_amount":            total,
		"transaction_uuid":        transactionUUID,
		"product_code":            e.config.MerchantCode,
		"success_url":             params.ReturnURL,
		"failure_url":             failureURL,
		"signed_field_names":      "total_amount,transaction_uuid,product_code",
		"signature":               e.signature(total, transactionUUID),
	}
	formFields["payment_url"] = e.baseURL + "/api/epay/main/v2/form"

	return &Result{
		Gateway: GatewayEsewa,
		Status:  StatusSuccess,
		Params:  formFields,
		Message: "payment initiated",
	}, nil
}

func (e *EsewaGateway) Verify(ctx context.Context, params VerifyParams) (*Result, error) {
	query := url.Values{}
	query.Set("product_code", e.config.MerchantCode)
	query.Set("total_amount", fmt.Sprintf("%.2f", params.Amount))
	query.Set("transaction_uuid", params.TransactionID)

	statusURL := e.baseURL + "/api/epay/transaction/status/?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, NewPaymentError("ESEWA_VERIFY_ERROR", err.Error())
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, NewPaymentError("ESEWA_VERIFY_ERROR", fmt.Sprintf("esewa status request: %v", err))
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, NewPaymentError("ESEWA_VERIFY_ERROR",
			fmt.Sprintf("esewa status failed: http=%d body=%s", resp.StatusCode, string(raw)))
	}

	var res struct {
		ProductCode     string  `json:"product_code"`
		TransactionUUID string  `json:"transaction_uuid"`
		TotalAmount     float64 `json:"total_amount"`
		Status          string  `json:"status"`
		RefID           string  `json:"ref_id"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, NewPaymentError("ESEWA_VERIFY_ERROR",
			fmt.Sprintf("esewa status decode: %v body=%s", err, string(raw)))
	}

	status := StatusFailure
	// eSewa reports COMPLETE for settled transactions; PENDING, CANCELED,
	// AMBIGUOUS and NOT_FOUND are all non-success.
	if strings.EqualFold(res.Status, "COMPLETE") {
		status = StatusSuccess
	}

	return &Result{
		Gateway: GatewayEsewa,
		Status:  status,
		Params: map[string]any{
			"transaction_uuid": res.TransactionUUID,
			"total_amount":     res.TotalAmount,
			"status":           res.Status,
			"ref_id":           res.RefID,
		},
		Message: "payment verification result",
	}, nil
}

func (e *EsewaGateway) Refund(ctx context.Context, params RefundParams) (*Result, error) {
	// eSewa has no public refund API; refunds go through merchant support.
	// Reported as a failure-status result so dispatch itself still succeeds.
	return &Result{
		Gateway: GatewayEsewa,
		Status:  StatusFailure,
		Params:  map[string]any{"transaction_id": params.TransactionID},
		Message: "esewa refunds must be requested through merchant support",
	}, nil
}
