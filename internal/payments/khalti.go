package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

type KhaltiConfig struct {
	PublicKey string
	SecretKey string
	// BaseURL overrides the sandbox/production host, mainly for tests.
	BaseURL string
}

// KhaltiGateway integrates the Khalti ePayment API: initiate returns a
// hosted payment URL plus a pidx, lookup resolves the transaction state.
type KhaltiGateway struct {
	config     KhaltiConfig
	baseURL    string
	httpClient *http.Client
}

func NewKhaltiGateway(config KhaltiConfig, production bool) *KhaltiGateway {
	baseURL := config.BaseURL
	if baseURL == "" {
		if production {
			baseURL = "https://khalti.com/api/v2"
		} else {
			baseURL = "https://dev.khalti.com/api/v2"
		}
	}
	return &KhaltiGateway{
		config:     config,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (k *KhaltiGateway) post(ctx context.Context, url string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "key "+k.config.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw, nil
}

func (k *KhaltiGateway) Pay(ctx context.Context, params PaymentParams) (*Result, error) {
	// Khalti amounts are in paisa. Round to keep float artifacts out of
	// the conversion (10.55 * 100 is 1054.999...).
	amountPaisa := int(math.Round(params.Amount * 100))

	websiteURL := params.Extra["website_url"]
	if websiteURL == "" {
		websiteURL = params.ReturnURL
	}
	orderName := params.Extra["purchase_order_name"]
	if orderName == "" {
		orderName = "Order"
	}

	payload := map[string]any{
		"return_url":          params.ReturnURL,
		"website_url":         websiteURL,
		"amount":              amountPaisa,
		"purchase_order_id":   params.TransactionID,
		"purchase_order_name": orderName,
		"customer_info": map[string]string{
			"name":  params.Extra["customer_name"],
			"email": params.Extra["customer_email"],
			"phone": params.Extra["customer_phone"],
		},
	}

	statusCode, raw, err := k.post(ctx, k.baseURL+"/epayment/initiate/", payload)
	if err != nil {
		return nil, NewPaymentError("KHALTI_PAYMENT_ERROR", fmt.Sprintf("khalti initiate request: %v", err))
	}
	if statusCode != http.StatusOK && statusCode != http.StatusCreated {
		return nil, NewPaymentError("KHALTI_PAYMENT_ERROR",
			fmt.Sprintf("khalti initiate failed: http=%d body=%s", statusCode, string(raw)))
	}

	var res struct {
		Pidx       string `json:"pidx"`
		PaymentURL string `json:"payment_url"`
		ExpiresAt  string `json:"expires_at"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, NewPaymentError("KHALTI_PAYMENT_ERROR",
			fmt.Sprintf("khalti initiate decode: %v body=%s", err, string(raw)))
	}

	return &Result{
		Gateway: GatewayKhalti,
		Status:  StatusSuccess,
		Params: map[string]any{
			"pidx":        res.Pidx,
			"payment_url": res.PaymentURL,
			"expires_at":  res.ExpiresAt,
		},
		Message: "payment initiated",
	}, nil
}

func (k *KhaltiGateway) Verify(ctx context.Context, params VerifyParams) (*Result, error) {
	pidx := strings.TrimSpace(params.Extra["pidx"])
	if pidx == "" {
		pidx = strings.TrimSpace(params.TransactionID)
	}
	if pidx == "" {
		return nil, NewPaymentError("KHALTI_VERIFY_ERROR", "khalti verify requires pidx")
	}

	// Khalti returns 400 for expired/cancelled transactions with a decodable
	// body, so decode before judging the status code.
	statusCode, raw, err := k.post(ctx, k.baseURL+"/epayment/lookup/", map[string]string{"pidx": pidx})
	if err != nil {
		return nil, NewPaymentError("KHALTI_VERIFY_ERROR", fmt.Sprintf("khalti lookup request: %v", err))
	}

	var res struct {
		Pidx        string `json:"pidx"`
		TotalAmount int    `json:"total_amount"`
		Status      string `json:"status"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, NewPaymentError("KHALTI_VERIFY_ERROR",
			fmt.Sprintf("khalti lookup decode: http=%d err=%v body=%s", statusCode, err, string(raw)))
	}

	// Only Completed counts as success; Pending, Initiated, Expired,
	// Refunded and User canceled all report failure.
	status := StatusFailure
	if strings.EqualFold(res.Status, "Completed") {
		status = StatusSuccess
	}

	return &Result{
		Gateway: GatewayKhalti,
		Status:  status,
		Params: map[string]any{
			"pidx":         res.Pidx,
			"total_amount": res.TotalAmount,
			"state":        res.Status,
		},
		Message: "payment verification result",
	}, nil
}

func (k *KhaltiGateway) Refund(ctx context.Context, params RefundParams) (*Result, error) {
	// Khalti does not expose a public refund API.
	return nil, NewPaymentError("KHALTI_REFUND_UNSUPPORTED", "khalti refund is not supported via public API")
}
