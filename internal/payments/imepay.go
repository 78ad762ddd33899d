package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type IMEPayConfig struct {
	MerchantCode string
	Module       string
	APIUser      string
	APIPassword  string
	BaseURL      string
}

// IMEPayGateway integrates IME Pay's web checkout: a token request followed
// by a redirect to the checkout page carrying that token.
type IMEPayGateway struct {
	config     IMEPayConfig
	baseURL    string
	httpClient *http.Client
}

func NewIMEPayGateway(config IMEPayConfig, production bool) *IMEPayGateway {
	baseURL := config.BaseURL
	if baseURL == "" {
		if production {
			baseURL = "https://payment.imepay.com.np:7979"
		} else {
			baseURL = "https://stg.imepay.com.np:7979"
		}
	}
	return &IMEPayGateway{
		config:     config,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *IMEPayGateway) post(ctx context.Context, path string, payload any, out any) error {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(g.config.APIUser, g.config.APIPassword)
	req.Header.Set("Content-Type", "application/json")
	// IME Pay expects the module code base64-encoded in its own header.
	req.Header.Set("Module", base64.StdEncoding.EncodeToString([]byte(g.config.Module)))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http=%d body=%s", resp.StatusCode, string(raw))
	}
	return json.Unmarshal(raw, out)
}

func (g *IMEPayGateway) Pay(ctx context.Context, params PaymentParams) (*Result, error) {
	if params.TransactionID == "" {
		return nil, NewPaymentError("IMEPAY_PAYMENT_ERROR", "imepay requires a transaction id")
	}

	var res struct {
		ResponseCode int    `json:"ResponseCode"`
		TokenID      string `json:"TokenId"`
	}
	payload := map[string]any{
		"MerchantCode": g.config.MerchantCode,
		"Amount":       fmt.Sprintf("%.2f", params.Amount),
		"RefId":        params.TransactionID,
	}
	if err := g.post(ctx, "/api/Web/GetToken", payload, &res); err != nil {
		return nil, NewPaymentError("IMEPAY_PAYMENT_ERROR", fmt.Sprintf("imepay token request: %v", err))
	}
	if res.ResponseCode != 0 || res.TokenID == "" {
		return nil, NewPaymentError("IMEPAY_PAYMENT_ERROR",
			fmt.Sprintf("imepay token rejected: code=%d", res.ResponseCode))
	}

	return &Result{
		Gateway: GatewayIMEPay,
		Status:  StatusSuccess,
		Params: map[string]any{
			"token_id":      res.TokenID,
			"checkout_url":  g.baseURL + "/WebCheckout/Checkout",
			"merchant_code": g.config.MerchantCode,
			"ref_id":        params.TransactionID,
			"cancel_url":    params.Extra["fail_url"],
			"respond_url":   params.ReturnURL,
		},
		Message: "payment initiated",
	}, nil
}

func (g *IMEPayGateway) Verify(ctx context.Context, params VerifyParams) (*Result, error) {
	var res struct {
		ResponseCode        int    `json:"ResponseCode"`
		ResponseDescription string `json:"ResponseDescription"`
		TransactionID       string `json:"TransactionId"`
		Amount              string `json:"Amount"`
	}
	payload := map[string]any{
		"MerchantCode": g.config.MerchantCode,
		"RefId":        params.TransactionID,
	}
	if err := g.post(ctx, "/api/Web/Confirm", payload, &res); err != nil {
		return nil, NewPaymentError("IMEPAY_VERIFY_ERROR", fmt.Sprintf("imepay confirm request: %v", err))
	}

	// ResponseCode 0 is a confirmed transaction.
	status := StatusFailure
	if res.ResponseCode == 0 {
		status = StatusSuccess
	}

	return &Result{
		Gateway: GatewayIMEPay,
		Status:  status,
		Params: map[string]any{
			"transaction_id": res.TransactionID,
			"amount":         res.Amount,
			"response_code":  res.ResponseCode,
			"description":    res.ResponseDescription,
		},
		Message: "payment verification result",
	}, nil
}

func (g *IMEPayGateway) Refund(ctx context.Context, params RefundParams) (*Result, error) {
	return nil, NewPaymentError("IMEPAY_REFUND_UNSUPPORTED", "imepay refund is not supported via the checkout API")
}
