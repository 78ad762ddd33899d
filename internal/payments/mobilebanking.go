package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type MobileBankingConfig struct {
	BankID  string
	APIKey  string
	BaseURL string
}

// MobileBankingGateway talks to a bank aggregator API. The aggregator
// defines one endpoint set regardless of environment, so the base URL comes
// straight from config.
type MobileBankingGateway struct {
	config     MobileBankingConfig
	httpClient *http.Client
}

func NewMobileBankingGateway(config MobileBankingConfig) *MobileBankingGateway {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.mobilebanking.com.np"
	}
	return &MobileBankingGateway{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *MobileBankingGateway) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.config.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", g.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("http=%d body=%s", resp.StatusCode, string(raw))
	}
	return json.Unmarshal(raw, out)
}

func (g *MobileBankingGateway) Pay(ctx context.Context, params PaymentParams) (*Result, error) {
	var res struct {
		PaymentID  string `json:"payment_id"`
		PaymentURL string `json:"payment_url"`
		Status     string `json:"status"`
	}
	payload := map[string]any{
		"bank_id":    g.config.BankID,
		"amount":     params.Amount,
		"currency":   params.Currency,
		"return_url": params.ReturnURL,
		"reference":  params.TransactionID,
	}
	if err := g.do(ctx, http.MethodPost, "/v1/payments", payload, &res); err != nil {
		return nil, NewPaymentError("MOBILEBANKING_PAYMENT_ERROR", fmt.Sprintf("mobilebanking initiate: %v", err))
	}

	return &Result{
		Gateway: GatewayMobileBanking,
		Status:  StatusSuccess,
		Params: map[string]any{
			"payment_id":  res.PaymentID,
			"payment_url": res.PaymentURL,
		},
		Message: "payment initiated",
	}, nil
}

func (g *MobileBankingGateway) Verify(ctx context.Context, params VerifyParams) (*Result, error) {
	var res struct {
		PaymentID string `json:"payment_id"`
		Status    string `json:"status"`
	}
	if err := g.do(ctx, http.MethodGet, "/v1/payments/"+params.TransactionID, nil, &res); err != nil {
		return nil, NewPaymentError("MOBILEBANKING_VERIFY_ERROR", fmt.Sprintf("mobilebanking status: %v", err))
	}

	status := StatusFailure
	if res.Status == "settled" {
		status = StatusSuccess
	}

	return &Result{
		Gateway: GatewayMobileBanking,
		Status:  status,
		Params:  map[string]any{"payment_id": res.PaymentID, "state": res.Status},
		Message: "payment verification result",
	}, nil
}

func (g *MobileBankingGateway) Refund(ctx context.Context, params RefundParams) (*Result, error) {
	var res struct {
		RefundID string `json:"refund_id"`
		Status   string `json:"status"`
	}
	payload := map[string]any{"amount": params.Amount}
	if err := g.do(ctx, http.MethodPost, "/v1/payments/"+params.TransactionID+"/refund", payload, &res); err != nil {
		return nil, NewPaymentError("MOBILEBANKING_REFUND_ERROR", fmt.Sprintf("mobilebanking refund: %v", err))
	}

	status := StatusFailure
	if res.Status == "refunded" {
		status = StatusSuccess
	}

	return &Result{
		Gateway: GatewayMobileBanking,
		Status:  status,
		Params:  map[string]any{"refund_id": res.RefundID, "state": res.Status},
		Message: "refund result",
	}, nil
}
