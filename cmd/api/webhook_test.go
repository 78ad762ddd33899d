package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payhub/internal/payments"
	"payhub/internal/ratelimiter"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type demoGateway struct{}

func (demoGateway) Pay(ctx context.Context, params payments.PaymentParams) (*payments.Result, error) {
	return &payments.Result{Gateway: params.Gateway, Status: payments.StatusSuccess, Params: map[string]any{"id": "p1"}}, nil
}

func (demoGateway) Verify(ctx context.Context, params payments.VerifyParams) (*payments.Result, error) {
	return &payments.Result{Gateway: params.Gateway, Status: payments.StatusSuccess, Params: map[string]any{"id": "v1"}}, nil
}

func (demoGateway) Refund(ctx context.Context, params payments.RefundParams) (*payments.Result, error) {
	return &payments.Result{Gateway: params.Gateway, Status: payments.StatusSuccess, Params: map[string]any{"id": "r1"}}, nil
}

func newTestApplication(t *testing.T) *application {
	t.Helper()

	sdk := payments.New(payments.Config{
		Mode:            payments.ModeSandbox,
		CustomProviders: map[string]payments.Gateway{"demo": demoGateway{}},
	})

	return &application{
		config:      config{env: "test", mode: payments.ModeSandbox},
		sdk:         sdk,
		webhooks:    payments.NewWebhookProcessor(sdk),
		rateLimiter: ratelimiter.NewFixedWindowLimiter(100, time.Second),
		logger:      zap.NewNop().Sugar(),
	}
}

func TestWebhookHandlerAcceptsPost(t *testing.T) {
	app := newTestApplication(t)
	mux := app.mount()

	body := bytes.NewBufferString(`{"some":"event"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/payment?gateway=demo", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var ack payments.WebhookAck
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ack))
	require.True(t, ack.Received)
}

func TestWebhookHandlerMissingGateway(t *testing.T) {
	app := newTestApplication(t)
	mux := app.mount()

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/payment", bytes.NewBufferString(`{"some":"event"}`))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, payments.ErrCodeInvalidParams, resp.Code)
}

func TestWebhookHandlerFormEncodedBody(t *testing.T) {
	app := newTestApplication(t)
	mux := app.mount()

	var got payments.Event
	app.sdk.Events().On(payments.EventWebhook, func(evt payments.Event) { got = evt })

	body := bytes.NewBufferString("transaction_uuid=tx-9&total_amount=100.00&signature=abc")
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/payment?gateway=demo", body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	evt, ok := got.Params.(payments.WebhookEvent)
	require.True(t, ok)
	require.Equal(t, "tx-9", evt.Payload["transaction_uuid"])
	require.Equal(t, "100.00", evt.Payload["total_amount"])
}

func TestWebhookHandlerGatewayFromBody(t *testing.T) {
	app := newTestApplication(t)
	mux := app.mount()

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/payment", bytes.NewBufferString(`{"gateway":"demo","pidx":"px-1"}`))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestWebhookHandlerUnsupportedGateway(t *testing.T) {
	app := newTestApplication(t)
	mux := app.mount()

	req := httptest.NewRequest(http.MethodGet, "/v1/webhooks/payment?gateway=nope", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, payments.ErrCodeUnsupportedGateway, resp.Code)
}

func TestCheckoutHandler(t *testing.T) {
	app := newTestApplication(t)
	mux := app.mount()

	body := bytes.NewBufferString(`{"gateway":"demo","amount":10,"currency":"USD","return_url":"https://merchant.example/return"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/checkout", body)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data struct {
			TransactionID string          `json:"transaction_id"`
			Result        payments.Result `json:"result"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.TransactionID)
	require.Equal(t, payments.StatusSuccess, resp.Data.Result.Status)

	// dispatch outcome is recorded in the ledger by the handler
	record, ok := app.sdk.GetTransaction(resp.Data.TransactionID)
	require.True(t, ok)
	require.Equal(t, payments.StatusSuccess, record.Status)
}

func TestCheckoutHandlerRejectsBadCurrency(t *testing.T) {
	app := newTestApplication(t)
	mux := app.mount()

	body := bytes.NewBufferString(`{"gateway":"demo","amount":10,"currency":"usd","return_url":"https://x.example"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/checkout", body)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCheckoutHandlerUnknownGateway(t *testing.T) {
	app := newTestApplication(t)
	mux := app.mount()

	body := bytes.NewBufferString(`{"gateway":"ghost","amount":10,"currency":"USD","return_url":"https://x.example"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/checkout", body)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, payments.ErrCodeGatewayNotConfigured, resp.Code)
}
