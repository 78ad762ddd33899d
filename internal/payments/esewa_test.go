package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEsewaPayBuildsSignedForm(t *testing.T) {
	gw := NewEsewaGateway(EsewaConfig{MerchantCode: "EPAYTEST", SecretKey: "secret"}, false)

	result, err := gw.Pay(context.Background(), PaymentParams{
		Gateway:       GatewayEsewa,
		Amount:        100,
		Currency:      "NPR",
		ReturnURL:     "https://merchant.example/return",
		TransactionID: "tx-1",
	})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, "100.00", result.Params["total_amount"])
	require.Equal(t, "EPAYTEST", result.Params["product_code"])
	require.Equal(t, "https://merchant.example/return", result.Params["success_url"])
	require.NotEmpty(t, result.Params["signature"])

	// the generated signature must verify against the same fields
	require.True(t, gw.VerifyWebhookSignature(map[string]string{
		"total_amount":     "100.00",
		"transaction_uuid": "tx-1",
		"signature":        result.Params["signature"].(string),
	}))
	require.False(t, gw.VerifyWebhookSignature(map[string]string{
		"total_amount":     "999.00",
		"transaction_uuid": "tx-1",
		"signature":        result.Params["signature"].(string),
	}))
}

func TestEsewaPayRequiresTransactionID(t *testing.T) {
	gw := NewEsewaGateway(EsewaConfig{MerchantCode: "EPAYTEST", SecretKey: "secret"}, false)

	_, err := gw.Pay(context.Background(), PaymentParams{Gateway: GatewayEsewa, Amount: 100, Currency: "NPR", ReturnURL: "https://x"})
	require.Equal(t, "ESEWA_PAYMENT_ERROR", paymentCode(t, err))
}

func TestEsewaVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/epay/transaction/status/", r.URL.Path)
		require.Equal(t, "tx-1", r.URL.Query().Get("transaction_uuid"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"product_code":"EPAYTEST","transaction_uuid":"tx-1","total_amount":100,"status":"COMPLETE","ref_id":"0001TX"}`))
	}))
	defer srv.Close()

	gw := NewEsewaGateway(EsewaConfig{MerchantCode: "EPAYTEST", SecretKey: "secret", BaseURL: srv.URL}, false)

	result, err := gw.Verify(context.Background(), VerifyParams{Gateway: GatewayEsewa, TransactionID: "tx-1", Amount: 100})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, "0001TX", result.Params["ref_id"])
}

func TestEsewaVerifyPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transaction_uuid":"tx-1","status":"PENDING"}`))
	}))
	defer srv.Close()

	gw := NewEsewaGateway(EsewaConfig{MerchantCode: "EPAYTEST", SecretKey: "secret", BaseURL: srv.URL}, false)

	result, err := gw.Verify(context.Background(), VerifyParams{Gateway: GatewayEsewa, TransactionID: "tx-1", Amount: 100})
	require.NoError(t, err)
	require.Equal(t, StatusFailure, result.Status)
}

func TestEsewaRefundReportsFailureStatus(t *testing.T) {
	gw := NewEsewaGateway(EsewaConfig{MerchantCode: "EPAYTEST", SecretKey: "secret"}, false)

	result, err := gw.Refund(context.Background(), RefundParams{Gateway: GatewayEsewa, TransactionID: "tx-1", Amount: 100})
	require.NoError(t, err)
	require.Equal(t, StatusFailure, result.Status)
}
