package payments

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

type ConnectIPSConfig struct {
	MerchantID string
	AppID      string
	AppName    string
	// Password authenticates the validate-transaction API (basic auth).
	Password string
	// PrivateKeyPEM is the PKCS#8 creditor key used to sign the TOKEN field.
	PrivateKeyPEM string
	BaseURL       string
}

// ConnectIPSGateway integrates the ConnectIPS web gateway: payment is a
// signed form post to the login page, verification goes through the
// creditor validate-transaction API.
type ConnectIPSGateway struct {
	config     ConnectIPSConfig
	baseURL    string
	httpClient *http.Client
}

func NewConnectIPSGateway(config ConnectIPSConfig, production bool) *ConnectIPSGateway {
	baseURL := config.BaseURL
	if baseURL == "" {
		if production {
			baseURL = "https://login.connectips.com"
		} else {
			baseURL = "https://uat.connectips.com"
		}
	}
	return &ConnectIPSGateway{
		config:     config,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// signToken produces the SHA256-with-RSA TOKEN over the pipe-delimited
// message ConnectIPS specifies.
func (c *ConnectIPSGateway) signToken(message string) (string, error) {
	block, _ := pem.Decode([]byte(c.config.PrivateKeyPEM))
	if block == nil {
		return "", fmt.Errorf("invalid creditor private key PEM")
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return "", fmt.Errorf("parse creditor private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return "", fmt.Errorf("creditor private key is not RSA")
	}

	digest := sha256.Sum256([]byte(message))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

func (c *ConnectIPSGateway) Pay(ctx context.Context, params PaymentParams) (*Result, error) {
	if params.TransactionID == "" {
		return nil, NewPaymentError("CONNECTIPS_PAYMENT_ERROR", "connectips requires a transaction id")
	}

	// Amount in paisa, date in the DD-MM-YYYY form the gateway expects.
	amountPaisa := int(math.Round(params.Amount * 100))
	txnDate := time.Now().Format("02-01-2006")
	remarks := params.Extra["remarks"]
	if remarks == "" {
		remarks = "payment"
	}

	message := fmt.Sprintf("MERCHANTID=%s,APPID=%s,APPNAME=%s,TXNID=%s,TXNDATE=%s,TXNCRNCY=%s,TXNAMT=%d,REFERENCEID=%s,REMARKS=%s,PARTICULARS=%s,TOKEN=TOKEN",
		c.config.MerchantID, c.config.AppID, c.config.AppName, params.TransactionID,
		txnDate, params.Currency, amountPaisa, params.TransactionID, remarks, remarks)

	token, err := c.signToken(message)
	if err != nil {
		return nil, NewPaymentError("CONNECTIPS_PAYMENT_ERROR", err.Error())
	}

	return &Result{
		Gateway: GatewayConnectIPS,
		Status:  StatusSuccess,
		Params: map[string]any{
			"payment_url": c.baseURL + "/connectipswebgw/loginpage",
			"MERCHANTID":  c.config.MerchantID,
			"APPID":       c.config.AppID,
			"APPNAME":     c.config.AppName,
			"TXNID":       params.TransactionID,
			"TXNDATE":     txnDate,
			"TXNCRNCY":    params.Currency,
			"TXNAMT":      amountPaisa,
			"REFERENCEID": params.TransactionID,
			"REMARKS":     remarks,
			"PARTICULARS": remarks,
			"TOKEN":       token,
		},
		Message: "payment initiated",
	}, nil
}

func (c *ConnectIPSGateway) Verify(ctx context.Context, params VerifyParams) (*Result, error) {
	payload := map[string]any{
		"merchantId":  c.config.MerchantID,
		"appId":       c.config.AppID,
		"referenceId": params.TransactionID,
		"txnAmt":      int(math.Round(params.Amount * 100)),
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/connectipswebws/api/creditor/validatetxn", bytes.NewBuffer(body))
	if err != nil {
		return nil, NewPaymentError("CONNECTIPS_VERIFY_ERROR", err.Error())
	}
	req.SetBasicAuth(c.config.AppID, c.config.Password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewPaymentError("CONNECTIPS_VERIFY_ERROR", fmt.Sprintf("connectips validate request: %v", err))
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, NewPaymentError("CONNECTIPS_VERIFY_ERROR",
			fmt.Sprintf("connectips validate failed: http=%d body=%s", resp.StatusCode, string(raw)))
	}

	var res struct {
		Status       string `json:"status"`
		StatusDesc   string `json:"statusDesc"`
		TxnAmt       string `json:"txnAmt"`
		ReferenceID  string `json:"referenceId"`
		CreditStatus string `json:"creditStatus"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, NewPaymentError("CONNECTIPS_VERIFY_ERROR",
			fmt.Sprintf("connectips validate decode: %v body=%s", err, string(raw)))
	}

	status := StatusFailure
	if strings.EqualFold(res.Status, "SUCCESS") {
		status = StatusSuccess
	}

	return &Result{
		Gateway: GatewayConnectIPS,
		Status:  status,
		Params: map[string]any{
			"reference_id":  res.ReferenceID,
			"txn_amt":       res.TxnAmt,
			"status":        res.Status,
			"status_desc":   res.StatusDesc,
			"credit_status": res.CreditStatus,
		},
		Message: "payment verification result",
	}, nil
}

func (c *ConnectIPSGateway) Refund(ctx context.Context, params RefundParams) (*Result, error) {
	// Refunds are handled on the bank side; the web gateway has no refund
	// endpoint for creditors.
	return nil, NewPaymentError("CONNECTIPS_REFUND_UNSUPPORTED", "connectips refund is not supported via the web gateway API")
}
