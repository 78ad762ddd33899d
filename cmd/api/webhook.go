package main

import (
	"errors"
	"net/http"
	"strings"

	"payhub/internal/cache"
	"payhub/internal/payments"
)

// webhookReference extracts the provider-side identifier used for
// idempotency: Khalti redirects with pidx, eSewa with transaction_uuid or
// refId, the bank aggregator posts payment_id.
func webhookReference(gateway string, payload map[string]any) string {
	keys := []string{"pidx", "transaction_uuid", "refId", "payment_id", "txnId"}
	for _, k := range keys {
		if v, ok := payload[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func (app *application) paymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Prefer the query param; fall back to a body field.
	gateway := r.URL.Query().Get("gateway")
	payload := make(map[string]any)

	switch {
	case r.Method == http.MethodGet:
		for k, v := range r.URL.Query() {
			if len(v) > 0 {
				payload[k] = v[0]
			}
		}
	// some gateways send form-encoded callbacks; the body can only be
	// consumed once, so pick the parser up front from the content type
	case strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		for k, vals := range r.PostForm {
			if len(vals) > 0 {
				payload[k] = vals[0]
			}
		}
	default:
		if err := readJSON(w, r, &payload); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}
	if gateway == "" {
		if g, ok := payload["gateway"].(string); ok {
			gateway = g
		}
	}

	// Providers redeliver webhooks; skip references already processed.
	reference := webhookReference(gateway, payload)
	if app.idempotency != nil && reference != "" {
		duplicate, err := app.idempotency.Begin(ctx, gateway, reference)
		if err != nil && !errors.Is(err, cache.ErrInProgress) {
			app.internalServerError(w, r, err)
			return
		}
		if duplicate {
			app.logger.Infow("duplicate webhook skipped", "gateway", gateway, "reference", reference)
			writeJSON(w, http.StatusOK, payments.WebhookAck{Received: true})
			return
		}
	}

	ack, err := app.webhooks.Process(gateway, payload, r.Header)
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	if app.idempotency != nil && reference != "" {
		if err := app.idempotency.Complete(ctx, gateway, reference); err != nil {
			app.logger.Errorw("webhook idempotency mark failed", "gateway", gateway, "reference", reference, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, ack)
}
