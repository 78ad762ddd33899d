package main

import (
	"fmt"
	"net/http"

	"payhub/internal/payments"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CheckoutPayload struct {
	Gateway       string            `json:"gateway" validate:"required"`
	Amount        float64           `json:"amount" validate:"required,gt=0"`
	Currency      string            `json:"currency" validate:"required,currency_code"`
	ReturnURL     string            `json:"return_url" validate:"required,url"`
	TransactionID string            `json:"transaction_id"`
	Extra         map[string]string `json:"extra"`
}

type VerifyPayload struct {
	Gateway       string            `json:"gateway" validate:"required"`
	TransactionID string            `json:"transaction_id" validate:"required"`
	Amount        float64           `json:"amount" validate:"required,gt=0"`
	Extra         map[string]string `json:"extra"`
}

type RefundPayload struct {
	Gateway       string            `json:"gateway" validate:"required"`
	TransactionID string            `json:"transaction_id" validate:"required"`
	Amount        float64           `json:"amount" validate:"required,gt=0"`
	Extra         map[string]string `json:"extra"`
}

func (app *application) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	var payload CheckoutPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// The SDK treats the transaction id as a caller-supplied correlation
	// key, so mint one here when the client did not.
	if payload.TransactionID == "" {
		payload.TransactionID = uuid.NewString()
	}

	result, err := app.sdk.Pay(r.Context(), payments.PaymentParams{
		Gateway:       payload.Gateway,
		Amount:        payload.Amount,
		Currency:      payload.Currency,
		ReturnURL:     payload.ReturnURL,
		TransactionID: payload.TransactionID,
		Extra:         payload.Extra,
	})
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	// Recording the outcome is the caller's job; dispatch never writes the
	// ledger on its own.
	app.sdk.AddTransaction(payments.TransactionRecord{
		Gateway:       result.Gateway,
		Status:        result.Status,
		Params:        result.Params,
		Message:       result.Message,
		TransactionID: payload.TransactionID,
	})

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"transaction_id": payload.TransactionID,
		"result":         result,
	})
}

func (app *application) verifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var payload VerifyPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	result, err := app.sdk.Verify(r.Context(), payments.VerifyParams{
		Gateway:       payload.Gateway,
		TransactionID: payload.TransactionID,
		Amount:        payload.Amount,
		Extra:         payload.Extra,
	})
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	app.sdk.UpdateTransaction(payload.TransactionID, payments.TransactionPatch{
		Status:  &result.Status,
		Message: &result.Message,
	})

	app.jsonResponse(w, http.StatusOK, result)
}

func (app *application) refundPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var payload RefundPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	result, err := app.sdk.Refund(r.Context(), payments.RefundParams{
		Gateway:       payload.Gateway,
		TransactionID: payload.TransactionID,
		Amount:        payload.Amount,
		Extra:         payload.Extra,
	})
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	app.sdk.UpdateTransaction(payload.TransactionID, payments.TransactionPatch{
		Status:  &result.Status,
		Message: &result.Message,
	})

	app.jsonResponse(w, http.StatusOK, result)
}

func (app *application) listTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	app.jsonResponse(w, http.StatusOK, app.sdk.ListTransactions())
}

func (app *application) getTransactionHandler(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionID")

	record, ok := app.sdk.GetTransaction(transactionID)
	if !ok {
		app.notFoundResponse(w, r, fmt.Errorf("transaction not found: %s", transactionID))
		return
	}

	app.jsonResponse(w, http.StatusOK, record)
}
