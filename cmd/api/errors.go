package main

import (
	"errors"
	"net/http"

	"payhub/internal/payments"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusNotFound, "not found")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)
	w.Header().Set("Retry-After", retryAfter)
	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter)
}

// paymentErrorResponse renders dispatch and webhook failures: the typed
// error's declared status (500 when unset) with an {error, code} body.
func (app *application) paymentErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var perr *payments.PaymentError
	if !errors.As(err, &perr) {
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Warnw("payment error", "method", r.Method, "path", r.URL.Path, "code", perr.Code, "error", perr.Message)

	type envelope struct {
		Error string `json:"error"`
		Code  string `json:"code,omitempty"`
	}
	writeJSON(w, perr.HTTPStatus(), &envelope{Error: perr.Message, Code: perr.Code})
}
