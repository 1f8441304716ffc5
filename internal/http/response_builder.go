// Package http provides HTTP server and handler implementations.
//
// This file implements a small builder for JSON responses and the mapping
// from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"organizapay/internal/auth"
	"organizapay/internal/core"
	"organizapay/internal/finance"
	"organizapay/internal/log"
)

// Error kinds reported by the API in addition to finance.Kind.
const (
	kindBadRequest = "bad_request"
	kindConflict   = "conflict"
	kindInternal   = "internal"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
	cookies    []*http.Cookie
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Cookie adds a Set-Cookie header.
func (b *JSONResponseBuilder) Cookie(c *http.Cookie) *JSONResponseBuilder {
	b.cookies = append(b.cookies, c)
	return b
}

// Body sets the value encoded as the response body. A nil body writes no
// content.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	for _, c := range b.cookies {
		http.SetCookie(w, c)
	}

	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"encode response","kind":"internal"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n"))
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, kind, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{Error: message, Kind: kind})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, kindBadRequest, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, kindInternal, message)
}

// NoContent creates a 204 response.
func NoContent() *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusNoContent)
}

// statusFor maps finance error kinds to HTTP status codes.
var statusFor = map[finance.Kind]int{
	finance.KindUnauthorized: http.StatusUnauthorized,
	finance.KindValidation:   http.StatusUnprocessableEntity,
	finance.KindPlanLimit:    http.StatusForbidden,
	finance.KindNotFound:     http.StatusNotFound,
	finance.KindTransport:    http.StatusBadGateway,
}

// ErrorFromDomain builds the response for an error returned by the auth
// service, the finance controller or the request decoders.
func ErrorFromDomain(err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, errBadRequest):
		return BadRequestError(err.Error())
	case errors.Is(err, auth.ErrUserExists):
		return ErrorResponse(http.StatusConflict, kindConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return ErrorResponse(http.StatusUnauthorized, string(finance.KindUnauthorized), err.Error())
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrEmptyName):
		return ErrorResponse(http.StatusUnprocessableEntity, string(finance.KindValidation), err.Error())
	}

	kind := finance.KindOf(err)
	status, ok := statusFor[kind]
	if !ok {
		return InternalServerError("internal error")
	}

	msg := err.Error()
	var limit *core.PlanLimitError
	switch {
	case errors.As(err, &limit):
		msg = limit.Message()
	case errors.Is(err, finance.ErrPremiumRequired):
		msg = "Recurso disponível apenas no plano Premium."
	case kind == finance.KindTransport:
		// Store details stay in the logs.
		msg = "storage unavailable"
	}
	return ErrorResponse(status, string(kind), msg)
}

// writeError logs err against the request and writes its response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorFromDomain(err)
	logger := log.FromContext(r.Context())
	if resp.statusCode >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err, log.FieldPath, r.URL.Path)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", log.FieldError, err, log.FieldStatusCode, resp.statusCode)
	}
	resp.Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}
