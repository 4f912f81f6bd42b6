// Package httpapi holds the JSON envelopes shared by the feature handlers.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"esgrag/internal/middleware"
)

type Meta struct {
	Count int `json:"count"`
}

type DataEnvelope struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorEnvelope struct {
	Error         ErrorBody `json:"error"`
	CorrelationID string    `json:"correlationId"`
}

// WriteData writes {"data": data} with status.
func WriteData(ctx context.Context, w http.ResponseWriter, status int, data any) {
	write(ctx, w, status, DataEnvelope{Data: data})
}

// WriteList writes a list with its count under meta.
func WriteList(ctx context.Context, w http.ResponseWriter, data any, count int) {
	write(ctx, w, http.StatusOK, DataEnvelope{Data: data, Meta: &Meta{Count: count}})
}

// WriteError writes the error envelope tagged with the request correlation id.
func WriteError(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	write(ctx, w, status, ErrorEnvelope{
		Error:         ErrorBody{Code: code, Message: message},
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
}

func write(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
