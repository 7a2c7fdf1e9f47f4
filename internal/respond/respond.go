// Package respond writes the JSON envelopes returned by every endpoint.
package respond

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
)

// Envelope wraps successful responses.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorEnvelope wraps failed responses.
type ErrorEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Errors     any    `json:"errors"`
	Success    bool   `json:"success"`
}

// Success writes data in a success envelope.
func Success(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	JSON(ctx, w, status, Envelope{StatusCode: status, Data: data, Message: message, Success: true})
}

// Error normalises err and writes it in a failure envelope.
func Error(ctx context.Context, w http.ResponseWriter, err error) {
	appErr := apperr.From(err)
	status := apperr.Status(appErr)

	var details any = []string{}
	if len(appErr.Fields) > 0 {
		details = appErr.Fields
	}

	logger := logging.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "kind", appErr.Kind, "message", appErr.Message, "error", appErr.Err)
	} else {
		logger.Warn("request rejected", "kind", appErr.Kind, "message", appErr.Message)
	}

	JSON(ctx, w, status, ErrorEnvelope{StatusCode: status, Message: appErr.Message, Errors: details, Success: false})
}

// JSON encodes payload with status. Callers writing error statuses log them.
func JSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}
