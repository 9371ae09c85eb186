// Package httputil provides shared HTTP response and request-decoding
// helpers so handlers stay focused on wiring.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "agritrace/pkg/domain-errors"
)

// errorResponse is the error envelope every endpoint returns.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a coded domain error to its HTTP status and writes the
// error envelope. Internal errors mask the message so infrastructure detail
// never leaks to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := errorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		resp.Message = err.Error()
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}

// Validatable is implemented by request types that validate and normalize
// themselves after decoding.
type Validatable interface {
	Validate() error
}

// validatablePtr constrains PT to be *T implementing Validatable, so
// DecodeAndPrepare can be called with the struct type alone.
type validatablePtr[T any] interface {
	*T
	Validatable
}

// DecodeAndPrepare decodes the JSON body into T and runs its Validate hook.
// On failure it writes the error response and returns false; the handler
// should just return.
func DecodeAndPrepare[T any, PT validatablePtr[T]](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (PT, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "failed to decode request body",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	p := PT(&req)
	if err := p.Validate(); err != nil {
		WriteError(w, err)
		return nil, false
	}
	return p, true
}
