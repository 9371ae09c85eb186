// Package handler exposes the verified-farmer registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "agritrace/pkg/domain"
	dErrors "agritrace/pkg/domain-errors"
	"agritrace/pkg/platform/httputil"
	"agritrace/pkg/requestcontext"
)

// Service defines the farmer registry operations the handler depends on.
type Service interface {
	VerifyFarmer(ctx context.Context, caller, farmer id.Principal) error
	IsVerified(ctx context.Context, farmer id.Principal) (bool, error)
}

// Handler wires farmer registry endpoints to the farmer service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a farmer handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts farmer endpoints. Verification is a mutation and goes
// through the auth middleware; the lookup is public.
func (h *Handler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Route("/farmers", func(r chi.Router) {
		r.Get("/{principal}", h.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/{principal}/verification", h.HandleVerify)
		})
	})
}

// HandleVerify handles POST /farmers/{principal}/verification. Admin only.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller := requestcontext.Principal(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	farmer, err := id.ParsePrincipal(chi.URLParam(r, "principal"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.VerifyFarmer(ctx, caller, farmer); err != nil {
		h.logger.WarnContext(ctx, "farmer verification rejected",
			"request_id", requestID,
			"caller", caller.String(),
			"farmer", farmer.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGet handles GET /farmers/{principal}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	farmer, err := id.ParsePrincipal(chi.URLParam(r, "principal"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	verified, err := h.service.IsVerified(ctx, farmer)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"principal": farmer,
		"verified":  verified,
	})
}
