// Package handler exposes the product ledger over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"agritrace/internal/ledger/models"
	id "agritrace/pkg/domain"
	dErrors "agritrace/pkg/domain-errors"
	"agritrace/pkg/platform/httputil"
	"agritrace/pkg/requestcontext"
)

// Service defines the ledger operations the handler depends on.
type Service interface {
	Register(ctx context.Context, caller id.Principal, name, origin string, harvestedAt time.Time, price uint64, certifications []string) (*models.Product, error)
	Transfer(ctx context.Context, caller id.Principal, productID id.ProductID, newOwner id.Principal, payment uint64) (*models.Product, error)
	TransferWithPrice(ctx context.Context, caller id.Principal, productID id.ProductID, newOwner id.Principal, newPrice uint64) (*models.Product, error)
	Certify(ctx context.Context, caller id.Principal, productID id.ProductID, certification string) (*models.Product, error)
	SetPrice(ctx context.Context, caller id.Principal, productID id.ProductID, price uint64) (*models.Product, error)
	SetAvailability(ctx context.Context, caller id.Principal, productID id.ProductID, available bool) (*models.Product, error)
	Get(ctx context.Context, productID id.ProductID) (*models.Product, error)
	History(ctx context.Context, productID id.ProductID) ([]id.Principal, error)
	Total(ctx context.Context) (uint64, error)
}

// Handler wires ledger endpoints to the ledger service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a ledger handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts ledger endpoints. Reads are public; mutations go through
// the auth middleware so the caller principal is resolved from the bearer
// token.
func (h *Handler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/count", h.HandleCount)
		r.Get("/{id}", h.HandleGet)
		r.Get("/{id}/history", h.HandleHistory)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/", h.HandleRegister)
			r.Post("/{id}/transfer", h.HandleTransfer)
			r.Post("/{id}/transfer/reprice", h.HandleTransferReprice)
			r.Post("/{id}/certifications", h.HandleCertify)
			r.Put("/{id}/availability", h.HandleAvailability)
			r.Put("/{id}/price", h.HandlePrice)
		})
	})
}

// HandleRegister handles POST /products.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	product, err := h.service.Register(ctx, caller, req.Name, req.Origin, req.HarvestedAt, req.Price, req.Certifications)
	if err != nil {
		h.logger.ErrorContext(ctx, "product registration failed",
			"request_id", requestID,
			"caller", caller.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"product_id": product.ID})
}

// HandleGet handles GET /products/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	product, err := h.service.Get(ctx, productID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, product)
}

// HandleHistory handles GET /products/{id}/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	owners, err := h.service.History(ctx, productID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"owners": owners})
}

// HandleCount handles GET /products/count.
func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.Total(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"total": total})
}

// HandleTransfer handles POST /products/{id}/transfer.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if _, err := h.service.Transfer(ctx, caller, productID, req.ParsedNewOwner(), req.Payment); err != nil {
		h.logger.WarnContext(ctx, "product transfer rejected",
			"request_id", requestID,
			"product_id", productID.String(),
			"caller", caller.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTransferReprice handles POST /products/{id}/transfer/reprice.
func (h *Handler) HandleTransferReprice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RepriceTransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if _, err := h.service.TransferWithPrice(ctx, caller, productID, req.ParsedNewOwner(), req.NewPrice); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCertify handles POST /products/{id}/certifications.
func (h *Handler) HandleCertify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CertifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if _, err := h.service.Certify(ctx, caller, productID, req.Certification); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAvailability handles PUT /products/{id}/availability.
func (h *Handler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AvailabilityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if _, err := h.service.SetAvailability(ctx, caller, productID, *req.Available); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePrice handles PUT /products/{id}/price.
func (h *Handler) HandlePrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(w, ctx)
	if !ok {
		return
	}
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[PriceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if _, err := h.service.SetPrice(ctx, caller, productID, req.Price); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requireCaller(w http.ResponseWriter, ctx context.Context) (id.Principal, bool) {
	caller := requestcontext.Principal(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return caller, true
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (id.ProductID, bool) {
	productID, err := id.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return productID, true
}
