// Package service orchestrates the product ledger: registration, custody
// transfer coupled to payment, certification, and the pricing/availability
// flags. All mutations run inside the store's Execute primitive so no
// partial state is ever committed.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"agritrace/internal/ledger/metrics"
	"agritrace/internal/ledger/models"
	"agritrace/internal/ledger/store"
	"agritrace/internal/payments"
	id "agritrace/pkg/domain"
	dErrors "agritrace/pkg/domain-errors"
	"agritrace/pkg/platform/sentinel"
	"agritrace/pkg/requestcontext"
)

// Notifier receives ledger events after a mutation commits. Delivery is
// fire-and-forget: emit errors are logged and never fail the operation.
type Notifier interface {
	Emit(ctx context.Context, event models.Event) error
}

// FarmerRegistry answers whether a principal may register products. When
// configured, Register is role-gated.
type FarmerRegistry interface {
	IsVerified(ctx context.Context, farmer id.Principal) (bool, error)
}

// Service is the product ledger engine.
type Service struct {
	products store.ProductStore
	bank     payments.Transferer
	logger   *slog.Logger
	notifier Notifier
	metrics  *metrics.Metrics
	farmers  FarmerRegistry
	tracer   trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithFarmerRegistry switches on role-gated registration: only verified
// farmers may register products.
func WithFarmerRegistry(farmers FarmerRegistry) Option {
	return func(s *Service) { s.farmers = farmers }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

// New constructs a Service. bank may be nil; payment transfers then fail
// with CodeTransferFailed.
func New(products store.ProductStore, bank payments.Transferer, opts ...Option) *Service {
	s := &Service{products: products, bank: bank, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a product owned by its producer and returns it with the
// allocated sequential ID. When a farmer registry is configured, the caller
// must be verified.
func (s *Service) Register(ctx context.Context, caller id.Principal, name, origin string, harvestedAt time.Time, price uint64, certifications []string) (*models.Product, error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "ledger.Register")
	defer span.End()

	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller principal is required")
	}
	if s.farmers != nil {
		verified, err := s.farmers.IsVerified(ctx, caller)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check farmer verification")
		}
		if !verified {
			return nil, dErrors.New(dErrors.CodeForbidden, "caller is not a verified farmer")
		}
	}

	now := requestcontext.Now(ctx)
	product, err := models.NewProduct(caller, name, origin, harvestedAt, price, certifications, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	productID, err := s.products.Create(ctx, product)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store product")
	}
	span.SetAttributes(attribute.Int64("product.id", int64(productID)))

	s.logger.InfoContext(ctx, "product registered",
		"event", string(models.EventRegistered),
		"product_id", productID.String(),
		"producer", caller.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, models.NewRegistered(product, now))
	if s.metrics != nil {
		s.metrics.IncrementRegistered()
		s.metrics.ObserveRegister(start)
	}
	return product, nil
}

// Transfer moves custody to newOwner against payment. The buyer posts
// payment, which must cover the current price; exactly the price moves from
// buyer to seller, so any excess never leaves the buyer's account. The value
// transfer happens under the store lock: if it fails, the custody change is
// discarded, and if the commit fails, no value has landed out of band —
// the operation is atomic end to end.
func (s *Service) Transfer(ctx context.Context, caller id.Principal, productID id.ProductID, newOwner id.Principal, payment uint64) (*models.Product, error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "ledger.Transfer",
		attribute.Int64("product.id", int64(productID)))
	defer span.End()

	now := requestcontext.Now(ctx)
	var price uint64

	product, err := s.products.Execute(ctx, productID, func(p *models.Product) error {
		if err := p.CanTransfer(caller, newOwner); err != nil {
			return err
		}
		if !p.Available {
			return dErrors.New(dErrors.CodeValidation, "product is not available for transfer")
		}
		if payment < p.Price {
			return dErrors.Newf(dErrors.CodeTransferFailed, "payment %d does not cover price %d", payment, p.Price)
		}
		price = p.Price
		if s.bank == nil {
			return dErrors.New(dErrors.CodeTransferFailed, "no value-transfer backend configured")
		}
		if err := s.bank.Transfer(ctx, newOwner, caller, p.Price); err != nil {
			return dErrors.Wrap(err, dErrors.CodeTransferFailed, "value transfer failed")
		}
		p.ApplyTransfer(newOwner, now)
		return nil
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementTransferFailures()
		}
		return nil, s.translate(err, "product not found", "transfer failed")
	}

	s.logger.InfoContext(ctx, "product transferred",
		"event", string(models.EventTransferred),
		"product_id", productID.String(),
		"from", caller.String(),
		"to", newOwner.String(),
		"price", price,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, models.NewTransferred(productID, caller, newOwner, price, now))
	if s.metrics != nil {
		s.metrics.IncrementTransfers()
		s.metrics.ObserveTransfer(start)
	}
	return product, nil
}

// TransferWithPrice is the administrative custody change: ownership moves and
// the asking price is reset, with no value movement. The availability flag is
// not consulted.
func (s *Service) TransferWithPrice(ctx context.Context, caller id.Principal, productID id.ProductID, newOwner id.Principal, newPrice uint64) (*models.Product, error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "ledger.TransferWithPrice",
		attribute.Int64("product.id", int64(productID)))
	defer span.End()

	now := requestcontext.Now(ctx)

	product, err := s.products.Execute(ctx, productID, func(p *models.Product) error {
		if err := p.CanTransfer(caller, newOwner); err != nil {
			return err
		}
		if newPrice == 0 {
			return dErrors.New(dErrors.CodeValidation, "new price must be positive")
		}
		p.ApplySetPrice(newPrice, now)
		p.ApplyTransfer(newOwner, now)
		return nil
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementTransferFailures()
		}
		return nil, s.translate(err, "product not found", "transfer failed")
	}

	s.logger.InfoContext(ctx, "product transferred with price reset",
		"event", string(models.EventTransferred),
		"product_id", productID.String(),
		"from", caller.String(),
		"to", newOwner.String(),
		"price", newPrice,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, models.NewTransferred(productID, caller, newOwner, newPrice, now))
	if s.metrics != nil {
		s.metrics.IncrementTransfers()
		s.metrics.ObserveTransfer(start)
	}
	return product, nil
}

// Certify appends a certification label to the product. Owner only.
func (s *Service) Certify(ctx context.Context, caller id.Principal, productID id.ProductID, certification string) (*models.Product, error) {
	ctx, span := s.startSpan(ctx, "ledger.Certify",
		attribute.Int64("product.id", int64(productID)))
	defer span.End()

	now := requestcontext.Now(ctx)

	product, err := s.products.Execute(ctx, productID, func(p *models.Product) error {
		if err := p.CanCertify(caller, certification); err != nil {
			return err
		}
		p.ApplyCertification(certification, now)
		return nil
	})
	if err != nil {
		return nil, s.translate(err, "product not found", "certification failed")
	}

	s.emit(ctx, models.NewVerified(productID, certification, now))
	if s.metrics != nil {
		s.metrics.IncrementCertifications()
	}
	return product, nil
}

// SetPrice updates the asking price. Owner only. Emits no event.
func (s *Service) SetPrice(ctx context.Context, caller id.Principal, productID id.ProductID, price uint64) (*models.Product, error) {
	now := requestcontext.Now(ctx)

	product, err := s.products.Execute(ctx, productID, func(p *models.Product) error {
		if err := p.CanSetPrice(caller, price); err != nil {
			return err
		}
		p.ApplySetPrice(price, now)
		return nil
	})
	if err != nil {
		return nil, s.translate(err, "product not found", "price update failed")
	}
	return product, nil
}

// SetAvailability updates the availability flag. Owner only. Emits no event.
func (s *Service) SetAvailability(ctx context.Context, caller id.Principal, productID id.ProductID, available bool) (*models.Product, error) {
	now := requestcontext.Now(ctx)

	product, err := s.products.Execute(ctx, productID, func(p *models.Product) error {
		if err := p.CanSetAvailability(caller); err != nil {
			return err
		}
		p.ApplySetAvailability(available, now)
		return nil
	})
	if err != nil {
		return nil, s.translate(err, "product not found", "availability update failed")
	}
	return product, nil
}

// Get returns a snapshot of the product.
func (s *Service) Get(ctx context.Context, productID id.ProductID) (*models.Product, error) {
	start := time.Now()
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product")
	}
	if s.metrics != nil {
		s.metrics.ObserveLookup(start)
	}
	return product, nil
}

// History returns the product's chain of custody, oldest first.
func (s *Service) History(ctx context.Context, productID id.ProductID) ([]id.Principal, error) {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	return product.History, nil
}

// Total returns the number of products ever registered. IDs are dense, so
// every ID in [1, Total] resolves.
func (s *Service) Total(ctx context.Context) (uint64, error) {
	total, err := s.products.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count products")
	}
	return total, nil
}

// translate maps store-level errors to coded domain errors. Callback errors
// already carry codes and pass through unchanged.
func (s *Service) translate(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}

func (s *Service) emit(ctx context.Context, event models.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit ledger event",
			"event", string(event.Type),
			"product_id", event.ProductID.String(),
			"error", err,
		)
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if s.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
