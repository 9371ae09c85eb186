// Package service orchestrates the verified-farmer registry. A single admin
// principal, fixed at construction, decides who may register products.
package service

import (
	"context"
	"errors"
	"log/slog"

	"agritrace/internal/farmer/store"
	"agritrace/internal/ledger/models"
	id "agritrace/pkg/domain"
	dErrors "agritrace/pkg/domain-errors"
	"agritrace/pkg/platform/sentinel"
	"agritrace/pkg/requestcontext"
)

// Notifier receives farmer registry events. Delivery is fire-and-forget.
type Notifier interface {
	Emit(ctx context.Context, event models.Event) error
}

// Service guards the verified-farmer set.
type Service struct {
	admin    id.Principal
	farmers  store.FarmerStore
	logger   *slog.Logger
	notifier Notifier
}

// Option configures optional collaborators.
type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

// New constructs a Service. admin is the only principal allowed to verify
// farmers; there is no way to change it after initialization.
func New(admin id.Principal, farmers store.FarmerStore, opts ...Option) *Service {
	s := &Service{admin: admin, farmers: farmers, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VerifyFarmer adds a principal to the verified set. Admin only. The set
// only grows; revocation does not exist.
func (s *Service) VerifyFarmer(ctx context.Context, caller, farmer id.Principal) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller principal is required")
	}
	if caller != s.admin {
		return dErrors.New(dErrors.CodeForbidden, "only the admin can verify farmers")
	}
	if farmer.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "farmer principal is required")
	}

	if err := s.farmers.Add(ctx, farmer); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "farmer is already verified")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify farmer")
	}

	s.emit(ctx, models.NewFarmerVerified(farmer, requestcontext.Now(ctx)))
	return nil
}

// IsVerified reports whether the principal may register products. The admin
// is implicitly trusted.
func (s *Service) IsVerified(ctx context.Context, farmer id.Principal) (bool, error) {
	if farmer.IsZero() {
		return false, nil
	}
	if farmer == s.admin {
		return true, nil
	}
	member, err := s.farmers.Contains(ctx, farmer)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check farmer verification")
	}
	return member, nil
}

func (s *Service) emit(ctx context.Context, event models.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit farmer event",
			"event", string(event.Type),
			"farmer", event.Farmer.String(),
			"error", err,
		)
	}
}
