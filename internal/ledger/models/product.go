package models

import (
	"time"

	id "agritrace/pkg/domain"
	dErrors "agritrace/pkg/domain-errors"
)

// Product is the aggregate root for a tracked good.
//
// Invariants:
//   - ID is a dense positive integer assigned by the store; immutable
//   - Name and Origin are non-empty; immutable after registration
//   - Producer is the registering principal; immutable
//   - HarvestedAt is never later than the registration time; immutable
//   - Price is strictly positive
//   - Organic is set at registration and never cleared
//   - Certifications is append-only; order of addition is preserved
//   - History is append-only, seeded with Producer; len(History) equals the
//     number of successful transfers plus one
//   - History[len(History)-1] always equals Owner
//
// Custody changes go through CanTransfer/ApplyTransfer so the history
// invariant cannot be broken by direct field writes. The store's Execute
// method holds the lock (mutex or FOR UPDATE) across both steps.
type Product struct {
	ID             id.ProductID   `json:"id"`
	Name           string         `json:"name"`
	Origin         string         `json:"origin"`
	Producer       id.Principal   `json:"producer"`
	HarvestedAt    time.Time      `json:"harvested_at"`
	Price          uint64         `json:"price"`
	Owner          id.Principal   `json:"owner"`
	Available      bool           `json:"available"`
	Organic        bool           `json:"organic"`
	Certifications []string       `json:"certifications"`
	History        []id.Principal `json:"history"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewProduct validates registration input and returns a product owned by its
// producer, with the ownership history seeded.
func NewProduct(producer id.Principal, name, origin string, harvestedAt time.Time, price uint64, certifications []string, now time.Time) (*Product, error) {
	if producer.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "producer principal is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "product name cannot be empty")
	}
	if origin == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "product origin cannot be empty")
	}
	if harvestedAt.After(now) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "harvest date cannot be in the future")
	}
	if price == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "price must be positive")
	}
	return &Product{
		Name:           name,
		Origin:         origin,
		Producer:       producer,
		HarvestedAt:    harvestedAt,
		Price:          price,
		Owner:          producer,
		Available:      true,
		Organic:        true,
		Certifications: append([]string(nil), certifications...),
		History:        []id.Principal{producer},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsOwnedBy reports whether the caller holds custody of the product.
func (p *Product) IsOwnedBy(caller id.Principal) bool {
	return !caller.IsZero() && p.Owner == caller
}

// CanTransfer checks the custody-change preconditions shared by both transfer
// variants. Returns an error if the transition is not allowed.
// Use with ApplyTransfer in Execute callbacks.
func (p *Product) CanTransfer(caller, newOwner id.Principal) error {
	if !p.IsOwnedBy(caller) {
		return dErrors.New(dErrors.CodeForbidden, "caller is not the current owner")
	}
	if newOwner.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "new owner principal is required")
	}
	if newOwner == caller {
		return dErrors.New(dErrors.CodeValidation, "cannot transfer product to yourself")
	}
	return nil
}

// ApplyTransfer hands custody to newOwner and appends it to the history.
// Call CanTransfer first to validate the transition.
func (p *Product) ApplyTransfer(newOwner id.Principal, now time.Time) {
	p.Owner = newOwner
	p.History = append(p.History, newOwner)
	p.UpdatedAt = now
}

// CanCertify checks that the caller may append a certification label.
func (p *Product) CanCertify(caller id.Principal, label string) error {
	if !p.IsOwnedBy(caller) {
		return dErrors.New(dErrors.CodeForbidden, "caller is not the current owner")
	}
	if label == "" {
		return dErrors.New(dErrors.CodeValidation, "certification label cannot be empty")
	}
	return nil
}

// ApplyCertification appends the label. Duplicates are permitted; the
// sequence records every assertion in order of addition.
func (p *Product) ApplyCertification(label string, now time.Time) {
	p.Certifications = append(p.Certifications, label)
	p.UpdatedAt = now
}

// CanSetPrice checks that the caller may re-price the product.
func (p *Product) CanSetPrice(caller id.Principal, price uint64) error {
	if !p.IsOwnedBy(caller) {
		return dErrors.New(dErrors.CodeForbidden, "caller is not the current owner")
	}
	if price == 0 {
		return dErrors.New(dErrors.CodeValidation, "price must be positive")
	}
	return nil
}

// ApplySetPrice updates the asking price.
func (p *Product) ApplySetPrice(price uint64, now time.Time) {
	p.Price = price
	p.UpdatedAt = now
}

// CanSetAvailability checks that the caller may flip the availability flag.
func (p *Product) CanSetAvailability(caller id.Principal) error {
	if !p.IsOwnedBy(caller) {
		return dErrors.New(dErrors.CodeForbidden, "caller is not the current owner")
	}
	return nil
}

// ApplySetAvailability updates the availability flag.
func (p *Product) ApplySetAvailability(available bool, now time.Time) {
	p.Available = available
	p.UpdatedAt = now
}

// Clone returns a deep copy so store snapshots never alias live state.
func (p *Product) Clone() *Product {
	clone := *p
	clone.Certifications = append([]string(nil), p.Certifications...)
	clone.History = append([]id.Principal(nil), p.History...)
	return &clone
}
