package handler

import (
	"strings"
	"time"

	id "agritrace/pkg/domain"
	dErrors "agritrace/pkg/domain-errors"
)

// RegisterRequest is the HTTP request body for POST /products.
type RegisterRequest struct {
	Name           string    `json:"name"`
	Origin         string    `json:"origin"`
	HarvestedAt    time.Time `json:"harvested_at"`
	Price          uint64    `json:"price"`
	Certifications []string  `json:"certifications"`
}

// Validate normalizes and checks boundary-level fields. Domain invariants
// (future harvest, ownership) are enforced by the model constructor.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	r.Origin = strings.TrimSpace(r.Origin)
	if r.Origin == "" {
		return dErrors.New(dErrors.CodeValidation, "origin is required")
	}
	if r.HarvestedAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "harvested_at is required")
	}
	if r.Price == 0 {
		return dErrors.New(dErrors.CodeValidation, "price must be positive")
	}
	return nil
}

// TransferRequest is the HTTP request body for POST /products/{id}/transfer.
type TransferRequest struct {
	NewOwner string `json:"new_owner"`
	Payment  uint64 `json:"payment"`

	parsedNewOwner id.Principal
}

func (r *TransferRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	newOwner, err := id.ParsePrincipal(r.NewOwner)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "new_owner is required")
	}
	r.parsedNewOwner = newOwner
	return nil
}

// ParsedNewOwner returns the validated target principal.
func (r *TransferRequest) ParsedNewOwner() id.Principal {
	return r.parsedNewOwner
}

// RepriceTransferRequest is the HTTP request body for
// POST /products/{id}/transfer/reprice.
type RepriceTransferRequest struct {
	NewOwner string `json:"new_owner"`
	NewPrice uint64 `json:"new_price"`

	parsedNewOwner id.Principal
}

func (r *RepriceTransferRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	newOwner, err := id.ParsePrincipal(r.NewOwner)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "new_owner is required")
	}
	if r.NewPrice == 0 {
		return dErrors.New(dErrors.CodeValidation, "new_price must be positive")
	}
	r.parsedNewOwner = newOwner
	return nil
}

// ParsedNewOwner returns the validated target principal.
func (r *RepriceTransferRequest) ParsedNewOwner() id.Principal {
	return r.parsedNewOwner
}

// CertifyRequest is the HTTP request body for POST /products/{id}/certifications.
type CertifyRequest struct {
	Certification string `json:"certification"`
}

func (r *CertifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Certification = strings.TrimSpace(r.Certification)
	if r.Certification == "" {
		return dErrors.New(dErrors.CodeValidation, "certification is required")
	}
	return nil
}

// AvailabilityRequest is the HTTP request body for PUT /products/{id}/availability.
type AvailabilityRequest struct {
	Available *bool `json:"available"`
}

func (r *AvailabilityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Available == nil {
		return dErrors.New(dErrors.CodeValidation, "available is required")
	}
	return nil
}

// PriceRequest is the HTTP request body for PUT /products/{id}/price.
type PriceRequest struct {
	Price uint64 `json:"price"`
}

func (r *PriceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Price == 0 {
		return dErrors.New(dErrors.CodeValidation, "price must be positive")
	}
	return nil
}
