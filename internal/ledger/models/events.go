package models

import (
	"time"

	id "agritrace/pkg/domain"
)

// EventType names an entry on the notification stream.
type EventType string

const (
	EventRegistered     EventType = "product_registered"
	EventTransferred    EventType = "product_transferred"
	EventVerified       EventType = "product_verified"
	EventFarmerVerified EventType = "farmer_verified"
)

// Event is an immutable notification record emitted after a successful
// mutation commits. Delivery is fire-and-forget from the ledger's
// perspective; sinks provide their own durability.
//
// Price and availability updates intentionally emit nothing.
type Event struct {
	Type      EventType    `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	ProductID id.ProductID `json:"product_id,omitempty"`

	// Registered
	Name     string       `json:"name,omitempty"`
	Producer id.Principal `json:"producer,omitempty"`

	// Transferred
	From  id.Principal `json:"from,omitempty"`
	To    id.Principal `json:"to,omitempty"`
	Price uint64       `json:"price,omitempty"`

	// Verified
	Certification string `json:"certification,omitempty"`

	// FarmerVerified
	Farmer id.Principal `json:"farmer,omitempty"`
}

// NewRegistered builds the event for a freshly registered product.
func NewRegistered(p *Product, now time.Time) Event {
	return Event{
		Type:      EventRegistered,
		Timestamp: now,
		ProductID: p.ID,
		Name:      p.Name,
		Producer:  p.Producer,
	}
}

// NewTransferred builds the event for a committed custody change. price is
// the amount that moved (the sale price), or the reset price in the
// administrative variant.
func NewTransferred(productID id.ProductID, from, to id.Principal, price uint64, now time.Time) Event {
	return Event{
		Type:      EventTransferred,
		Timestamp: now,
		ProductID: productID,
		From:      from,
		To:        to,
		Price:     price,
	}
}

// NewVerified builds the event for an appended certification.
func NewVerified(productID id.ProductID, certification string, now time.Time) Event {
	return Event{
		Type:          EventVerified,
		Timestamp:     now,
		ProductID:     productID,
		Certification: certification,
	}
}

// NewFarmerVerified builds the event for an admin-approved farmer.
func NewFarmerVerified(farmer id.Principal, now time.Time) Event {
	return Event{
		Type:      EventFarmerVerified,
		Timestamp: now,
		Farmer:    farmer,
	}
}
