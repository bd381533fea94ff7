package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProductStatus mirrors the storefront listing lifecycle. Transitions are
// driven by the checkout/listing flows, never by the auction engine: the
// engine only ever moves CurrentPrice.
type ProductStatus string

const (
	StatusActive   ProductStatus = "active"
	StatusPending  ProductStatus = "pending"
	StatusSold     ProductStatus = "sold"
	StatusInactive ProductStatus = "inactive"
	StatusReported ProductStatus = "reported"
)

// Product holds the auction-relevant slice of a storefront listing.
// IsAuction is immutable after creation; a nil AuctionEndTime means no clock
// applies to the listing.
type Product struct {
	ID             uuid.UUID
	SellerID       uuid.UUID
	Title          string
	Description    string
	StartingPrice  float64
	CurrentPrice   float64 //non-decreasing once the first bid lands
	IsAuction      bool
	AuctionEndTime *time.Time
	Status         ProductStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewProduct(id, sellerID uuid.UUID, title, description string, startingPrice float64, isAuction bool, endTime *time.Time) *Product {
	return &Product{
		ID:             id,
		SellerID:       sellerID,
		Title:          title,
		Description:    description,
		StartingPrice:  startingPrice,
		CurrentPrice:   startingPrice, //current price starts at starting price
		IsAuction:      isAuction,
		AuctionEndTime: endTime,
		Status:         StatusActive,
	}
}

// Open reports whether the auction still accepts bids at the given instant.
func (p *Product) Open(now time.Time) bool {
	return IsOpen(p.AuctionEndTime, now)
}

// ValidateBid runs the business checks for a candidate bid against the state
// this copy of the product was read at. The persistence gateway re-checks all
// of it atomically on write; this pass exists to hand the caller a precise
// reason without paying for a write.
func (p *Product) ValidateBid(amount float64, now time.Time) error {
	if !p.IsAuction {
		return ErrNotAuction
	}
	if IsEnded(p.AuctionEndTime, now) {
		return ErrAuctionClosed
	}
	// strict inequality: matching the current price is not enough
	if amount <= p.CurrentPrice {
		return &PriceError{Err: ErrInvalidAmount, CurrentPrice: p.CurrentPrice}
	}
	return nil
}
