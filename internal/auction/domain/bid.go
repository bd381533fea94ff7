package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Bid is a single accepted offer on an auction product. Bids are append-only:
// once stored they are never mutated or deleted, so the ledger stays the
// source of truth for ranking and winner determination.
type Bid struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	BidderID  uuid.UUID //user who placed the bid
	Amount    float64
	CreatedAt time.Time
}

// NewBid creates a new Bid instance
func NewBid(id, productID, bidderID uuid.UUID, amount float64, createdAt time.Time) *Bid {
	return &Bid{
		ID:        id,
		ProductID: productID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: createdAt,
	}
}

// QuantizeAmount rounds an amount to whole cents, the resolution prices are
// stored and compared at. Sub-cent inputs would otherwise pass the strict
// price check yet land in the ledger rounded back down to the current price.
func QuantizeAmount(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// Outranks reports whether b ranks above other: higher amount wins,
// equal amounts go to the earlier bid.
func (b *Bid) Outranks(other *Bid) bool {
	if b.Amount != other.Amount {
		return b.Amount > other.Amount
	}
	return b.CreatedAt.Before(other.CreatedAt)
}
