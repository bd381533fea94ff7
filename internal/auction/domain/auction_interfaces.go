package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	GetActiveAuctions(ctx context.Context) ([]*Product, error)
	GetAuctionsEndingSoon(ctx context.Context, threshold time.Duration) ([]*Product, error)
}

// BidLedger is the append-only record of bids per product. AppendBid is the
// single conditional write the whole engine leans on: the bid is stored and
// the product price raised to amount only while expectedPrice is still the
// authoritative current price and the auction is still open at now. Losing
// the compare-and-set yields ErrStaleOffer, so of two racing bidders exactly
// one wins.
type BidLedger interface {
	AppendBid(ctx context.Context, productID, bidderID uuid.UUID, amount, expectedPrice float64, now time.Time) (*Bid, error)
	// TopBids ranks by amount descending, ties broken by earliest CreatedAt.
	// Each call produces a fresh view; no cursor state is retained.
	TopBids(ctx context.Context, productID uuid.UUID, limit int) ([]*Bid, error)
	// HighestBid returns (nil, nil) when the product has no bids.
	HighestBid(ctx context.Context, productID uuid.UUID) (*Bid, error)
	// CountBids reports the total number of bids on the product, past any
	// window TopBids applies.
	CountBids(ctx context.Context, productID uuid.UUID) (int, error)
}

// BidEvent is what viewers of a product receive after an accepted bid.
type BidEvent struct {
	Bid          *Bid
	CurrentPrice float64
}

// BidEventNotifier pushes accepted bids to current viewers. Delivery is best
// effort: a failure must never undo or block the ledger write, viewers that
// miss an event recover by re-querying.
type BidEventNotifier interface {
	BidAccepted(productID uuid.UUID, ev BidEvent) error
}
