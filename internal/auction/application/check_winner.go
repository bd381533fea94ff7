package application

import (
	"context"
	"fmt"
	"time"

	"github.com/cristianortiz/thriftbid/internal/auction/domain"
	"github.com/google/uuid"
)

// WinnerDTO is the answer the checkout/fulfillment flow consumes once an
// auction has confirmed ended.
type WinnerDTO struct {
	ProductID uuid.UUID `json:"product_id"`
	BidderID  uuid.UUID `json:"bidder_id"`
	BidID     uuid.UUID `json:"bid_id"`
	Amount    float64   `json:"amount"`
	BidAt     time.Time `json:"bid_at"`
}

// CheckWinnerUseCase resolves the winner of an ended auction. The ledger is
// append-only and closed auctions take no further bids, so the answer is the
// same on every call after the end.
type CheckWinnerUseCase struct {
	products domain.ProductRepository
	ledger   domain.BidLedger
	now      func() time.Time
}

func NewCheckWinnerUseCase(products domain.ProductRepository, ledger domain.BidLedger) *CheckWinnerUseCase {
	return &CheckWinnerUseCase{
		products: products,
		ledger:   ledger,
		now:      time.Now,
	}
}

func (uc *CheckWinnerUseCase) WithNow(now func() time.Time) *CheckWinnerUseCase {
	uc.now = now
	return uc
}

// Execute returns nil while the auction is open and nil when it ended with no
// bids (the listing closes unsold at its starting price).
func (uc *CheckWinnerUseCase) Execute(ctx context.Context, productID uuid.UUID) (*WinnerDTO, error) {
	product, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("check winner: product %s: %w", productID, err)
	}
	if !product.IsAuction {
		return nil, domain.ErrNotAuction
	}
	if product.Open(uc.now()) {
		return nil, nil
	}

	top, err := uc.ledger.HighestBid(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("check winner: highest bid for product %s: %w", productID, err)
	}
	if top == nil {
		// ended without a single bid
		return nil, nil
	}

	return &WinnerDTO{
		ProductID: productID,
		BidderID:  top.BidderID,
		BidID:     top.ID,
		Amount:    top.Amount,
		BidAt:     top.CreatedAt,
	}, nil
}
