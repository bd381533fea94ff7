package application

import (
	"context"
	"fmt"
	"time"

	"github.com/cristianortiz/thriftbid/internal/auction/domain"
	"github.com/cristianortiz/thriftbid/internal/shared/currency"
	"github.com/google/uuid"
)

// ProductStateDTO is everything a viewer needs to render the auction panel.
type ProductStateDTO struct {
	ProductID      uuid.UUID  `json:"product_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	StartingPrice  float64    `json:"starting_price"`
	CurrentPrice   float64    `json:"current_price"`
	PriceDisplay   string     `json:"price_display"`
	IsAuction      bool       `json:"is_auction"`
	Status         string     `json:"status"`
	AuctionEndTime *time.Time `json:"auction_end_time,omitempty"`
	Ended          bool       `json:"ended"`
	TimeLeft       string     `json:"time_left,omitempty"`
	BidCount       int        `json:"bid_count"`
	LastBidAmount  float64    `json:"last_bid_amount,omitempty"`
	LastBidderID   uuid.UUID  `json:"last_bidder_id,omitempty"`
	LastBidTime    *time.Time `json:"last_bid_time,omitempty"`
}

// GetProductStateUseCase assembles the auction state view of a product.
type GetProductStateUseCase struct {
	products domain.ProductRepository
	ledger   domain.BidLedger
	now      func() time.Time
}

func NewGetProductStateUseCase(products domain.ProductRepository, ledger domain.BidLedger) *GetProductStateUseCase {
	return &GetProductStateUseCase{
		products: products,
		ledger:   ledger,
		now:      time.Now,
	}
}

func (uc *GetProductStateUseCase) WithNow(now func() time.Time) *GetProductStateUseCase {
	uc.now = now
	return uc
}

func (uc *GetProductStateUseCase) Execute(ctx context.Context, productID uuid.UUID) (*ProductStateDTO, error) {
	product, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product state: %w", err)
	}

	now := uc.now()
	dto := &ProductStateDTO{
		ProductID:      product.ID,
		Title:          product.Title,
		Description:    product.Description,
		StartingPrice:  product.StartingPrice,
		CurrentPrice:   product.CurrentPrice,
		PriceDisplay:   currency.FormatKSh(product.CurrentPrice),
		IsAuction:      product.IsAuction,
		Status:         string(product.Status),
		AuctionEndTime: product.AuctionEndTime,
		Ended:          domain.IsEnded(product.AuctionEndTime, now),
	}
	if product.AuctionEndTime != nil {
		dto.TimeLeft = domain.FormatRemaining(domain.Remaining(*product.AuctionEndTime, now))
	}
	if !product.IsAuction {
		return dto, nil
	}

	count, err := uc.ledger.CountBids(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product state: bid count for %s: %w", productID, err)
	}
	dto.BidCount = count

	head, err := uc.ledger.HighestBid(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product state: highest bid for %s: %w", productID, err)
	}
	if head != nil {
		dto.LastBidAmount = head.Amount
		dto.LastBidderID = head.BidderID
		t := head.CreatedAt
		dto.LastBidTime = &t
	}

	return dto, nil
}
