package application

import (
	"context"

	"github.com/cristianortiz/thriftbid/internal/auction/domain"
	"github.com/google/uuid"
)

// AuctionService is the application-layer surface of the auction module,
// exposed to the transport adapters (HTTP and WS).
type AuctionService interface {
	// PlaceBid mediates a bid submission and returns the created bid, or a
	// typed rejection the caller can act on.
	PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*domain.Bid, error)
	GetProductState(ctx context.Context, productID uuid.UUID) (*ProductStateDTO, error)
	TopBids(ctx context.Context, productID uuid.UUID, limit int) ([]*RankedBidDTO, error)
	// CheckWinner returns nil while the auction is open and nil when it
	// ended without bids; repeated calls after the end give the same answer.
	CheckWinner(ctx context.Context, productID uuid.UUID) (*WinnerDTO, error)
}

type auctionService struct {
	placeBidUC    *PlaceBidUseCase
	stateUC       *GetProductStateUseCase
	topBidsUC     *TopBidsUseCase
	checkWinnerUC *CheckWinnerUseCase
}

func NewAuctionService(placeBidUC *PlaceBidUseCase, stateUC *GetProductStateUseCase,
	topBidsUC *TopBidsUseCase, checkWinnerUC *CheckWinnerUseCase) AuctionService {
	return &auctionService{
		placeBidUC:    placeBidUC,
		stateUC:       stateUC,
		topBidsUC:     topBidsUC,
		checkWinnerUC: checkWinnerUC,
	}
}

func (as *auctionService) PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*domain.Bid, error) {
	return as.placeBidUC.Execute(ctx, cmd)
}

func (as *auctionService) GetProductState(ctx context.Context, productID uuid.UUID) (*ProductStateDTO, error) {
	return as.stateUC.Execute(ctx, productID)
}

func (as *auctionService) TopBids(ctx context.Context, productID uuid.UUID, limit int) ([]*RankedBidDTO, error) {
	return as.topBidsUC.Execute(ctx, productID, limit)
}

func (as *auctionService) CheckWinner(ctx context.Context, productID uuid.UUID) (*WinnerDTO, error) {
	return as.checkWinnerUC.Execute(ctx, productID)
}
