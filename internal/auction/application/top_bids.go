package application

import (
	"context"
	"fmt"
	"time"

	"github.com/cristianortiz/thriftbid/internal/auction/domain"
	profile "github.com/cristianortiz/thriftbid/internal/profile/domain"
	"github.com/cristianortiz/thriftbid/internal/shared/currency"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxTopBids matches the window the storefront bid list renders.
const maxTopBids = 10

// RankedBidDTO is one row of the ranked bid list, enriched with the bidder's
// display name.
type RankedBidDTO struct {
	BidID         uuid.UUID `json:"bid_id"`
	BidderID      uuid.UUID `json:"bidder_id"`
	BidderName    string    `json:"bidder_name,omitempty"`
	Amount        float64   `json:"amount"`
	AmountDisplay string    `json:"amount_display"`
	CreatedAt     time.Time `json:"created_at"`
}

// TopBidsUseCase produces the ranked bid view for a product.
type TopBidsUseCase struct {
	ledger   domain.BidLedger
	profiles profile.ProfileRepository
}

func NewTopBidsUseCase(ledger domain.BidLedger, profiles profile.ProfileRepository) *TopBidsUseCase {
	return &TopBidsUseCase{
		ledger:   ledger,
		profiles: profiles,
	}
}

func (uc *TopBidsUseCase) Execute(ctx context.Context, productID uuid.UUID, limit int) ([]*RankedBidDTO, error) {
	if limit <= 0 || limit > maxTopBids {
		limit = maxTopBids
	}

	bids, err := uc.ledger.TopBids(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("top bids: product %s: %w", productID, err)
	}

	out := make([]*RankedBidDTO, 0, len(bids))
	for _, b := range bids {
		dto := &RankedBidDTO{
			BidID:         b.ID,
			BidderID:      b.BidderID,
			Amount:        b.Amount,
			AmountDisplay: currency.FormatKSh(b.Amount),
			CreatedAt:     b.CreatedAt,
		}
		// a missing name never blocks the list
		if p, perr := uc.profiles.GetByID(ctx, b.BidderID); perr == nil {
			dto.BidderName = p.FullName
		} else {
			log.Warn("TopBidsUseCase: bidder profile lookup failed",
				zap.String("bidderID", b.BidderID.String()),
				zap.Error(perr),
			)
		}
		out = append(out, dto)
	}

	return out, nil
}
