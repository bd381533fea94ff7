package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/thriftbid/internal/auction/domain"
	"github.com/cristianortiz/thriftbid/internal/shared/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// PlaceBidDTO carries the data needed to submit a bid.
type PlaceBidDTO struct {
	ProductID uuid.UUID
	BidderID  uuid.UUID
	Amount    float64
}

// PlaceBidUseCase orchestrates a bid submission: validation against the state
// the caller read, the conditional ledger write, and the viewer notification.
type PlaceBidUseCase struct {
	products domain.ProductRepository
	ledger   domain.BidLedger
	notifier domain.BidEventNotifier
	now      func() time.Time
}

func NewPlaceBidUseCase(products domain.ProductRepository, ledger domain.BidLedger,
	notifier domain.BidEventNotifier) *PlaceBidUseCase {
	return &PlaceBidUseCase{
		products: products,
		ledger:   ledger,
		notifier: notifier,
		now:      time.Now,
	}
}

// WithNow pins the use case clock; tests use it to drive the open/ended
// transition without sleeping.
func (uc *PlaceBidUseCase) WithNow(now func() time.Time) *PlaceBidUseCase {
	uc.now = now
	return uc
}

func (uc *PlaceBidUseCase) Execute(ctx context.Context, cmd PlaceBidDTO) (*domain.Bid, error) {
	now := uc.now()
	cmd.Amount = domain.QuantizeAmount(cmd.Amount)

	product, err := uc.products.GetByID(ctx, cmd.ProductID)
	if err != nil {
		if !errors.Is(err, domain.ErrProductNotFound) {
			log.Error("PlaceBidUseCase: failed to load product",
				zap.String("productID", cmd.ProductID.String()),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("place bid: product %s: %w", cmd.ProductID, err)
	}

	if err := product.ValidateBid(cmd.Amount, now); err != nil {
		log.Warn("Bid rejected",
			zap.String("productID", cmd.ProductID.String()),
			zap.String("bidderID", cmd.BidderID.String()),
			zap.Float64("amount", cmd.Amount),
			zap.Float64("currentPrice", product.CurrentPrice),
			zap.Error(err),
		)
		return nil, err
	}

	// The ledger re-checks everything under the compare-and-set: of two
	// racers reading the same price, only one append lands.
	bid, err := uc.ledger.AppendBid(ctx, cmd.ProductID, cmd.BidderID, cmd.Amount, product.CurrentPrice, now)
	if err != nil {
		if errors.Is(err, domain.ErrStaleOffer) {
			return nil, uc.staleOffer(ctx, cmd)
		}
		return nil, fmt.Errorf("place bid: append for product %s: %w", cmd.ProductID, err)
	}

	log.Info("Bid accepted",
		zap.String("productID", cmd.ProductID.String()),
		zap.String("bidID", bid.ID.String()),
		zap.String("bidderID", cmd.BidderID.String()),
		zap.Float64("amount", cmd.Amount),
	)

	// Best effort: the broadcast is a cache-invalidation hint, never part of
	// the write's correctness.
	if notifyErr := uc.notifier.BidAccepted(cmd.ProductID, domain.BidEvent{Bid: bid, CurrentPrice: bid.Amount}); notifyErr != nil {
		log.Warn("Bid event broadcast failed, viewers will catch up on re-query",
			zap.String("productID", cmd.ProductID.String()),
			zap.Error(notifyErr),
		)
	}

	return bid, nil
}

// staleOffer re-reads the product so the rejection carries the price that
// beat the caller.
func (uc *PlaceBidUseCase) staleOffer(ctx context.Context, cmd PlaceBidDTO) error {
	fresh, readErr := uc.products.GetByID(ctx, cmd.ProductID)
	if readErr != nil {
		log.Error("PlaceBidUseCase: failed to re-read product after stale offer",
			zap.String("productID", cmd.ProductID.String()),
			zap.Error(readErr),
		)
		return domain.ErrStaleOffer
	}
	log.Warn("Bid lost the price race",
		zap.String("productID", cmd.ProductID.String()),
		zap.String("bidderID", cmd.BidderID.String()),
		zap.Float64("amount", cmd.Amount),
		zap.Float64("currentPrice", fresh.CurrentPrice),
	)
	return &domain.PriceError{Err: domain.ErrStaleOffer, CurrentPrice: fresh.CurrentPrice}
}
