package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cristianortiz/thriftbid/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BidLedger implements domain.BidLedger. The append is one transaction: a
// conditional UPDATE raising current_price while the expected price is still
// authoritative and the auction is open, then the bid INSERT. Zero rows
// matched means the write must not land; the losing condition is diagnosed
// afterwards so the caller gets a precise reason.
type BidLedger struct {
	pool *pgxpool.Pool
}

func NewBidLedger(pool *pgxpool.Pool) *BidLedger {
	return &BidLedger{pool: pool}
}

func (r *BidLedger) AppendBid(ctx context.Context, productID, bidderID uuid.UUID, amount, expectedPrice float64, now time.Time) (_ *domain.Bid, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("append bid: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// the compare-and-set: only one of two racers on the same expected
	// price matches this predicate
	update := `
        UPDATE products
        SET current_price = $1, updated_at = NOW()
        WHERE id = $2
          AND is_auction
          AND current_price = $3
          AND current_price < $1
          AND (auction_end_time IS NULL OR auction_end_time > $4)
    `
	tag, err := tx.Exec(ctx, update, amount, productID, expectedPrice, now)
	if err != nil {
		return nil, fmt.Errorf("append bid: conditional update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		err = r.diagnoseRejection(ctx, tx, productID, expectedPrice, amount, now)
		return nil, err
	}

	bid := domain.NewBid(uuid.New(), productID, bidderID, amount, now)
	insert := `
        INSERT INTO bids (id, product_id, bidder_id, amount, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	if _, err = tx.Exec(ctx, insert, bid.ID, bid.ProductID, bid.BidderID, bid.Amount, bid.CreatedAt); err != nil {
		return nil, fmt.Errorf("append bid: insert: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("append bid: commit: %w", err)
	}
	return bid, nil
}

// diagnoseRejection reads the product inside the same transaction to find out
// why the conditional update matched nothing.
func (r *BidLedger) diagnoseRejection(ctx context.Context, tx pgx.Tx, productID uuid.UUID, expectedPrice, amount float64, now time.Time) error {
	var (
		isAuction    bool
		currentPrice float64
		endTime      *time.Time
	)
	query := `SELECT is_auction, current_price, auction_end_time FROM products WHERE id = $1`
	err := tx.QueryRow(ctx, query, productID).Scan(&isAuction, &currentPrice, &endTime)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("append bid: diagnose rejection: %w", err)
	}
	if !isAuction {
		return domain.ErrNotAuction
	}
	if domain.IsEnded(endTime, now) {
		return domain.ErrAuctionClosed
	}
	if currentPrice == expectedPrice && amount <= currentPrice {
		return &domain.PriceError{Err: domain.ErrInvalidAmount, CurrentPrice: currentPrice}
	}
	// product exists, auction open: the price moved under us
	return domain.ErrStaleOffer
}

// TopBids returns the ranked view: amount descending, ties broken by the
// earliest created_at. Every call re-queries; no cursor state is kept.
func (r *BidLedger) TopBids(ctx context.Context, productID uuid.UUID, limit int) ([]*domain.Bid, error) {
	query := `
        SELECT id, product_id, bidder_id, amount, created_at
        FROM bids
        WHERE product_id = $1
        ORDER BY amount DESC, created_at ASC
        LIMIT $2
    `
	rows, err := r.pool.Query(ctx, query, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid := &domain.Bid{}
		err := rows.Scan(
			&bid.ID,
			&bid.ProductID,
			&bid.BidderID,
			&bid.Amount,
			&bid.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bids, nil
}

func (r *BidLedger) CountBids(ctx context.Context, productID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bids WHERE product_id = $1`, productID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count bids for product %s: %w", productID, err)
	}
	return n, nil
}

// HighestBid returns (nil, nil) when the product has no bids.
func (r *BidLedger) HighestBid(ctx context.Context, productID uuid.UUID) (*domain.Bid, error) {
	query := `
        SELECT id, product_id, bidder_id, amount, created_at
        FROM bids
        WHERE product_id = $1
        ORDER BY amount DESC, created_at ASC
        LIMIT 1
    `
	bid := &domain.Bid{}
	err := r.pool.QueryRow(ctx, query, productID).Scan(
		&bid.ID,
		&bid.ProductID,
		&bid.BidderID,
		&bid.Amount,
		&bid.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return bid, nil
}
