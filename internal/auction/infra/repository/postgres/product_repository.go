package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cristianortiz/thriftbid/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id, seller_id, title, description, starting_price, current_price,
       is_auction, auction_end_time, status, created_at, updated_at`

// ProductRepository implements domain.ProductRepository. The auction engine
// only reads products; price movement happens through the bid ledger's
// conditional write.
type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetActiveAuctions returns the auction listings still accepting bids.
func (r *ProductRepository) GetActiveAuctions(ctx context.Context) ([]*domain.Product, error) {
	query := `
        SELECT ` + productColumns + `
        FROM products
        WHERE is_auction AND status = $1
          AND (auction_end_time IS NULL OR auction_end_time > NOW())
        ORDER BY auction_end_time ASC NULLS LAST
    `
	rows, err := r.pool.Query(ctx, query, domain.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProducts(rows)
}

// GetAuctionsEndingSoon returns open auctions whose end time falls inside the
// threshold window.
func (r *ProductRepository) GetAuctionsEndingSoon(ctx context.Context, threshold time.Duration) ([]*domain.Product, error) {
	query := `
        SELECT ` + productColumns + `
        FROM products
        WHERE is_auction AND status = $1
          AND auction_end_time > NOW()
          AND auction_end_time <= NOW() + $2
        ORDER BY auction_end_time ASC
    `
	rows, err := r.pool.Query(ctx, query, domain.StatusActive, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProducts(rows)
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	p := &domain.Product{}
	var endTime *time.Time

	err := row.Scan(
		&p.ID,
		&p.SellerID,
		&p.Title,
		&p.Description,
		&p.StartingPrice,
		&p.CurrentPrice,
		&p.IsAuction,
		&endTime,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.AuctionEndTime = endTime
	return p, nil
}

func scanProducts(rows pgx.Rows) ([]*domain.Product, error) {
	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}
