// Package memory is a concurrency-safe in-memory persistence gateway. It
// honours the same conditional-write contract as the postgres gateway, which
// makes it the seam the application tests and local development run against.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cristianortiz/thriftbid/internal/auction/domain"
	"github.com/google/uuid"
)

// Gateway implements domain.ProductRepository and domain.BidLedger over maps.
type Gateway struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*domain.Product
	bids     map[uuid.UUID][]*domain.Bid // key: productID
	now      func() time.Time
}

func NewGateway() *Gateway {
	return &Gateway{
		products: make(map[uuid.UUID]*domain.Product),
		bids:     make(map[uuid.UUID][]*domain.Bid),
		now:      time.Now,
	}
}

// WithNow pins the clock the listing queries evaluate openness against.
func (g *Gateway) WithNow(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// AddProduct seeds a product. Intended for tests and local development.
func (g *Gateway) AddProduct(p *domain.Product) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := *p
	g.products[p.ID] = &cp
}

// GetByID returns a copy of the product so callers hold a snapshot, not the
// live record the ledger mutates.
func (g *Gateway) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, ok := g.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (g *Gateway) GetActiveAuctions(ctx context.Context) ([]*domain.Product, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	now := g.now()
	var out []*domain.Product
	for _, p := range g.products {
		if p.IsAuction && p.Status == domain.StatusActive && domain.IsOpen(p.AuctionEndTime, now) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (g *Gateway) GetAuctionsEndingSoon(ctx context.Context, threshold time.Duration) ([]*domain.Product, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	now := g.now()
	var out []*domain.Product
	for _, p := range g.products {
		if !p.IsAuction || p.Status != domain.StatusActive || p.AuctionEndTime == nil {
			continue
		}
		if domain.IsOpen(p.AuctionEndTime, now) && domain.Remaining(*p.AuctionEndTime, now) <= threshold {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// AppendBid performs the compare-and-set under a single lock: the write lands
// only while expectedPrice is still authoritative and the auction is open, so
// concurrent racers on the same price resolve to exactly one winner.
func (g *Gateway) AppendBid(ctx context.Context, productID, bidderID uuid.UUID, amount, expectedPrice float64, now time.Time) (*domain.Bid, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if !p.IsAuction {
		return nil, domain.ErrNotAuction
	}
	if domain.IsEnded(p.AuctionEndTime, now) {
		return nil, domain.ErrAuctionClosed
	}
	if p.CurrentPrice != expectedPrice {
		return nil, domain.ErrStaleOffer
	}
	if amount <= p.CurrentPrice {
		return nil, &domain.PriceError{Err: domain.ErrInvalidAmount, CurrentPrice: p.CurrentPrice}
	}

	bid := domain.NewBid(uuid.New(), productID, bidderID, amount, now)
	g.bids[productID] = append(g.bids[productID], bid)
	p.CurrentPrice = amount
	p.UpdatedAt = now

	cp := *bid
	return &cp, nil
}

// TopBids returns a fresh ranked view: amount descending, ties broken by
// earliest CreatedAt.
func (g *Gateway) TopBids(ctx context.Context, productID uuid.UUID, limit int) ([]*domain.Bid, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	src := g.bids[productID]
	ranked := make([]*domain.Bid, 0, len(src))
	for _, b := range src {
		cp := *b
		ranked = append(ranked, &cp)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Outranks(ranked[j])
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (g *Gateway) CountBids(ctx context.Context, productID uuid.UUID) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.bids[productID]), nil
}

// HighestBid returns (nil, nil) when the product has no bids.
func (g *Gateway) HighestBid(ctx context.Context, productID uuid.UUID) (*domain.Bid, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	src := g.bids[productID]
	if len(src) == 0 {
		return nil, nil
	}
	winning := src[0]
	for _, b := range src[1:] {
		if b.Outranks(winning) {
			winning = b
		}
	}
	cp := *winning
	return &cp, nil
}
