package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cristianortiz/thriftbid/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuction(t *testing.T, g *Gateway, startingPrice float64, endTime *time.Time) *domain.Product {
	t.Helper()
	p := domain.NewProduct(uuid.New(), uuid.New(), "Retro lamp", "works fine", startingPrice, true, endTime)
	g.AddProduct(p)
	return p
}

func TestAppendBidRaisesPrice(t *testing.T) {
	g := NewGateway()
	ctx := context.Background()
	now := time.Now()
	end := now.Add(time.Hour)
	p := newAuction(t, g, 2500, &end)

	bid, err := g.AppendBid(ctx, p.ID, uuid.New(), 2600, 2500, now)
	require.NoError(t, err)
	assert.Equal(t, 2600.0, bid.Amount)

	stored, err := g.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2600.0, stored.CurrentPrice)
}

func TestAppendBidRejections(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	end := now.Add(time.Hour)
	past := now.Add(-time.Minute)

	t.Run("unknown product", func(t *testing.T) {
		g := NewGateway()
		_, err := g.AppendBid(ctx, uuid.New(), uuid.New(), 100, 50, now)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("non-auction product", func(t *testing.T) {
		g := NewGateway()
		p := domain.NewProduct(uuid.New(), uuid.New(), "Plain tee", "", 500, false, nil)
		g.AddProduct(p)
		_, err := g.AppendBid(ctx, p.ID, uuid.New(), 600, 500, now)
		assert.ErrorIs(t, err, domain.ErrNotAuction)
	})

	t.Run("ended auction", func(t *testing.T) {
		g := NewGateway()
		p := newAuction(t, g, 2500, &past)
		_, err := g.AppendBid(ctx, p.ID, uuid.New(), 2600, 2500, now)
		assert.ErrorIs(t, err, domain.ErrAuctionClosed)

		bids, _ := g.TopBids(ctx, p.ID, 10)
		assert.Empty(t, bids, "rejection must not mutate state")
	})

	t.Run("stale expected price", func(t *testing.T) {
		g := NewGateway()
		p := newAuction(t, g, 2500, &end)
		_, err := g.AppendBid(ctx, p.ID, uuid.New(), 2600, 2500, now)
		require.NoError(t, err)

		// second writer still expects 2500
		_, err = g.AppendBid(ctx, p.ID, uuid.New(), 2700, 2500, now)
		assert.ErrorIs(t, err, domain.ErrStaleOffer)

		stored, _ := g.GetByID(ctx, p.ID)
		assert.Equal(t, 2600.0, stored.CurrentPrice)
	})

	t.Run("amount not above current price", func(t *testing.T) {
		g := NewGateway()
		p := newAuction(t, g, 2500, &end)
		_, err := g.AppendBid(ctx, p.ID, uuid.New(), 2500, 2500, now)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)

		price, ok := domain.CurrentPriceOf(err)
		require.True(t, ok)
		assert.Equal(t, 2500.0, price)
	})
}

func TestTopBidsRanking(t *testing.T) {
	g := NewGateway()
	ctx := context.Background()
	base := time.Now()
	end := base.Add(time.Hour)
	p := newAuction(t, g, 100, &end)

	bidderA, bidderB, bidderC := uuid.New(), uuid.New(), uuid.New()
	_, err := g.AppendBid(ctx, p.ID, bidderA, 150, 100, base)
	require.NoError(t, err)
	_, err = g.AppendBid(ctx, p.ID, bidderB, 200, 150, base.Add(time.Minute))
	require.NoError(t, err)
	_, err = g.AppendBid(ctx, p.ID, bidderC, 250, 200, base.Add(2*time.Minute))
	require.NoError(t, err)

	ranked, err := g.TopBids(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, []float64{250, 200, 150}, []float64{ranked[0].Amount, ranked[1].Amount, ranked[2].Amount})
	assert.Equal(t, bidderC, ranked[0].BidderID)

	limited, err := g.TopBids(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	head, err := g.HighestBid(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, ranked[0].ID, head.ID)
}

func TestAuctionListings(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewGateway().WithNow(func() time.Time { return now })

	soon := now.Add(10 * time.Minute)
	later := now.Add(6 * time.Hour)
	past := now.Add(-time.Minute)

	closing := newAuction(t, g, 100, &soon)
	open := newAuction(t, g, 100, &later)
	newAuction(t, g, 100, &past) // already ended

	buyNow := domain.NewProduct(uuid.New(), uuid.New(), "Plain tee", "", 500, false, nil)
	g.AddProduct(buyNow)

	pulled := domain.NewProduct(uuid.New(), uuid.New(), "Pulled listing", "", 100, true, &later)
	pulled.Status = domain.StatusInactive
	g.AddProduct(pulled)

	active, err := g.GetActiveAuctions(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	ids := []uuid.UUID{active[0].ID, active[1].ID}
	assert.Contains(t, ids, closing.ID)
	assert.Contains(t, ids, open.ID)

	endingSoon, err := g.GetAuctionsEndingSoon(ctx, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, endingSoon, 1)
	assert.Equal(t, closing.ID, endingSoon[0].ID)
}

func TestHighestBidNoBids(t *testing.T) {
	g := NewGateway()
	end := time.Now().Add(time.Hour)
	p := newAuction(t, g, 100, &end)

	bid, err := g.HighestBid(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, bid)
}

// Two bidders read the same price and race the append: exactly one wins, the
// loser sees a stale offer, and the final price is the winner's amount.
func TestAppendBidRaceSingleWinner(t *testing.T) {
	g := NewGateway()
	ctx := context.Background()
	now := time.Now()
	end := now.Add(time.Hour)
	p := newAuction(t, g, 2500, &end)

	amounts := []float64{2600, 2650}
	errs := make([]error, len(amounts))

	var wg sync.WaitGroup
	for i, amount := range amounts {
		wg.Add(1)
		go func(i int, amount float64) {
			defer wg.Done()
			_, errs[i] = g.AppendBid(ctx, p.ID, uuid.New(), amount, 2500, now)
		}(i, amount)
	}
	wg.Wait()

	var wins, stales int
	var winAmount float64
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
			winAmount = amounts[i]
		case errors.Is(err, domain.ErrStaleOffer):
			stales++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one racer wins")
	assert.Equal(t, 1, stales, "the other racer loses with a stale offer")

	stored, err := g.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, winAmount, stored.CurrentPrice)
}

// Accepted amounts are strictly increasing in acceptance order.
func TestAcceptedAmountsMonotonic(t *testing.T) {
	g := NewGateway()
	ctx := context.Background()
	now := time.Now()
	end := now.Add(time.Hour)
	p := newAuction(t, g, 100, &end)

	var accepted []float64
	price := 100.0
	for i := 0; i < 20; i++ {
		amount := price + float64(i%3+1)
		bid, err := g.AppendBid(ctx, p.ID, uuid.New(), amount, price, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		accepted = append(accepted, bid.Amount)
		price = amount
	}

	for i := 1; i < len(accepted); i++ {
		assert.Greater(t, accepted[i], accepted[i-1])
	}
}
